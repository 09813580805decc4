package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	ProductName string          `gorm:"type:varchar(255);index;not null" json:"product_name"`
	Unit        string          `gorm:"type:varchar(4);not null" json:"unit"`
	Tax         string          `gorm:"type:varchar(50)" json:"tax,omitempty"`
	Section     string          `gorm:"type:varchar(100)" json:"section,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (Product) TableName() string {
	return "products"
}
