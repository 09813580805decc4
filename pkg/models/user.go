package models

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Username       string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email          string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	HashedPassword string  `gorm:"type:varchar(255);not null" json:"-"`
	IsActive       bool    `gorm:"not null;default:true" json:"is_active"`
	Role           string  `gorm:"type:varchar(10);not null;default:'user'" json:"role"`
	Orders         []Order `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
