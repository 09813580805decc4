package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/caiorocha7/panificadora-trigao/pkg/models"
	"github.com/caiorocha7/panificadora-trigao/pkg/repository"
)

type productRequest struct {
	Code        string          `json:"code" binding:"required"`
	ProductName string          `json:"product_name" binding:"required"`
	Unit        string          `json:"unit" binding:"required,max=4"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Tax         string          `json:"tax"`
	Section     string          `json:"section"`
}

func (r *productRequest) toModel() *models.Product {
	return &models.Product{
		Code:        r.Code,
		ProductName: r.ProductName,
		Unit:        r.Unit,
		Price:       r.Price,
		Tax:         r.Tax,
		Section:     r.Section,
	}
}

func (s *Server) listProducts(c *gin.Context) {
	skip, limit := pagination(c)
	products, err := s.products.List(c.Request.Context(), skip, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// getProduct serves from the cache when it can. Order pricing does not
// come through here; it reads the products table inside its transaction.
func (s *Server) getProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if s.cache != nil {
		if product, err := s.cache.GetProduct(ctx, id); err == nil {
			c.JSON(http.StatusOK, product)
			return
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("Failed to cache product", zap.Uint("product_id", id), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, product)
}

func (s *Server) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.products.GetByCode(ctx, req.Code); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "product code already exists"})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		s.writeError(c, err)
		return
	}

	product := req.toModel()
	if err := s.products.Create(ctx, product); err != nil {
		s.writeError(c, err)
		return
	}

	s.auditProduct(c, "create_product", product)
	c.JSON(http.StatusCreated, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	product, err := s.products.Update(ctx, id, req.toModel())
	if err != nil {
		s.writeError(c, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.InvalidateProduct(ctx, id); err != nil {
			s.logger.Warn("Failed to invalidate product cache", zap.Uint("product_id", id), zap.Error(err))
		}
	}

	s.auditProduct(c, "update_product", product)
	c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	product, err := s.products.Delete(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.InvalidateProduct(ctx, id); err != nil {
			s.logger.Warn("Failed to invalidate product cache", zap.Uint("product_id", id), zap.Error(err))
		}
	}

	s.auditProduct(c, "delete_product", product)
	c.JSON(http.StatusOK, product)
}

func (s *Server) auditProduct(c *gin.Context, action string, product *models.Product) {
	if s.audit == nil {
		return
	}
	user := currentUser(c)
	var userID uint
	if user != nil {
		userID = user.ID
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.CreateAuditLog(ctx, &repository.AuditLog{
			Action:   action,
			EntityID: fmt.Sprintf("product:%d", product.ID),
			UserID:   userID,
			Data:     bson.M{"code": product.Code, "price": product.Price.String()},
		}); err != nil {
			s.logger.Warn("Failed to write audit log", zap.String("action", action), zap.Error(err))
		}
	}()
}
