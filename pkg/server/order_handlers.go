package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/caiorocha7/panificadora-trigao/pkg/models"
	"github.com/caiorocha7/panificadora-trigao/pkg/repository"
)

type createOrderRequest struct {
	Items []orderLineRequest `json:"items" binding:"required,min=1,dive"`
}

type orderLineRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// createOrder places an order for the authenticated caller. Validation,
// pricing and the write happen in one storage transaction; an unknown
// product aborts the whole request with nothing persisted.
func (s *Server) createOrder(c *gin.Context) {
	user := currentUser(c)

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	lines := make([]repository.OrderLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = repository.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	order, err := s.orders.Create(c.Request.Context(), user.ID, lines)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", user.ID),
		zap.String("total_amount", order.TotalAmount.String()))

	s.auditOrder(user.ID, order)
	c.JSON(http.StatusCreated, order)
}

// listOrders filters by caller identity: admins see every order, regular
// users only their own. Newest first either way.
func (s *Server) listOrders(c *gin.Context) {
	user := currentUser(c)
	skip, limit := pagination(c)
	ctx := c.Request.Context()

	var (
		orders []models.Order
		err    error
	)
	if user.IsAdmin() {
		orders, err = s.orders.ListAll(ctx, skip, limit)
	} else {
		orders, err = s.orders.ListByUser(ctx, user.ID, skip, limit)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// getOrder returns 404 when the order does not exist for any caller, and
// 403 when it exists but belongs to someone else and the caller is not
// an admin.
func (s *Server) getOrder(c *gin.Context) {
	user := currentUser(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := s.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if !user.IsAdmin() && order.UserID != user.ID {
		s.writeError(c, models.ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, order)
}

// getOrderAudit returns the audit trail recorded for an order,
// newest first.
func (s *Server) getOrderAudit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if s.audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "audit log unavailable"})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		s.writeError(c, err)
		return
	}

	logs, err := s.audit.GetAuditLogs(ctx, fmt.Sprintf("order:%d", id), 100)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) auditOrder(userID uint, order *models.Order) {
	if s.audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.CreateAuditLog(ctx, &repository.AuditLog{
			Action:   "create_order",
			EntityID: fmt.Sprintf("order:%d", order.ID),
			UserID:   userID,
			Data: bson.M{
				"total_amount": order.TotalAmount.String(),
				"item_count":   len(order.Items),
			},
		}); err != nil {
			s.logger.Warn("Failed to write audit log", zap.String("action", "create_order"), zap.Error(err))
		}
	}()
}
