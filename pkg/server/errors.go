package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caiorocha7/panificadora-trigao/pkg/models"
)

// writeError translates a domain error into the client-facing failure
// shape. Forbidden stays distinct from not-found: a non-owner reading an
// existing order learns it exists, only access is denied.
func (s *Server) writeError(c *gin.Context, err error) {
	var productNotFound *models.ProductNotFoundError

	switch {
	case errors.As(err, &productNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": productNotFound.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": "insufficient permissions"})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		s.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (skip, limit int) {
	skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return skip, limit
}
