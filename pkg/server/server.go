package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/caiorocha7/panificadora-trigao/pkg/auth"
	"github.com/caiorocha7/panificadora-trigao/pkg/config"
	"github.com/caiorocha7/panificadora-trigao/pkg/models"
	"github.com/caiorocha7/panificadora-trigao/pkg/repository"
)

// ProductCache is the read-side cache for single-product lookups.
// Implemented by repository.RedisRepository; nil disables caching.
type ProductCache interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
	InvalidateProduct(ctx context.Context, id uint) error
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	users    *repository.UserRepository
	products *repository.ProductRepository
	orders   *repository.OrderRepository
	cache    ProductCache
	audit    *repository.MongoRepository
	tokens   *auth.TokenManager
	router   *gin.Engine
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	users *repository.UserRepository,
	products *repository.ProductRepository,
	orders *repository.OrderRepository,
	cache ProductCache,
	audit *repository.MongoRepository,
	tokens *auth.TokenManager,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:   cfg,
		logger:   logger,
		users:    users,
		products: products,
		orders:   orders,
		cache:    cache,
		audit:    audit,
		tokens:   tokens,
		router:   router,
	}
}

func (s *Server) SetupRoutes() {
	s.router.Use(s.corsMiddleware())

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", s.login)
			authGroup.POST("/register", s.register)
		}

		products := v1.Group("/products", s.authRequired())
		{
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
			products.POST("", s.adminRequired(), s.createProduct)
			products.PUT("/:id", s.adminRequired(), s.updateProduct)
			products.DELETE("/:id", s.adminRequired(), s.deleteProduct)
		}

		orders := v1.Group("/orders", s.authRequired())
		{
			orders.POST("", s.createOrder)
			orders.GET("", s.listOrders)
			orders.GET("/:id", s.getOrder)
			orders.GET("/:id/audit", s.adminRequired(), s.getOrderAudit)
		}

		users := v1.Group("/users", s.authRequired(), s.adminRequired())
		{
			users.GET("", s.listUsers)
		}
	}

	// Swagger
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
