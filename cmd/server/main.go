package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/caiorocha7/panificadora-trigao/pkg/auth"
	"github.com/caiorocha7/panificadora-trigao/pkg/config"
	"github.com/caiorocha7/panificadora-trigao/pkg/models"
	"github.com/caiorocha7/panificadora-trigao/pkg/repository"
	"github.com/caiorocha7/panificadora-trigao/pkg/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := buildLogger(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting bakery API",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	// Storage
	db, err := repository.Open(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)

	ctx := context.Background()

	// Redis cache (optional dependency)
	var cache server.ProductCache
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed, continuing without product cache", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
		cache = redisRepo
	}
	defer redisRepo.Close()

	// MongoDB audit log (optional dependency)
	var audit *repository.MongoRepository
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Warn("MongoDB connection failed, continuing without audit log", zap.Error(err))
	} else if err := mongoRepo.Ping(ctx); err != nil {
		logger.Warn("MongoDB ping failed, continuing without audit log", zap.Error(err))
	} else {
		logger.Info("MongoDB connected successfully")
		audit = mongoRepo
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongoRepo.Close(closeCtx)
		}()
	}

	// Ensure exactly one admin principal exists before serving traffic.
	if err := ensureAdmin(ctx, users, &cfg.Auth, logger); err != nil {
		logger.Fatal("Failed to bootstrap admin user", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	srv := server.NewServer(cfg, logger, users, products, orders, cache, audit, tokens)
	srv.SetupRoutes()

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// ensureAdmin is idempotent: a second run against the same database
// changes nothing.
func ensureAdmin(ctx context.Context, users *repository.UserRepository, cfg *config.AuthConfig, logger *zap.Logger) error {
	_, err := users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if cfg.AdminPassword == "" {
		return errors.New("auth.admin_password must be set to bootstrap the admin user")
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:       cfg.AdminUsername,
		Email:          cfg.AdminEmail,
		HashedPassword: hash,
		IsActive:       true,
		Role:           models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("Admin user created", zap.String("username", cfg.AdminUsername))
	return nil
}

func buildLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	return zapCfg.Build()
}
