package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caiorocha7/panificadora-trigao/pkg/auth"
	"github.com/caiorocha7/panificadora-trigao/pkg/models"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// login exchanges form-encoded credentials for a bearer token.
func (s *Server) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	user, err := s.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "incorrect username or password"})
			return
		}
		s.writeError(c, err)
		return
	}

	if !user.IsActive || !auth.VerifyPassword(password, user.HashedPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "incorrect username or password"})
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// register creates a regular account. The role is always "user"; the
// single admin principal comes from the startup bootstrap, never signup.
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username already registered"})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		s.writeError(c, err)
		return
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email already registered"})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		s.writeError(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		IsActive:       true,
		Role:           models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info("User registered",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username))

	c.JSON(http.StatusCreated, user)
}

func (s *Server) listUsers(c *gin.Context) {
	skip, limit := pagination(c)
	users, err := s.users.List(c.Request.Context(), skip, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
