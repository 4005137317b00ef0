package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gazra/gazra/backend/go-services/internal/auth"
	"github.com/gazra/gazra/backend/go-services/pkg/logger"
	"github.com/gazra/gazra/backend/go-services/pkg/middleware"
)

// LoginRequest is the back-office password login body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	creds     auth.Credentials
	issuer    *auth.Issuer
	blacklist *auth.Blacklist
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthHandler(creds auth.Credentials, issuer *auth.Issuer, blacklist *auth.Blacklist, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthHandler{creds: creds, issuer: issuer, blacklist: blacklist, ttl: ttl, now: time.Now}
}

// Register routes under /auth. loginLimit may be nil; requireAuth guards logout.
func (h *AuthHandler) Register(r gin.IRouter, loginLimit, requireAuth gin.HandlerFunc) {
	a := r.Group("/auth")
	if loginLimit != nil {
		a.POST("/login", loginLimit, h.Login)
	} else {
		a.POST("/login", h.Login)
	}
	a.POST("/logout", requireAuth, h.Logout)
}

// Login checks the admin credentials and returns a signed access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.creds.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "password login is not configured"})
		return
	}
	if err := h.creds.Check(req.Username, req.Password); err != nil {
		logger.Warnf("failed admin login for %q from %s", req.Username, c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	access, exp, err := h.issuer.Generate(req.Username, h.ttl)
	if errors.Is(err, auth.ErrNoSecret) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "password login is not configured"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": access,
		"tokenType":   "Bearer",
		"expiresIn":   int(exp.Sub(h.now()).Seconds()),
	})
}

// Logout revokes the presented access token until it would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := c.GetString(middleware.TokenKey)
	ttl := auth.ExpiresIn(raw, h.now())
	if ttl == 0 {
		ttl = h.ttl
	}
	if err := h.blacklist.Revoke(c.Request.Context(), raw, ttl); err != nil {
		logger.Errorf("failed to revoke token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
