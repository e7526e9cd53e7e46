package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finsim/auth-service/internal/config"
	"github.com/finsim/auth-service/internal/tokens"
	"github.com/finsim/auth-service/pkg/logger"
)

// CreateTokenRequest is the issuance payload. IPAddress may be omitted, in
// which case the caller's observed address is used.
type CreateTokenRequest struct {
	UserID      string `json:"userId" binding:"required"`
	IPAddress   string `json:"ipAddress"`
	SessionType string `json:"sessionType" binding:"required"`
}

// VerifyTokenRequest carries a previously issued credential.
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyTokenResponse is the rich verification shape. The valid flag alone is
// the legacy boolean contract; the identity fields extend it.
type VerifyTokenResponse struct {
	Valid       bool   `json:"valid"`
	UserID      string `json:"userId,omitempty"`
	IPAddress   string `json:"ipAddress,omitempty"`
	SessionType string `json:"sessionType,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg      *config.Config
	issuer   *tokens.Issuer
	verifier *tokens.Verifier
}

func NewAuthHandler(cfg *config.Config, issuer *tokens.Issuer, verifier *tokens.Verifier) *AuthHandler {
	return &AuthHandler{cfg: cfg, issuer: issuer, verifier: verifier}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/token", h.CreateToken)
	a.POST("/verify", h.VerifyToken)
	a.POST("/revoke", h.RevokeToken)
}

// CreateToken issues (or re-issues) a session token for a user/device/session
// tuple. Identity verification happens upstream; this endpoint trusts the
// given userId.
func (h *AuthHandler) CreateToken(c *gin.Context) {
	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}

	token, err := h.issuer.Create(c.Request.Context(), req.UserID, req.IPAddress, req.SessionType)
	if err != nil {
		if errors.Is(err, tokens.ErrStoreUnavailable) {
			logger.Errorf("create token: store unavailable: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token store unavailable"})
			return
		}
		logger.Errorf("create token for user %s failed: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// VerifyToken validates a credential against its own claims and the server
// side record. Denials return 401 with the rich response shape; store faults
// return 503 so the caller can distinguish "deny" from "cannot determine".
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.verifier.Verify(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, tokens.ErrStoreUnavailable) {
			logger.Errorf("verify token: store unavailable: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token store unavailable"})
			return
		}
		if ice, isDenial := tokens.AsInvalid(err); isDenial {
			c.JSON(http.StatusUnauthorized, VerifyTokenResponse{Valid: false, Reason: ice.Reason})
			return
		}
		logger.Errorf("verify token failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, VerifyTokenResponse{
		Valid:       true,
		UserID:      identity.UserID,
		IPAddress:   identity.IPAddress,
		SessionType: identity.SessionType,
	})
}

// RevokeToken invalidates a credential ahead of its natural expiry.
func (h *AuthHandler) RevokeToken(c *gin.Context) {
	var req VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.verifier.Revoke(c.Request.Context(), req.Token); err != nil {
		if errors.Is(err, tokens.ErrStoreUnavailable) {
			logger.Errorf("revoke token: store unavailable: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token store unavailable"})
			return
		}
		logger.Errorf("revoke token failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": true})
}
