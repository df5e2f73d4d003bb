package api

import (
	"net/http"

	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthHandler handles the password gates
type AuthHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// AdminLogin handles POST /api/v1/auth/admin
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	h.login(c, service.GateAdmin)
}

// KYCLogin handles POST /api/v1/auth/kyc
func (h *AuthHandler) KYCLogin(c *gin.Context) {
	h.login(c, service.GateKYC)
}

func (h *AuthHandler) login(c *gin.Context, gate service.Gate) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "password is required")
		return
	}

	token, err := h.services.Access.Login(c.Request.Context(), gate, c.ClientIP(), req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		respondError(c, h.log, models.ErrUnauthorized)
		return
	}

	resp := gin.H{
		"subject": claims.Subject,
		"role":    claims.Role,
	}
	if claims.ExpiresAt != nil {
		resp["expires_at"] = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}
