package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	tokenTTL    int64
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, tokenTTLSeconds int64, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokenTTL:    tokenTTLSeconds,
		logger:      logger.Named("AuthHandler"),
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.tokenTTL,
		User:        dto.NewAdminResponse(user),
	})
}
