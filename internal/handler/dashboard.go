package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scosmb/license-console/internal/handler/middleware"
	"github.com/scosmb/license-console/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	keyService *service.KeyService
	logger     *zap.Logger
}

func NewDashboardHandler(keyService *service.KeyService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		keyService: keyService,
		logger:     logger.Named("DashboardHandler"),
	}
}

func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.keyService.GetDashboardSummary(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
