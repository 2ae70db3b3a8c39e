package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/service"
	"go.uber.org/zap"
)

// DownloadHandler serves the public download portal. It is the only
// unauthenticated mutating surface; the license key itself is the credential.
type DownloadHandler struct {
	downloadService *service.DownloadService
	logger          *zap.Logger
}

func NewDownloadHandler(downloadService *service.DownloadService, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		downloadService: downloadService,
		logger:          logger.Named("DownloadHandler"),
	}
}

func (h *DownloadHandler) Attempt(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	grant, err := h.downloadService.AttemptDownload(c.Request.Context(), req.KeyCode)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, grant)
}

// Redeem validates a grant token while it is still live, so the download CDN
// can check tokens before serving installer bytes.
func (h *DownloadHandler) Redeem(c *gin.Context) {
	token := c.Param("token")

	keyCode, err := h.downloadService.RedeemGrant(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.RedeemGrantResponse{Token: token, KeyCode: keyCode})
}
