package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/handler/middleware"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/service"
	"go.uber.org/zap"
)

type KeyHandler struct {
	keyService    *service.KeyService
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewKeyHandler(keyService *service.KeyService, exportService *service.ExportService, logger *zap.Logger) *KeyHandler {
	return &KeyHandler{
		keyService:    keyService,
		exportService: exportService,
		logger:        logger.Named("KeyHandler"),
	}
}

func (h *KeyHandler) Generate(c *gin.Context) {
	var req dto.GenerateKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	keys, err := h.keyService.GenerateKeys(c.Request.Context(), middleware.Caller(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	now := time.Now().UTC()
	responses := make([]*dto.KeyResponse, len(keys))
	for i, k := range keys {
		responses[i] = dto.NewKeyResponse(k, now)
	}
	c.JSON(http.StatusCreated, gin.H{"keys": responses})
}

func (h *KeyHandler) List(c *gin.Context) {
	var req dto.ListKeysRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(err)
		return
	}

	keys, total, err := h.keyService.ListKeys(c.Request.Context(), middleware.Caller(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	now := time.Now().UTC()
	responses := make([]*dto.KeyResponse, len(keys))
	for i, k := range keys {
		responses[i] = dto.NewKeyResponse(k, now)
	}

	c.JSON(http.StatusOK, dto.PaginatedKeysResponse{
		Keys:       responses,
		TotalCount: total,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
}

func (h *KeyHandler) Revoke(c *gin.Context) {
	var req dto.RevokeKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	k, err := h.keyService.RevokeKey(c.Request.Context(), middleware.Caller(c), req.KeyCode)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewKeyResponse(k, time.Now().UTC()))
}

func (h *KeyHandler) UpdateCustomer(c *gin.Context) {
	keyCode := c.Param("code")

	var req dto.UpdateKeyCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	k, err := h.keyService.UpdateKeyCustomer(c.Request.Context(), middleware.Caller(c), keyCode, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewKeyResponse(k, time.Now().UTC()))
}

func (h *KeyHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))

	var status *key.Status
	if raw := c.Query("status"); raw != "" {
		st := key.Status(raw)
		switch st {
		case key.StatusUnused, key.StatusActive, key.StatusExpired, key.StatusRevoked:
			status = &st
		default:
			_ = c.Error(fmt.Errorf("%w: unknown status %q", ierr.ErrInvalidRequest, raw))
			return
		}
	}

	filename := fmt.Sprintf("license-keys-%s", time.Now().UTC().Format("2006-01-02"))
	switch format {
	case service.FormatCSV:
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
	case service.FormatExcel:
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
	default:
		_ = c.Error(fmt.Errorf("%w: unsupported export format %q", ierr.ErrInvalidRequest, format))
		return
	}

	if err := h.exportService.ExportKeys(c.Request.Context(), middleware.Caller(c), status, format, c.Writer); err != nil {
		h.logger.Error("Key export failed", zap.String("format", string(format)), zap.Error(err))
		_ = c.Error(err)
		return
	}
}
