package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/handler/middleware"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/service"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService *service.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger.Named("AdminHandler"),
	}
}

func (h *AdminHandler) Create(c *gin.Context) {
	var req dto.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	created, err := h.adminService.CreateAdmin(c.Request.Context(), middleware.Caller(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAdminResponse(created))
}

func (h *AdminHandler) List(c *gin.Context) {
	users, err := h.adminService.ListAdmins(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	responses := make([]*dto.AdminResponse, len(users))
	for i, u := range users {
		responses[i] = dto.NewAdminResponse(u)
	}
	c.JSON(http.StatusOK, gin.H{"admins": responses})
}

func (h *AdminHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid admin ID format", ierr.ErrInvalidRequest))
		return
	}

	var req dto.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.adminService.UpdateAdmin(c.Request.Context(), middleware.Caller(c), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAdminResponse(updated))
}

func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid admin ID format", ierr.ErrInvalidRequest))
		return
	}

	if err := h.adminService.DeleteAdmin(c.Request.Context(), middleware.Caller(c), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Admin user deleted"})
}
