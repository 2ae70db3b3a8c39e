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

type TechHandler struct {
	techService *service.TechService
	logger      *zap.Logger
}

func NewTechHandler(techService *service.TechService, logger *zap.Logger) *TechHandler {
	return &TechHandler{
		techService: techService,
		logger:      logger.Named("TechHandler"),
	}
}

func (h *TechHandler) Create(c *gin.Context) {
	var req dto.CreateTechUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	created, err := h.techService.CreateTechUser(c.Request.Context(), middleware.Caller(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTechUserResponse(created))
}

func (h *TechHandler) List(c *gin.Context) {
	users, err := h.techService.ListTechUsers(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	responses := make([]*dto.TechUserResponse, len(users))
	for i, u := range users {
		responses[i] = dto.NewTechUserResponse(u)
	}
	c.JSON(http.StatusOK, gin.H{"tech_users": responses})
}

func (h *TechHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid tech user ID format", ierr.ErrInvalidRequest))
		return
	}

	var req dto.UpdateTechUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.techService.UpdateTechUser(c.Request.Context(), middleware.Caller(c), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTechUserResponse(updated))
}

func (h *TechHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid tech user ID format", ierr.ErrInvalidRequest))
		return
	}

	if err := h.techService.DeleteTechUser(c.Request.Context(), middleware.Caller(c), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tech user deleted"})
}
