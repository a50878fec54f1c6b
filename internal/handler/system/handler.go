// Package system serves the fixed catalogs clients need to render
// forms: blood types, triage levels, attention types and the rest.
package system

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latra/medicsystem-gta-backend/internal/handler"
	"github.com/latra/medicsystem-gta-backend/internal/model"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	info := r.Group("/system_info")
	{
		info.GET("/blood_types", h.BloodTypes)
		info.GET("/attention_types", h.AttentionTypes)
		info.GET("/patient_statuses", h.PatientStatuses)
		info.GET("/triage_levels", h.TriageLevels)
		info.GET("/user_roles", h.UserRoles)
	}
}

func (h *Handler) BloodTypes(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.BloodTypes))
}

func (h *Handler) AttentionTypes(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.AttentionTypes))
}

func (h *Handler) PatientStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.PatientStatuses))
}

func (h *Handler) TriageLevels(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.TriageLevels))
}

func (h *Handler) UserRoles(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.UserRoles))
}
