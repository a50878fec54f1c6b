package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latra/medicsystem-gta-backend/internal/handler"
	"github.com/latra/medicsystem-gta-backend/internal/middleware"
	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/service/auth"
	"github.com/latra/medicsystem-gta-backend/internal/service/user"
)

type Handler struct {
	service user.UserService
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service user.UserService, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

// RegisterPublicRoutes wires the self-registration endpoints. They sit
// outside the authenticated groups.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/doctor/register", h.RegisterDoctor)
	r.POST("/police/register", h.RegisterPolice)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	adminOnly := h.authMW.Require(auth.IsAdmin())
	anyUser := h.authMW.Require(auth.AnyAuthenticated())

	doctors := r.Group("/doctor")
	{
		doctors.POST("", adminOnly, h.CreateDoctor)
		doctors.GET("", anyUser, h.ListDoctors)
		doctors.GET("/:dni", anyUser, h.GetDoctor)
		doctors.PUT("/:dni", adminOnly, h.UpdateDoctorProfile)
		doctors.DELETE("/:dni", adminOnly, h.DisableUser)
	}

	police := r.Group("/police")
	{
		police.POST("", adminOnly, h.CreatePolice)
		police.GET("", anyUser, h.ListPolice)
		police.GET("/:dni", anyUser, h.GetPolice)
		police.PUT("/:dni", adminOnly, h.UpdatePoliceProfile)
		police.DELETE("/:dni", adminOnly, h.DisableUser)
	}

	users := r.Group("/user")
	{
		users.GET("/me", anyUser, h.GetProfile)
		users.GET("/me/doctor", anyUser, h.GetOwnDoctor)
		users.GET("/me/police", anyUser, h.GetOwnPolice)
		users.GET("/search", adminOnly, h.SearchUsers)
		users.POST("/:dni/enable", adminOnly, h.EnableUser)
	}
}

func (h *Handler) RegisterDoctor(c *gin.Context) {
	var req model.RegisterDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	doctor, err := h.service.RegisterDoctor(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(doctor))
}

func (h *Handler) RegisterPolice(c *gin.Context) {
	var req model.RegisterPoliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	police, err := h.service.RegisterPolice(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(police))
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	doctor, err := h.service.CreateDoctor(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(doctor))
}

func (h *Handler) CreatePolice(c *gin.Context) {
	var req model.CreatePoliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	police, err := h.service.CreatePolice(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(police))
}

func (h *Handler) GetDoctor(c *gin.Context) {
	doctor, err := h.service.GetDoctor(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) GetPolice(c *gin.Context) {
	police, err := h.service.GetPolice(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(police))
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}

func (h *Handler) ListPolice(c *gin.Context) {
	police, err := h.service.ListPolice(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(police))
}

func (h *Handler) UpdateDoctorProfile(c *gin.Context) {
	var profile model.DoctorProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	doctor, err := h.service.UpdateDoctorProfile(c.Request.Context(), c.Param("dni"), &profile)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) UpdatePoliceProfile(c *gin.Context) {
	var profile model.PoliceProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	police, err := h.service.UpdatePoliceProfile(c.Request.Context(), c.Param("dni"), &profile)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(police))
}

func (h *Handler) DisableUser(c *gin.Context) {
	if err := h.service.DisableUser(c.Request.Context(), c.Param("dni")); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) EnableUser(c *gin.Context) {
	if err := h.service.EnableUser(c.Request.Context(), c.Param("dni")); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// GetProfile returns the caller's own directory record.
func (h *Handler) GetProfile(c *gin.Context) {
	principal := middleware.Principal(c)
	profile, err := h.service.GetProfile(c.Request.Context(), principal.User.SubjectID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) GetOwnDoctor(c *gin.Context) {
	doctor, err := h.service.GetOwnDoctor(c.Request.Context(), middleware.Principal(c).User.SubjectID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) GetOwnPolice(c *gin.Context) {
	police, err := h.service.GetOwnPolice(c.Request.Context(), middleware.Principal(c).User.SubjectID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(police))
}

func (h *Handler) SearchUsers(c *gin.Context) {
	var filters model.UserSearchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	users, err := h.service.SearchUsers(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}
