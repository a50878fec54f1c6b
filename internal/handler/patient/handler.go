package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latra/medicsystem-gta-backend/internal/handler"
	"github.com/latra/medicsystem-gta-backend/internal/middleware"
	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/service/auth"
	"github.com/latra/medicsystem-gta-backend/internal/service/patient"
)

type Handler struct {
	service patient.PatientService
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service patient.PatientService, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctorOnly := h.authMW.Require(auth.Role(model.RoleDoctor))
	doctorOrAdmin := h.authMW.Require(auth.DoctorOrAdmin())
	anyUser := h.authMW.Require(auth.AnyAuthenticated())

	patients := r.Group("/patients")
	{
		patients.POST("", doctorOnly, h.CreatePatient)
		patients.GET("", anyUser, h.ListPatients)
		patients.GET("/search", anyUser, h.SearchPatients)
		patients.GET("/admitted", doctorOnly, h.ListAdmitted)
		patients.GET("/:dni", anyUser, h.GetPatient)
		patients.PUT("/:dni", doctorOnly, h.UpdatePatient)
		patients.DELETE("/:dni", doctorOrAdmin, h.DeletePatient)

		patients.PUT("/:dni/medical_history", doctorOnly, h.UpdateMedicalHistory)
		patients.GET("/:dni/medical_history", doctorOnly, h.GetMedicalHistory)
		patients.GET("/:dni/visits/:visitId/observations", doctorOnly, h.GetObservationsByVisit)

		patients.POST("/:dni/blood_analysis", doctorOnly, h.AddBloodAnalysis)
		patients.POST("/:dni/radiology_study", doctorOnly, h.AddRadiologyStudy)
		patients.GET("/:dni/blood_analysis/latest", doctorOnly, h.GetLatestBloodAnalysis)
		patients.GET("/:dni/radiology_study/latest", doctorOnly, h.GetLatestRadiologyStudy)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	created, err := h.service.CreatePatient(c.Request.Context(), &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

// GetPatient hides the medical history from police callers; they only
// get the demographic summary.
func (h *Handler) GetPatient(c *gin.Context) {
	found, err := h.service.GetPatient(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	principal := middleware.Principal(c)
	if principal.Role() == model.RolePolice && !principal.User.IsAdmin {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(found.Summary()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.UpdatePatient(c.Request.Context(), c.Param("dni"), &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeletePatient(c *gin.Context) {
	if err := h.service.DeletePatient(c.Request.Context(), c.Param("dni"), middleware.Principal(c).DNI()); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.service.ListPatients(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) SearchPatients(c *gin.Context) {
	patients, err := h.service.SearchPatients(c.Request.Context(), c.Query("name"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) ListAdmitted(c *gin.Context) {
	admitted, err := h.service.ListAdmitted(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(admitted))
}

func (h *Handler) UpdateMedicalHistory(c *gin.Context) {
	var req model.UpdateMedicalHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.UpdateMedicalHistory(c.Request.Context(), c.Param("dni"), &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated.MedicalHistory))
}

func (h *Handler) GetMedicalHistory(c *gin.Context) {
	found, err := h.service.GetPatient(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found.MedicalHistory))
}

func (h *Handler) AddBloodAnalysis(c *gin.Context) {
	var req model.BloodAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	principal := middleware.Principal(c)
	analysis, err := h.service.AddBloodAnalysis(c.Request.Context(), c.Param("dni"), &req, principal.DNI(), principal.User.Name)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(analysis))
}

func (h *Handler) AddRadiologyStudy(c *gin.Context) {
	var req model.RadiologyStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	principal := middleware.Principal(c)
	study, err := h.service.AddRadiologyStudy(c.Request.Context(), c.Param("dni"), &req, principal.DNI(), principal.User.Name)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(study))
}

func (h *Handler) GetLatestBloodAnalysis(c *gin.Context) {
	analysis, err := h.service.GetLatestBloodAnalysis(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(analysis))
}

func (h *Handler) GetLatestRadiologyStudy(c *gin.Context) {
	study, err := h.service.GetLatestRadiologyStudy(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(study))
}

func (h *Handler) GetObservationsByVisit(c *gin.Context) {
	history, err := h.service.GetObservationsByVisit(c.Request.Context(), c.Param("dni"), c.Param("visitId"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(history))
}
