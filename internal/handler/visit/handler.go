package visit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/handler"
	"github.com/latra/medicsystem-gta-backend/internal/middleware"
	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/service/auth"
	"github.com/latra/medicsystem-gta-backend/internal/service/visit"
)

type Handler struct {
	service visit.VisitService
	authMW  *middleware.AuthMiddleware
}

func NewHandler(service visit.VisitService, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctorOnly := h.authMW.Require(auth.Role(model.RoleDoctor))
	adminOnly := h.authMW.Require(auth.IsAdmin())
	anyUser := h.authMW.Require(auth.AnyAuthenticated())

	visits := r.Group("/visit")
	{
		visits.POST("", doctorOnly, h.CreateVisit)
		visits.GET("/admitted", doctorOnly, h.ListAdmitted)
		visits.GET("/status/:status", doctorOnly, h.ListByStatus)
		visits.GET("/patient/:dni", anyUser, h.ListByPatient)
		visits.GET("/doctor/:dni", doctorOnly, h.ListByDoctor)
		visits.GET("/:visitId", anyUser, h.GetVisit)
		visits.PUT("/:visitId", doctorOnly, h.UpdateVisit)
		visits.DELETE("/:visitId", adminOnly, h.DeleteVisit)
		visits.POST("/:visitId/discharge", doctorOnly, h.Discharge)

		visits.POST("/:visitId/vitals", doctorOnly, h.AddVitalSigns)
		visits.POST("/:visitId/diagnosis", doctorOnly, h.AddDiagnosis)
		visits.POST("/:visitId/prescription", doctorOnly, h.AddPrescription)
		visits.POST("/:visitId/procedure", doctorOnly, h.AddProcedure)
		visits.POST("/:visitId/evolution", doctorOnly, h.AddEvolution)
		visits.POST("/:visitId/blood_analysis", doctorOnly, h.RecordBloodAnalysis)
		visits.POST("/:visitId/radiology_study", doctorOnly, h.RecordRadiologyStudy)
	}
}

func visitID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid visit id", err)
	}
	return id, nil
}

func performer(c *gin.Context) visit.Performer {
	principal := middleware.Principal(c)
	return visit.Performer{DNI: principal.DNI(), Name: principal.User.Name}
}

func (h *Handler) CreateVisit(c *gin.Context) {
	var req model.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	created, err := h.service.CreateVisit(c.Request.Context(), &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

// GetVisit serves the full record to doctors and a summary to everyone
// else.
func (h *Handler) GetVisit(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	found, err := h.service.GetVisit(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	principal := middleware.Principal(c)
	if principal.Role() != model.RoleDoctor && !principal.IsAdmin() {
		summaries, err := h.service.ListByPatient(c.Request.Context(), found.PatientDNI)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		for _, s := range summaries {
			if s.VisitID == found.VisitID {
				c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
				return
			}
		}
		handler.RespondError(c, apperrors.NotFound("visit", nil))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdateVisit(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.UpdateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.UpdateVisit(c.Request.Context(), id, &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeleteVisit(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := h.service.DeleteVisit(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListByPatient(c *gin.Context) {
	summaries, err := h.service.ListByPatient(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(summaries))
}

func (h *Handler) ListByDoctor(c *gin.Context) {
	summaries, err := h.service.ListByDoctor(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(summaries))
}

func (h *Handler) ListAdmitted(c *gin.Context) {
	visits, err := h.service.ListAdmitted(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(visits))
}

func (h *Handler) ListByStatus(c *gin.Context) {
	visits, err := h.service.ListByStatus(c.Request.Context(), model.VisitStatus(c.Param("status")))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(visits))
}

func (h *Handler) Discharge(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.DischargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	discharged, err := h.service.Discharge(c.Request.Context(), id, &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(discharged))
}

func (h *Handler) AddVitalSigns(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.VitalSignsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.AddVitalSigns(c.Request.Context(), id, &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) AddDiagnosis(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.DiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.AddDiagnosis(c.Request.Context(), id, &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) AddPrescription(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.AddPrescription(c.Request.Context(), id, &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) AddProcedure(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.ProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.AddProcedure(c.Request.Context(), id, &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) AddEvolution(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.EvolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.AddEvolution(c.Request.Context(), id, &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) RecordBloodAnalysis(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.BloodAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	analysis, err := h.service.RecordBloodAnalysis(c.Request.Context(), id, &req, performer(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(analysis))
}

func (h *Handler) RecordRadiologyStudy(c *gin.Context) {
	id, err := visitID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.RadiologyStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	study, err := h.service.RecordRadiologyStudy(c.Request.Context(), id, &req, performer(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(study))
}
