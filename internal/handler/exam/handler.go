package exam

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/handler"
	"github.com/latra/medicsystem-gta-backend/internal/middleware"
	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/service/auth"
	"github.com/latra/medicsystem-gta-backend/internal/service/exam"
	"github.com/latra/medicsystem-gta-backend/internal/service/examresult"
)

type Handler struct {
	exams   exam.ExamService
	results examresult.ExamResultService
	authMW  *middleware.AuthMiddleware
}

func NewHandler(exams exam.ExamService, results examresult.ExamResultService, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{exams: exams, results: results, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	adminOnly := h.authMW.Require(auth.IsAdmin())
	examAccess := h.authMW.Require(auth.AnyOf(auth.RoleIn(model.RoleDoctor, model.RolePolice), auth.IsAdmin()))

	exams := r.Group("/exams")
	{
		exams.POST("", adminOnly, h.CreateExam)
		exams.GET("", examAccess, h.ListExams)
		exams.GET("/search", examAccess, h.SearchExams)
		exams.GET("/:examId", examAccess, h.GetExam)
		exams.PUT("/:examId", adminOnly, h.UpdateExam)
		exams.DELETE("/:examId", adminOnly, h.DeleteExam)

		exams.POST("/:examId/categories", adminOnly, h.AddCategory)
		exams.POST("/:examId/categories/:categoryId/questions", adminOnly, h.AddQuestion)
		exams.GET("/:examId/questions", examAccess, h.ListQuestions)

		exams.POST("/:examId/submit", examAccess, h.SubmitExam)
		exams.GET("/:examId/results", examAccess, h.ListResultsByExam)
		exams.GET("/:examId/results/latest", examAccess, h.GetLatestResult)
		exams.GET("/:examId/certificate", examAccess, h.GetLatestCertificate)
		exams.GET("/:examId/statistics", adminOnly, h.GetStatistics)
	}

	results := r.Group("/exam_results")
	{
		results.GET("/search", examAccess, h.SearchResults)
		results.GET("/patients", examAccess, h.ListPatientRecords)
		results.GET("/:resultId", examAccess, h.GetResult)
		results.GET("/patient/:dni", examAccess, h.ListResultsByPatient)
	}
}

func examID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid exam id", err)
	}
	return id, nil
}

func (h *Handler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	created, err := h.exams.CreateExam(c.Request.Context(), &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

// GetExam only includes correct options for admins.
func (h *Handler) GetExam(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	found, err := h.exams.GetExam(c.Request.Context(), id, middleware.Principal(c).IsAdmin())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdateExam(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.exams.UpdateExam(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeleteExam(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := h.exams.DeleteExam(c.Request.Context(), id, middleware.Principal(c).DNI()); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListExams(c *gin.Context) {
	includeDisabled := middleware.Principal(c).IsAdmin() && c.Query("include_disabled") == "true"
	exams, err := h.exams.ListExams(c.Request.Context(), includeDisabled)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if !middleware.Principal(c).IsAdmin() {
		sanitized := make([]*model.Exam, 0, len(exams))
		for _, e := range exams {
			sanitized = append(sanitized, e.Sanitized())
		}
		exams = sanitized
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(exams))
}

func (h *Handler) SearchExams(c *gin.Context) {
	exams, err := h.exams.SearchExams(c.Request.Context(), c.Query("name"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if !middleware.Principal(c).IsAdmin() {
		sanitized := make([]*model.Exam, 0, len(exams))
		for _, e := range exams {
			sanitized = append(sanitized, e.Sanitized())
		}
		exams = sanitized
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(exams))
}

func (h *Handler) AddCategory(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.exams.AddCategory(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(updated))
}

func (h *Handler) AddQuestion(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	updated, err := h.exams.AddQuestion(c.Request.Context(), id, c.Param("categoryId"), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(updated))
}

func (h *Handler) ListQuestions(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	questions, err := h.exams.ListQuestions(c.Request.Context(), id, middleware.Principal(c).IsAdmin())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(questions))
}

func (h *Handler) SubmitExam(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.SubmitExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondValidationError(c, err)
		return
	}

	result, err := h.results.Submit(c.Request.Context(), id, &req, middleware.Principal(c).DNI())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) GetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("resultId"))
	if err != nil {
		handler.RespondError(c, apperrors.Validation("invalid result id", err))
		return
	}

	result, err := h.results.GetResult(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ListResultsByExam(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	results, err := h.results.ListByExam(c.Request.Context(), id, limit)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(results))
}

func (h *Handler) ListResultsByPatient(c *gin.Context) {
	results, err := h.results.ListByPatient(c.Request.Context(), c.Param("dni"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(results))
}

func (h *Handler) GetLatestResult(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	dni := c.Query("patient_dni")
	if dni == "" {
		handler.RespondError(c, apperrors.Validation("patient_dni is required", nil))
		return
	}

	result, err := h.results.GetLatest(c.Request.Context(), id, dni)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) GetLatestCertificate(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	dni := c.Query("patient_dni")
	if dni == "" {
		handler.RespondError(c, apperrors.Validation("patient_dni is required", nil))
		return
	}

	result, err := h.results.GetLatestCertificate(c.Request.Context(), id, dni)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) SearchResults(c *gin.Context) {
	results, err := h.results.SearchByPatient(c.Request.Context(), c.Query("patient"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(results))
}

func (h *Handler) ListPatientRecords(c *gin.Context) {
	records, err := h.results.ListPatientRecords(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

func (h *Handler) GetStatistics(c *gin.Context) {
	id, err := examID(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))
	stats, err := h.results.GetStatistics(c.Request.Context(), id, time.Duration(days)*24*time.Hour)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
