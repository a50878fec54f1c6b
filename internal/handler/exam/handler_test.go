package exam

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"
	"github.com/latra/medicsystem-gta-backend/pkg/validator"

	"github.com/latra/medicsystem-gta-backend/internal/middleware"
	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/service/auth"
	examsvc "github.com/latra/medicsystem-gta-backend/internal/service/exam"
	"github.com/latra/medicsystem-gta-backend/internal/service/examresult"
)

type fakeExamService struct {
	examsvc.ExamService
	exams []*model.Exam
}

func (f *fakeExamService) ListExams(ctx context.Context, includeDisabled bool) ([]*model.Exam, error) {
	return f.exams, nil
}

type fakeResultService struct {
	examresult.ExamResultService
	submitted *model.SubmitExamRequest
	gradedBy  string
}

func (f *fakeResultService) Submit(ctx context.Context, examID uuid.UUID, req *model.SubmitExamRequest, gradedBy string) (*model.ExamResult, error) {
	f.submitted = req
	f.gradedBy = gradedBy
	return &model.ExamResult{ResultID: uuid.New(), ExamID: examID, PatientDNI: req.PatientDNI}, nil
}

type fakeGate struct {
	principals map[string]*auth.Principal
}

func (f *fakeGate) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	principal, ok := f.principals[token]
	if !ok {
		return nil, apperrors.Unauthenticated(nil)
	}
	return principal, nil
}

func (f *fakeGate) Authorize(principal *auth.Principal, req auth.Requirement) error {
	return req.Check(principal)
}

func (f *fakeGate) RevokeUser(ctx context.Context, subjectID string) error  { return nil }
func (f *fakeGate) RestoreUser(ctx context.Context, subjectID string) error { return nil }

func newExamRouter(t *testing.T, results *fakeResultService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.Register())

	gate := &fakeGate{principals: map[string]*auth.Principal{
		"admin-token":   {User: &model.User{DNI: "100000", Role: model.RoleAdmin, IsAdmin: true, Enabled: true}},
		"doctor-token":  {User: &model.User{DNI: "100001", Role: model.RoleDoctor, Enabled: true}},
		"police-token":  {User: &model.User{DNI: "100002", Role: model.RolePolice, Enabled: true}},
		"patient-token": {User: &model.User{DNI: "100003", Role: model.RolePatient, Enabled: true}},
	}}
	mw := middleware.NewAuthMiddleware(gate)
	h := NewHandler(&fakeExamService{}, results, mw)

	engine := gin.New()
	h.RegisterRoutes(engine.Group("/", mw.Authenticate()))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	parsed := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func TestSubmitAcceptsPolice(t *testing.T) {
	results := &fakeResultService{}
	engine := newExamRouter(t, results)

	examID := uuid.New()
	body := `{"patient_dni":"654321","answers":[{"question_id":"q1","selected_option":"q1-0"}]}`
	rec, _ := doJSON(t, engine, http.MethodPost, "/exams/"+examID.String()+"/submit", "police-token", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, results.submitted)
	assert.Equal(t, "654321", results.submitted.PatientDNI)
	assert.Equal(t, "100002", results.gradedBy)
}

func TestListExamsRejectsPatientRole(t *testing.T) {
	engine := newExamRouter(t, &fakeResultService{})

	rec, body := doJSON(t, engine, http.MethodGet, "/exams", "patient-token", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "access denied: role in [doctor, police] or admin", body["message"])
}

func TestSubmitRejectsPatientRole(t *testing.T) {
	results := &fakeResultService{}
	engine := newExamRouter(t, results)

	examID := uuid.New()
	body := `{"patient_dni":"654321","answers":[{"question_id":"q1","selected_option":"q1-0"}]}`
	rec, _ := doJSON(t, engine, http.MethodPost, "/exams/"+examID.String()+"/submit", "patient-token", body)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, results.submitted)
}

func TestCreateExamRequiresAdmin(t *testing.T) {
	engine := newExamRouter(t, &fakeResultService{})

	rec, body := doJSON(t, engine, http.MethodPost, "/exams", "police-token", `{"name":"driving"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access denied: admin", body["message"])
}
