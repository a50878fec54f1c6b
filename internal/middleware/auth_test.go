package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/service/auth"
)

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

func newTestRouter(requirement auth.Requirement) *gin.Engine {
	gin.SetMode(gin.TestMode)

	gate := &fakeGate{principals: map[string]*auth.Principal{
		"doctor-token": {User: &model.User{DNI: "100001", Role: model.RoleDoctor, Enabled: true}},
		"police-token": {User: &model.User{DNI: "100002", Role: model.RolePolice, Enabled: true}},
	}}
	mw := NewAuthMiddleware(gate)

	engine := gin.New()
	group := engine.Group("/", mw.Authenticate())
	group.GET("/protected", mw.Require(requirement), func(c *gin.Context) {
		principal := Principal(c)
		c.JSON(http.StatusOK, gin.H{"dni": principal.DNI()})
	})
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, authorization string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestAuthenticateSetsPrincipal(t *testing.T) {
	engine := newTestRouter(auth.AnyAuthenticated())

	rec, body := doRequest(t, engine, "Bearer doctor-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100001", body["dni"])
}

func TestAuthenticateFailuresGetOneGenericBody(t *testing.T) {
	engine := newTestRouter(auth.AnyAuthenticated())

	headers := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Basic doctor-token",
		"unknown token":   "Bearer garbage",
		"malformed value": "Bearer",
	}

	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			rec, body := doRequest(t, engine, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, apperrors.UnauthenticatedMessage, body["message"])
		})
	}
}

func TestRequireDeniedNamesRequirement(t *testing.T) {
	engine := newTestRouter(auth.Role(model.RoleDoctor))

	rec, body := doRequest(t, engine, "Bearer police-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "role doctor")
}

func TestRequirePassesMatchingRole(t *testing.T) {
	engine := newTestRouter(auth.Role(model.RoleDoctor))

	rec, _ := doRequest(t, engine, "Bearer doctor-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerTokenIsCaseInsensitive(t *testing.T) {
	engine := newTestRouter(auth.AnyAuthenticated())

	rec, _ := doRequest(t, engine, "bearer doctor-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPrincipalNilOnPublicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/public", func(c *gin.Context) {
		assert.Nil(t, Principal(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
