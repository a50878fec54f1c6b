package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"
	"github.com/latra/medicsystem-gta-backend/pkg/identity"
	"github.com/latra/medicsystem-gta-backend/pkg/logger"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

type fakeVerifier struct {
	identities map[string]*identity.Identity
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	ident, ok := f.identities[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return ident, nil
}

type fakeUserRepo struct {
	repository.UserRepository
	users   map[string]*model.User
	lookups int
}

func (f *fakeUserRepo) GetBySubjectID(ctx context.Context, subjectID string) (*model.User, error) {
	f.lookups++
	user, ok := f.users[subjectID]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return user, nil
}

func newGate(t *testing.T) (*Service, *fakeUserRepo) {
	t.Helper()
	users := &fakeUserRepo{users: map[string]*model.User{
		"sub-doctor": {SubjectID: "sub-doctor", DNI: "100001", Role: model.RoleDoctor, Enabled: true},
		"sub-police": {SubjectID: "sub-police", DNI: "100002", Role: model.RolePolice, Enabled: true},
		"sub-frozen": {SubjectID: "sub-frozen", DNI: "100003", Role: model.RoleDoctor, Enabled: false},
	}}
	verifier := &fakeVerifier{identities: map[string]*identity.Identity{
		"doctor-token": {SubjectID: "sub-doctor"},
		"police-token": {SubjectID: "sub-police"},
		"frozen-token": {SubjectID: "sub-frozen"},
		"orphan-token": {SubjectID: "sub-unknown"},
	}}
	return NewService(verifier, users, nil, time.Minute, logger.NewNopLogger()), users
}

func TestAuthenticateResolvesPrincipal(t *testing.T) {
	gate, _ := newGate(t)

	principal, err := gate.Authenticate(context.Background(), "doctor-token")
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, principal.Role())
	assert.Equal(t, "100001", principal.DNI())
	assert.False(t, principal.IsAdmin())
}

func TestAuthenticateFailuresShareOneMessage(t *testing.T) {
	gate, _ := newGate(t)

	tokens := map[string]string{
		"empty token":   "",
		"invalid token": "garbage",
		"unknown user":  "orphan-token",
		"disabled user": "frozen-token",
	}

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			_, err := gate.Authenticate(context.Background(), token)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
			assert.Equal(t, apperrors.UnauthenticatedMessage, apperrors.Message(err))
		})
	}
}

func TestAuthenticateCachesUserLookups(t *testing.T) {
	gate, users := newGate(t)

	for i := 0; i < 3; i++ {
		_, err := gate.Authenticate(context.Background(), "doctor-token")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, users.lookups)
}

func TestRevokeUserDropsCachedEntry(t *testing.T) {
	gate, users := newGate(t)

	_, err := gate.Authenticate(context.Background(), "doctor-token")
	require.NoError(t, err)
	require.NoError(t, gate.RevokeUser(context.Background(), "sub-doctor"))

	// Without redis the revocation set is unavailable, but the cache
	// drop forces a fresh directory read on the next request.
	_, err = gate.Authenticate(context.Background(), "doctor-token")
	require.NoError(t, err)
	assert.Equal(t, 2, users.lookups)
}

func principalWith(role model.UserRole, admin bool) *Principal {
	return &Principal{User: &model.User{Role: role, IsAdmin: admin, Enabled: true}}
}

func TestAuthorize(t *testing.T) {
	gate, _ := newGate(t)

	tests := []struct {
		name      string
		principal *Principal
		req       Requirement
		allowed   bool
	}{
		{"authenticated passes anyone", principalWith(model.RolePolice, false), AnyAuthenticated(), true},
		{"role matches exactly", principalWith(model.RoleDoctor, false), Role(model.RoleDoctor), true},
		{"role mismatch denied", principalWith(model.RolePolice, false), Role(model.RoleDoctor), false},
		{"admin flag does not substitute for role", principalWith(model.RolePolice, true), Role(model.RoleDoctor), false},
		{"role in set", principalWith(model.RolePolice, false), RoleIn(model.RoleDoctor, model.RolePolice), true},
		{"role outside set", principalWith(model.RolePatient, false), RoleIn(model.RoleDoctor, model.RolePolice), false},
		{"admin required and present", principalWith(model.RolePolice, true), IsAdmin(), true},
		{"admin required and absent", principalWith(model.RoleDoctor, false), IsAdmin(), false},
		{"doctor passes doctor-or-admin", principalWith(model.RoleDoctor, false), DoctorOrAdmin(), true},
		{"admin police passes doctor-or-admin", principalWith(model.RolePolice, true), DoctorOrAdmin(), true},
		{"plain police fails doctor-or-admin", principalWith(model.RolePolice, false), DoctorOrAdmin(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Authorize(tt.principal, tt.req)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
			}
		})
	}
}

func TestAuthorizeNamesUnmetRequirement(t *testing.T) {
	gate, _ := newGate(t)

	err := gate.Authorize(principalWith(model.RolePolice, false), Role(model.RoleDoctor))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role doctor")

	err = gate.Authorize(principalWith(model.RolePolice, false), DoctorOrAdmin())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role doctor or admin")
}

func TestAuthorizeNilPrincipal(t *testing.T) {
	gate, _ := newGate(t)

	err := gate.Authorize(nil, AnyAuthenticated())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestRequirementNames(t *testing.T) {
	assert.Equal(t, "authenticated", AnyAuthenticated().Name())
	assert.Equal(t, "role doctor", Role(model.RoleDoctor).Name())
	assert.Equal(t, "role in [doctor, police]", RoleIn(model.RoleDoctor, model.RolePolice).Name())
	assert.Equal(t, "admin", IsAdmin().Name())
	assert.Equal(t, "role doctor or admin", DoctorOrAdmin().Name())
}

func TestVerifierErrorIsNotLeaked(t *testing.T) {
	gate, _ := newGate(t)

	_, err := gate.Authenticate(context.Background(), "garbage")
	require.Error(t, err)
	assert.NotContains(t, apperrors.Message(err), identity.ErrInvalidToken.Error())
	assert.True(t, errors.Is(err, identity.ErrInvalidToken))
}
