package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "subject-1",
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestVerifyValidToken(t *testing.T) {
	verifier := NewTokenVerifier(TokenVerifierConfig{Secret: testSecret})
	token := signToken(t, testSecret, baseClaims())

	ident, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", ident.SubjectID)
	assert.Equal(t, "user@example.com", ident.Email)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	verifier := NewTokenVerifier(TokenVerifierConfig{Secret: testSecret})
	token := signToken(t, "other-secret", baseClaims())

	_, err := verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	verifier := NewTokenVerifier(TokenVerifierConfig{Secret: testSecret})
	claims := baseClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := signToken(t, testSecret, claims)

	_, err := verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	verifier := NewTokenVerifier(TokenVerifierConfig{Secret: testSecret})

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, baseClaims())
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRequiresSubject(t *testing.T) {
	verifier := NewTokenVerifier(TokenVerifierConfig{Secret: testSecret})
	claims := baseClaims()
	delete(claims, "sub")
	token := signToken(t, testSecret, claims)

	_, err := verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSubject))
}

func TestVerifyChecksIssuer(t *testing.T) {
	verifier := NewTokenVerifier(TokenVerifierConfig{Secret: testSecret, Issuer: "medicsystem"})

	claims := baseClaims()
	claims["iss"] = "medicsystem"
	ident, err := verifier.Verify(context.Background(), signToken(t, testSecret, claims))
	require.NoError(t, err)
	assert.Equal(t, "subject-1", ident.SubjectID)

	claims["iss"] = "someone-else"
	_, err = verifier.Verify(context.Background(), signToken(t, testSecret, claims))
	require.Error(t, err)
}

func TestVerifyGarbageInput(t *testing.T) {
	verifier := NewTokenVerifier(TokenVerifierConfig{Secret: testSecret})

	_, err := verifier.Verify(context.Background(), "not.a.token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
