package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeAndIs(t *testing.T) {
	err := NotFound("patient", nil)
	assert.Equal(t, ErrNotFound, Code(err))
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))

	assert.Equal(t, ErrInternal, Code(stderrors.New("plain")))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := Conflict("duplicate", nil)
	wrapped := fmt.Errorf("creating user: %w", err)
	assert.True(t, Is(wrapped, ErrConflict))
	assert.Equal(t, "duplicate", Message(wrapped))
}

func TestMessageHidesWrappedDetail(t *testing.T) {
	cause := stderrors.New("pq: connection refused")
	err := NotFound("visit", cause)

	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "visit not found", Message(err))
}

func TestMessageForPlainErrors(t *testing.T) {
	assert.Equal(t, "internal server error", Message(stderrors.New("boom")))
}

func TestUnauthenticatedAlwaysSameMessage(t *testing.T) {
	assert.Equal(t, UnauthenticatedMessage, Unauthenticated(nil).Message)
	assert.Equal(t, UnauthenticatedMessage, Unauthenticated(stderrors.New("expired")).Message)
}

func TestForbiddenNamesRequirement(t *testing.T) {
	err := Forbidden("role doctor")
	assert.Equal(t, "access denied: role doctor", err.Message)
	assert.Equal(t, ErrForbidden, Code(err))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Internal(cause)
	assert.True(t, stderrors.Is(err, cause))
}
