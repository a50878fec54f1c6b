package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDNIRule(t *testing.T) {
	require.NoError(t, Register())

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	valid := []string{"1", "123456", "12345678"}
	for _, dni := range valid {
		assert.NoError(t, v.Var(dni, "dni"), dni)
	}

	invalid := []string{"", "123456789", "12a456", "12 34", "-12345"}
	for _, dni := range invalid {
		assert.Error(t, v.Var(dni, "dni"), dni)
	}
}
