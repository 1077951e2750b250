package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Type string `validate:"omitempty,resource_type"`
	Kind string `validate:"omitempty,reservation_kind"`
	Role string `validate:"omitempty,user_role"`
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerOn(v))

	assert.NoError(t, v.Struct(sample{Type: "lab", Kind: "exam", Role: "lecturer"}))
	assert.NoError(t, v.Struct(sample{}))
	assert.Error(t, v.Struct(sample{Type: "kitchen"}))
	assert.Error(t, v.Struct(sample{Kind: "party"}))
	assert.Error(t, v.Struct(sample{Role: "root"}))
}

func TestRegisterIsIdempotent(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())
}
