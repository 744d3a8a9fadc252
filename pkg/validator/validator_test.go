package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	ID       string `validate:"required"`
	RoleCode int    `validate:"gte=0"`
}

func TestValidateAndDescribe(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(sample{ID: "a"}))

	err := v.Validate(sample{RoleCode: -1})
	require.Error(t, err)
	require.Equal(t, "id is required; role_code must be gte 0", Describe(err))
}

func TestDescribePlainError(t *testing.T) {
	require.Equal(t, "boom", Describe(errors.New("boom")))
}
