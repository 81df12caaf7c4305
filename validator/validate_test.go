package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/kochabonline/liveserver/errors"
)

type target struct {
	Addr string `mapstructure:"addr" validate:"required,hasport"`
	Root string `mapstructure:"root" validate:"omitempty,dir"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, RegisterValidation("hasport", func(fl validator.FieldLevel) bool {
		return strings.Contains(fl.Field().String(), ":")
	}, "must contain a port list"))

	assert.NoError(t, Struct(&target{Addr: "localhost:8081"}))

	err := Struct(&target{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "addr is a required field")

	err = Struct(&target{Addr: "localhost"})
	require.Error(t, err)
	assert.Equal(t, int32(400), kerrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "addr must contain a port list")
}
