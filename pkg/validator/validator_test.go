package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type credentialsPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type postPayload struct {
	Title       *string `json:"title" validate:"omitnil,notblank,max=255"`
	Description string  `json:"description" validate:"required,notblank"`
}

func TestValidateStructSuccess(t *testing.T) {
	require.NoError(t, ValidateStruct(credentialsPayload{Email: "a@x.com", Password: "secret1"}))
}

func TestValidateStructFailuresUseJSONNames(t *testing.T) {
	err := ValidateStruct(credentialsPayload{Email: "invalid", Password: "123"})
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 2)

	fields := map[string]string{}
	for _, v := range vErrs {
		fields[v.Field] = v.Tag
	}
	require.Equal(t, "email", fields["email"])
	require.Equal(t, "min", fields["password"])
}

func TestNotBlankRule(t *testing.T) {
	blank := "   "
	empty := ""
	title := "hello"

	require.Error(t, ValidateStruct(postPayload{Description: "  "}))
	require.Error(t, ValidateStruct(postPayload{Title: &blank, Description: "body"}))
	require.Error(t, ValidateStruct(postPayload{Title: &empty, Description: "body"}))
	require.NoError(t, ValidateStruct(postPayload{Title: &title, Description: "body"}))
	require.NoError(t, ValidateStruct(postPayload{Description: "body"}))
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("postboard", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "postboard"
	})
	require.NoError(t, err)

	type custom struct {
		Value string `validate:"postboard"`
	}

	require.NoError(t, ValidateStruct(custom{Value: "postboard"}))
	require.Error(t, ValidateStruct(custom{Value: "other"}))
}
