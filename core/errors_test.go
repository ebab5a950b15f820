package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "not found", err: NewNotFoundError("student not found"), want: KindNotFound},
		{name: "wrapped not found", err: errors.Wrap(NewNotFoundError("loo7 not found"), "evaluating"), want: KindNotFound},
		{name: "validation", err: NewValidationError(nil, FieldError{Field: "score", Error: "bad"}), want: KindValidation},
		{name: "validator errors", err: validator.ValidationErrors{}, want: KindValidation},
		{name: "state", err: errors.Wrap(NewStateError("loo7 already evaluated"), "evaluating"), want: KindInvalidState},
		{name: "upstream", err: NewUpstreamError("quran api unavailable"), want: KindUpstream},
		{name: "anything else", err: errors.New("disk full"), want: KindStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "invalid input", NewValidationError(nil).Error())
	assert.Equal(t, "name: this field is required", NewValidationError(nil, FieldError{Field: "name", Error: "this field is required"}).Error())
	assert.Equal(t, "parsing id", NewValidationError(errors.New("parsing id"), FieldError{Field: "id", Error: "x"}).Error())
}

func TestTranslateValidationErrors(t *testing.T) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	InitValidators(validate, translator)

	type input struct {
		Name string `json:"name" validate:"required,notblank"`
		Date string `json:"date" validate:"omitempty,isodate"`
	}

	err := TranslateValidationErrors(validate.Struct(input{Date: "03/10/2024"}), translator)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []FieldError{
		{Field: "name", Error: "this field is required"},
		{Field: "date", Error: "date must be formatted as YYYY-MM-DD"},
	}, vErr.Fields)

	err = TranslateValidationErrors(validate.Struct(input{Name: "  "}), translator)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []FieldError{{Field: "name", Error: "this field cannot be blank"}}, vErr.Fields)

	other := errors.New("boom")
	assert.Equal(t, other, TranslateValidationErrors(other, translator))
}

func TestCleanStringPtr(t *testing.T) {
	assert.Nil(t, CleanStringPtr(nil))
	blank := "  "
	assert.Nil(t, CleanStringPtr(&blank))
	s := " Ali "
	require.NotNil(t, CleanStringPtr(&s))
	assert.Equal(t, "Ali", *CleanStringPtr(&s))
	assert.Equal(t, "ali", CleanString(" ALI ", true))
}
