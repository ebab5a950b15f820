package loo7

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/loo7/core"
)

var (
	typeTag  = "loo7type"
	typeText = "type must be one of new, near_past or far_past"

	scoreTag  = "loo7score"
	scoreText = "score must be one of excellent, good, weak or repeat"

	ayaRangeTag  = "ayarange"
	ayaRangeText = "end aya must not be before start aya"
)

// InitValidators registers the loo7 validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(typeTag, typeValidation)
	core.RegisterCustomTranslation(validate, translator, typeTag, typeText)

	_ = validate.RegisterValidation(scoreTag, scoreValidation)
	core.RegisterCustomTranslation(validate, translator, scoreTag, scoreText)

	validate.RegisterStructValidation(newLoo7StructValidation, NewLoo7{})
	core.RegisterCustomTranslation(validate, translator, ayaRangeTag, ayaRangeText)
}

func typeValidation(fl validator.FieldLevel) bool {
	return Type(fl.Field().String()).Valid()
}

func scoreValidation(fl validator.FieldLevel) bool {
	return Score(fl.Field().String()).Valid()
}

// newLoo7StructValidation checks that the verse range is not inverted.
func newLoo7StructValidation(sl validator.StructLevel) {
	nl := sl.Current().Interface().(NewLoo7)
	if nl.StartAyaNumber > 0 && nl.EndAyaNumber > 0 && nl.EndAyaNumber < nl.StartAyaNumber {
		sl.ReportError(nl.EndAyaNumber, "endAyaNumber", "EndAyaNumber", ayaRangeTag, "")
	}
}
