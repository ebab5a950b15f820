package quran

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
)

// SurahCount is the number of surahs in the Quran.
const SurahCount = 114

var ErrSurahNotFound = core.NewNotFoundError("surah not found")

type (
	Surah struct {
		Number        int    `json:"number"`
		Name          string `json:"name"`
		EnglishName   string `json:"englishName"`
		NumberOfAyahs int    `json:"numberOfAyahs"`
	}

	AyaSurah struct {
		Number int    `json:"number"`
		Name   string `json:"name"`
	}

	Aya struct {
		Number        int      `json:"number"`
		Text          string   `json:"text"`
		NumberInSurah int      `json:"numberInSurah"`
		Surah         AyaSurah `json:"surah"`
	}

	// Service gives access to the Quran text.
	Service interface {
		Surahs(ctx context.Context) ([]Surah, error)
		// Ayat returns the ayat of surah numbered start to end, inclusive.
		Ayat(ctx context.Context, surah, start, end int) ([]Aya, error)
	}
)

// ValidateRange checks a verse range request before it reaches the upstream API.
func ValidateRange(surah, start, end int) error {
	var flds []core.FieldError
	if surah < 1 || surah > SurahCount {
		flds = append(flds, core.FieldError{Field: "surahNumber", Error: "surah number must be between 1 and 114"})
	}
	if start < 1 {
		flds = append(flds, core.FieldError{Field: "startAya", Error: "start aya must be at least 1"})
	}
	if end < start {
		flds = append(flds, core.FieldError{Field: "endAya", Error: "end aya must not be before start aya"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid verse range"), flds...)
	}
	return nil
}
