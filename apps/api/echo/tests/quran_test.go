package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/quran"
	"github.com/trezcool/loo7/tests"
)

func Test_quranApi(t *testing.T) {
	e := setup(t)
	token := getToken(t, e.conf, testutil.UnsavedSheikh("sheikh"))

	runHTTPTests(t, e.app, []httpTest{
		{name: "Auth required", path: "/api/quran/surahs", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "surahs", path: "/api/quran/surahs", token: token, wantData: marchallObj(t, testSurahs)},
		{
			name: "ayat", path: "/api/quran/ayat/1/2/3", token: token,
			wantData: marchallList(t,
				quran.Aya{Number: 2, Text: "aya", NumberInSurah: 2, Surah: quran.AyaSurah{Number: 1, Name: "surah"}},
				quran.Aya{Number: 3, Text: "aya", NumberInSurah: 3, Surah: quran.AyaSurah{Number: 1, Name: "surah"}},
			),
		},
		{
			name: "non numeric surah", path: "/api/quran/ayat/one/1/2", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, kindErr{
				Kind: core.KindValidation, Error: `parsing surah: strconv.Atoi: parsing "one": invalid syntax`,
				Fields: map[string]string{"surah": "surah must be a number"},
			}),
		},
		{
			name: "inverted range", path: "/api/quran/ayat/1/5/2", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, kindErr{
				Kind: core.KindValidation, Error: "invalid verse range",
				Fields: map[string]string{"endAya": "end aya must not be before start aya"},
			}),
		},
		{
			name: "unknown surah", path: "/api/quran/ayat/115/1/2", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, kindErr{
				Kind: core.KindValidation, Error: "invalid verse range",
				Fields: map[string]string{"surahNumber": "surah number must be between 1 and 114"},
			}),
		},
	})

	e.quran.err = core.NewUpstreamError("quran api unavailable")
	runHTTPTests(t, e.app, []httpTest{
		{
			name: "upstream failure", path: "/api/quran/surahs", token: token, wantCode: http.StatusBadGateway,
			wantData: marchallObj(t, kindErr{Kind: core.KindUpstream, Error: "quran api unavailable"}),
		},
	})
}
