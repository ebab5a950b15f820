package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/loo7/apps/api/echo"
	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/quran"
	"github.com/trezcool/loo7/core/sheikh"
	"github.com/trezcool/loo7/core/student"
	metricsvc "github.com/trezcool/loo7/services/metrics"
	inmemdb "github.com/trezcool/loo7/storage/database/inmem"
)

const (
	goodIDToken = "good-id-token"
	googleSub   = "google-sub-1"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type env struct {
	app      *echoapi.Server
	conf     *core.Config
	metrics  *metricsvc.Metrics
	health   *fakeHealth
	quran    *fakeQuran
	sheikhs  sheikh.Repository
	students student.Repository
	loo7s    loo7.Repository
}

// setup builds a server on the in-memory store with authentication enabled.
func setup(t *testing.T, configure ...func(conf *core.Config)) *env {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Auth.Enabled = true
	conf.Auth.GoogleClientID = "test-client-id"
	for _, fn := range configure {
		fn(conf)
	}

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	loo7.InitValidators(validate, translator)

	db := inmemdb.Open()
	e := &env{
		conf:     conf,
		metrics:  metricsvc.New(),
		health:   &fakeHealth{},
		quran:    &fakeQuran{},
		sheikhs:  inmemdb.NewSheikhRepository(db),
		students: inmemdb.NewStudentRepository(db),
		loo7s:    inmemdb.NewLoo7Repository(db),
	}

	logger := core.NewNopLogger()
	e.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Metrics:    e.metrics,
		Health:     e.health,
		SheikhSvc:  sheikh.NewService(e.sheikhs, fakeVerifier{}),
		StudentSvc: student.NewService(e.students),
		Loo7Svc:    loo7.NewService(e.loo7s, e.students, validate, logger, e.metrics),
		QuranSvc:   e.quran,
	})
	return e
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, idToken string) (sheikh.GoogleIdentity, error) {
	if idToken != goodIDToken {
		return sheikh.GoogleIdentity{}, errors.New("token rejected")
	}
	return sheikh.GoogleIdentity{Subject: googleSub, Email: "Sheikh@Test.cd", Name: " Sheikh Ali "}, nil
}

type fakeHealth struct {
	err error
}

func (h *fakeHealth) Ping(context.Context) error { return h.err }

type fakeQuran struct {
	err error
}

var testSurahs = []quran.Surah{
	{Number: 1, Name: "سُورَةُ ٱلْفَاتِحَةِ", EnglishName: "Al-Faatiha", NumberOfAyahs: 7},
	{Number: 2, Name: "سورة البقرة", EnglishName: "Al-Baqara", NumberOfAyahs: 286},
}

func (q *fakeQuran) Surahs(context.Context) ([]quran.Surah, error) {
	if q.err != nil {
		return nil, q.err
	}
	return testSurahs, nil
}

func (q *fakeQuran) Ayat(_ context.Context, surah, start, end int) ([]quran.Aya, error) {
	if err := quran.ValidateRange(surah, start, end); err != nil {
		return nil, err
	}
	if q.err != nil {
		return nil, q.err
	}
	ayat := make([]quran.Aya, 0, end-start+1)
	for n := start; n <= end; n++ {
		ayat = append(ayat, quran.Aya{
			Number:        n,
			Text:          "aya",
			NumberInSurah: n,
			Surah:         quran.AyaSurah{Number: surah, Name: "surah"},
		})
	}
	return ayat, nil
}

type httpErr struct {
	Error string `json:"error"`
}

type kindErr struct {
	Kind   string            `json:"kind"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, s sheikh.Sheikh) string {
	t.Helper()
	token, err := echoapi.GenerateToken(conf, echoapi.GetSheikhClaims(conf, s))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

// jsonBytesEqual compares two JSON documents; array order matters.
func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		if tt.method == "" {
			tt.method = http.MethodGet
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}
