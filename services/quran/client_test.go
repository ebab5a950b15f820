package quransvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/quran"
)

const (
	surahsBody = `{"code":200,"status":"OK","data":[
		{"number":1,"name":"سُورَةُ ٱلْفَاتِحَةِ","englishName":"Al-Faatiha","numberOfAyahs":7,"revelationType":"Meccan"},
		{"number":2,"name":"سُورَةُ البَقَرَةِ","englishName":"Al-Baqara","numberOfAyahs":286,"revelationType":"Medinan"}]}`
	fatihaBody = `{"code":200,"status":"OK","data":{"number":1,"name":"سُورَةُ ٱلْفَاتِحَةِ","ayahs":[
		{"number":1,"text":"a1","numberInSurah":1},
		{"number":2,"text":"a2","numberInSurah":2},
		{"number":3,"text":"a3","numberInSurah":3},
		{"number":4,"text":"a4","numberInSurah":4}]}}`
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	conf := core.NewTestConfig()
	conf.Quran.BaseURL = srv.URL
	return NewClient(conf, core.NewNopLogger()).(*client)
}

func TestClient_Surahs(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/surah", r.URL.Path)
		_, _ = w.Write([]byte(surahsBody))
	})

	for i := 0; i < 2; i++ {
		surahs, err := c.Surahs(context.Background())
		require.NoError(t, err)
		require.Len(t, surahs, 2)
		assert.Equal(t, quran.Surah{Number: 2, Name: "سُورَةُ البَقَرَةِ", EnglishName: "Al-Baqara", NumberOfAyahs: 286}, surahs[1])
	}
	// cached after the first success
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Ayat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/surah/1", r.URL.Path)
		_, _ = w.Write([]byte(fatihaBody))
	})

	ayat, err := c.Ayat(context.Background(), 1, 2, 3)
	require.NoError(t, err)
	require.Len(t, ayat, 2)
	assert.Equal(t, quran.Aya{
		Number:        2,
		Text:          "a2",
		NumberInSurah: 2,
		Surah:         quran.AyaSurah{Number: 1, Name: "سُورَةُ ٱلْفَاتِحَةِ"},
	}, ayat[0])
	assert.Equal(t, 3, ayat[1].NumberInSurah)
}

func TestClient_AyatInvalidRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	})

	tests := []struct {
		name              string
		surah, start, end int
	}{
		{"surah too low", 0, 1, 2},
		{"surah too high", 115, 1, 2},
		{"start too low", 1, 0, 2},
		{"end before start", 1, 3, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Ayat(context.Background(), tc.surah, tc.start, tc.end)
			assert.Equal(t, core.KindValidation, core.ErrorKind(err))
		})
	}
}

func TestClient_UpstreamFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"bad code", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":404,"status":"Not Found","data":"Surah not found"}`))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			_, err := c.Surahs(context.Background())
			assert.Equal(t, core.KindUpstream, core.ErrorKind(err))
			assert.Nil(t, c.surahs)
		})
	}
}
