package quransvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/quran"
)

// envelope is the alquran.cloud response wrapper.
type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type surahDetail struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Ayahs  []struct {
		Number        int    `json:"number"`
		Text          string `json:"text"`
		NumberInSurah int    `json:"numberInSurah"`
	} `json:"ayahs"`
}

type client struct {
	baseURL string
	http    *http.Client
	logger  core.Logger

	mu     sync.Mutex
	surahs []quran.Surah // cached after the first success
}

var _ quran.Service = (*client)(nil)

func NewClient(conf *core.Config, logger core.Logger) quran.Service {
	return &client{
		baseURL: conf.Quran.BaseURL,
		http:    &http.Client{Timeout: conf.Quran.Timeout},
		logger:  logger,
	}
}

func (c *client) get(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "building quran request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("quran api %s: %v", path, err), err)
		return core.NewUpstreamError("quran api unavailable")
	}
	defer res.Body.Close()

	var env envelope
	if err = json.NewDecoder(res.Body).Decode(&env); err != nil || env.Code != http.StatusOK || len(env.Data) == 0 {
		c.logger.Warn(fmt.Sprintf("quran api %s: status %d, code %d", path, res.StatusCode, env.Code),
			map[string]interface{}{"status": env.Status})
		return core.NewUpstreamError("quran api returned an invalid response")
	}
	return errors.Wrap(json.Unmarshal(env.Data, v), "decoding quran response")
}

func (c *client) Surahs(ctx context.Context) ([]quran.Surah, error) {
	c.mu.Lock()
	cached := c.surahs
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var surahs []quran.Surah
	if err := c.get(ctx, "/surah", &surahs); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.surahs = surahs
	c.mu.Unlock()
	return surahs, nil
}

func (c *client) Ayat(ctx context.Context, surah, start, end int) ([]quran.Aya, error) {
	if err := quran.ValidateRange(surah, start, end); err != nil {
		return nil, err
	}

	var detail surahDetail
	if err := c.get(ctx, "/surah/"+strconv.Itoa(surah), &detail); err != nil {
		return nil, err
	}

	ayat := make([]quran.Aya, 0, end-start+1)
	for _, a := range detail.Ayahs {
		if a.NumberInSurah < start || a.NumberInSurah > end {
			continue
		}
		ayat = append(ayat, quran.Aya{
			Number:        a.Number,
			Text:          a.Text,
			NumberInSurah: a.NumberInSurah,
			Surah:         quran.AyaSurah{Number: detail.Number, Name: detail.Name},
		})
	}
	return ayat, nil
}
