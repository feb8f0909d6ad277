package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/results-service/dto"
	"github.com/radieske/quiniela-platform/internal/results-service/repo"
	"github.com/radieske/quiniela-platform/internal/wager"
)

type fakeReader struct {
	rows  []dto.Result
	calls int
}

func (f *fakeReader) ListByDate(_ context.Context, date string) ([]dto.Result, error) {
	f.calls++
	out := []dto.Result{}
	for _, r := range f.rows {
		if r.DrawDate == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReader) Get(_ context.Context, l, t, d string) (dto.Result, error) {
	for _, r := range f.rows {
		if r.LotteryName == l && r.LotteryType == t && r.DrawDate == d {
			return r, nil
		}
	}
	return dto.Result{}, repo.ErrNotFound
}

type memCache struct{ m map[string][]dto.Result }

func (c *memCache) GetResults(_ context.Context, date string, dst *[]dto.Result) (bool, error) {
	v, ok := c.m[date]
	if ok {
		*dst = v
	}
	return ok, nil
}

func (c *memCache) SetResults(_ context.Context, date string, v []dto.Result, _ time.Duration) error {
	c.m[date] = v
	return nil
}

type staticRules struct{ cfg wager.Config }

func (s staticRules) Rules(context.Context) (wager.Config, error) { return s.cfg, nil }

func newAPI() (*API, *fakeReader) {
	reader := &fakeReader{rows: []dto.Result{
		{LotteryName: "nacional", LotteryType: "nocturna", DrawDate: "2026-10-15", Numbers: []int{4821, 17}},
		{LotteryName: "provincia", LotteryType: "nocturna", DrawDate: "2026-10-14", Numbers: []int{9}},
	}}
	cfg := wager.DefaultConfig()
	cfg.Timezone = "UTC"
	a := &API{
		Log:      zap.NewNop(),
		ReadRepo: reader,
		Cache:    &memCache{m: map[string][]dto.Result{}},
		Rules:    staticRules{cfg: cfg},
		TTL:      time.Minute,
		now:      func() time.Time { return time.Date(2026, 10, 15, 22, 0, 0, 0, time.UTC) },
	}
	return a, reader
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestListResults_ReadThroughCache(t *testing.T) {
	a, reader := newAPI()
	h := a.Router()

	for i := 0; i < 2; i++ {
		rec := get(t, h, "/v1/results")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got []dto.Result
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Numbers[0] != 4821 {
			t.Fatalf("results = %+v", got)
		}
	}
	if reader.calls != 1 {
		t.Errorf("repo hit %d times, want 1", reader.calls)
	}

	if rec := get(t, h, "/v1/results?date=ayer"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: %d", rec.Code)
	}
}

func TestGetResult(t *testing.T) {
	a, _ := newAPI()
	h := a.Router()
	if rec := get(t, h, "/v1/results/provincia/nocturna/2026-10-14"); rec.Code != http.StatusOK {
		t.Fatalf("found: %d", rec.Code)
	}
	if rec := get(t, h, "/v1/results/provincia/primera/2026-10-14"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", rec.Code)
	}
}

func TestListDraws(t *testing.T) {
	a, _ := newAPI()
	rec := get(t, a.Router(), "/v1/draws")
	var d dto.Draws
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if len(d.Lotteries) != 6 || len(d.Shifts) != 5 || d.Shifts[4].CloseTime != "20:45" {
		t.Fatalf("draws = %+v", d)
	}
}
