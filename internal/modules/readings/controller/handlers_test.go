package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/classify"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings/types"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/telemetry"
)

type stubService struct {
	snapshot    types.Snapshot
	chart       []types.ChartPoint
	modeErr     error
	intervalErr error
	gotMode     string
	gotMS       int
}

func (s *stubService) Snapshot() types.Snapshot  { return s.snapshot }
func (s *stubService) Chart() []types.ChartPoint { return s.chart }
func (s *stubService) SwitchMode(name string) error {
	s.gotMode = name
	return s.modeErr
}
func (s *stubService) SetIntervalMS(ms int) (int, error) {
	s.gotMS = ms
	if s.intervalErr != nil {
		return ms, s.intervalErr
	}
	if ms < 500 {
		ms = 500
	}
	return ms, nil
}

type stubRepo struct {
	recent  []types.StoredReading
	between []types.StoredReading
	err     error

	gotLimit int
	gotFrom  time.Time
	gotTo    time.Time
	ranged   bool
}

func (s *stubRepo) InsertReading(ts time.Time, source string, r telemetry.Reading) error { return nil }
func (s *stubRepo) RecentReadings(limit int) ([]types.StoredReading, error) {
	s.gotLimit = limit
	return s.recent, s.err
}
func (s *stubRepo) ReadingsBetween(from, to time.Time, limit int) ([]types.StoredReading, error) {
	s.ranged = true
	s.gotFrom, s.gotTo, s.gotLimit = from, to, limit
	return s.between, s.err
}
func (s *stubRepo) CountReadings() (int, error) { return len(s.recent), nil }

func newTestMux(svc Service, repo *stubRepo) *http.ServeMux {
	mux := http.NewServeMux()
	NewController(svc, repo).RegisterRoutes(mux)
	return mux
}

func TestHandleSnapshot(t *testing.T) {
	svc := &stubService{snapshot: types.Snapshot{
		Mode:       "live",
		Connection: "connected",
		AQI:        types.SensorStatus{Band: classify.BandGood},
	}}
	mux := newTestMux(svc, &stubRepo{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var got types.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Connection != "connected" || got.AQI.Band != classify.BandGood {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestHandleHistoryDefaultsToRecent(t *testing.T) {
	repo := &stubRepo{recent: []types.StoredReading{{Source: "live"}}}
	mux := newTestMux(&stubService{}, repo)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if repo.ranged {
		t.Error("ranged query used without from/to")
	}
	if repo.gotLimit != 100 {
		t.Errorf("limit = %d; want default 100", repo.gotLimit)
	}
}

func TestHandleHistoryRange(t *testing.T) {
	repo := &stubRepo{}
	mux := newTestMux(&stubService{}, repo)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/history?from=2026-03-01T00:00:00Z&to=2026-03-02T00:00:00Z&limit=5000", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if !repo.ranged {
		t.Fatal("ranged query not used")
	}
	if repo.gotLimit != 1000 {
		t.Errorf("limit = %d; want capped 1000", repo.gotLimit)
	}
}

func TestHandleHistoryBadQuery(t *testing.T) {
	mux := newTestMux(&stubService{}, &stubRepo{})
	cases := []string{
		"/api/history?limit=zero",
		"/api/history?limit=-1",
		"/api/history?from=2026-03-01T00:00:00Z",
		"/api/history?from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z",
	}
	for _, url := range cases {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d; want 400", url, w.Code)
		}
	}
}

func TestHandleMode(t *testing.T) {
	svc := &stubService{}
	mux := newTestMux(svc, &stubRepo{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/mode", strings.NewReader(`{"mode":"tester"}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if svc.gotMode != "tester" {
		t.Errorf("mode passed = %q; want tester", svc.gotMode)
	}
}

func TestHandleModeRejectsInvalid(t *testing.T) {
	svc := &stubService{modeErr: errors.New("invalid mode")}
	mux := newTestMux(svc, &stubRepo{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/mode", strings.NewReader(`{"mode":"replay"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/mode", strings.NewReader(`{broken`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for broken JSON; want 400", w.Code)
	}
}

func TestHandleInterval(t *testing.T) {
	svc := &stubService{}
	mux := newTestMux(svc, &stubRepo{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/interval", strings.NewReader(`{"ms":100}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var got map[string]int
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["ms"] != 500 {
		t.Errorf("ms = %d; want clamped 500", got["ms"])
	}
}

func TestHandleIntervalPublishFailure(t *testing.T) {
	svc := &stubService{intervalErr: errors.New("broker unreachable")}
	mux := newTestMux(svc, &stubRepo{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/interval", strings.NewReader(`{"ms":2000}`)))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; want 502", w.Code)
	}
}

func TestHandleIntervalMissingMS(t *testing.T) {
	mux := newTestMux(&stubService{}, &stubRepo{})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/interval", strings.NewReader(`{}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
}
