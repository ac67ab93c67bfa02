package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
	"MarketPulse/internal/recorder"
)

func testSnapshot() *model.MarketSnapshot {
	return &model.MarketSnapshot{
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:      model.StatusSuccess,
		Headline:    "BTC flashes Bottom Breakout",
		Signals: []model.Signal{
			{Symbol: "BTC", AssetType: model.AssetCrypto, SignalType: model.SignalBottomBreakout, Score: 98},
			{Symbol: "NVDA", AssetType: model.AssetStock, SignalType: model.SignalBreakout, Score: 70},
			{Symbol: "ETH", AssetType: model.AssetCrypto, SignalType: model.SignalWatching, Score: 50},
		},
	}
}

type fakeRuns struct {
	runs  []recorder.RunSummary
	err   error
	limit int
}

func (f *fakeRuns) RecentRuns(_ context.Context, limit int) ([]recorder.RunSummary, error) {
	f.limit = limit
	return f.runs, f.err
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_EmptyStore(t *testing.T) {
	h := New(NewStore(), nil).Router()

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/snapshot").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/signals").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/signals/BTC").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/runs").Code, "runs route disabled without a lister")
}

func TestServer_Snapshot(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Publish(context.Background(), testSnapshot()))
	h := New(store, nil).Router()

	rec := get(t, h, "/api/v1/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap model.MarketSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "BTC flashes Bottom Breakout", snap.Headline)
	assert.Len(t, snap.Signals, 3)
}

func TestServer_Signals(t *testing.T) {
	store := NewStore()
	store.Set(testSnapshot())
	h := New(store, nil).Router()

	var signals []model.Signal
	rec := get(t, h, "/api/v1/signals?asset_type=crypto")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signals))
	require.Len(t, signals, 2)
	assert.Equal(t, "BTC", signals[0].Symbol)
	assert.Equal(t, "ETH", signals[1].Symbol)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/signals?asset_type=bond").Code)

	rec = get(t, h, "/api/v1/signals/nvda")
	require.Equal(t, http.StatusOK, rec.Code)
	var sig model.Signal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
	assert.Equal(t, model.SignalBreakout, sig.SignalType)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/signals/DOGE").Code)
}

func TestServer_Runs(t *testing.T) {
	runs := &fakeRuns{runs: []recorder.RunSummary{{ID: "run-1", Status: model.StatusSuccess}}}
	h := New(NewStore(), runs).Router()

	rec := get(t, h, "/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.limit)
	assert.Contains(t, rec.Body.String(), `"id":"run-1"`)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/runs?limit=0").Code)

	runs.err = errors.New("db locked")
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/v1/runs").Code)
}
