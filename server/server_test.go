package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/model/modeltest"
	"github.com/rushteam/scenekit/pkg/logger"
	"github.com/rushteam/scenekit/rank"
	"github.com/rushteam/scenekit/service"
	"github.com/rushteam/scenekit/store"
	"github.com/rushteam/scenekit/store/storetest"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	sel := service.NewSelector(storetest.Repository(t), modeltest.Bundle(&modeltest.PacingClassifier{}),
		service.WithClock(func() time.Time { return storetest.Reference }))
	return NewRouter(sel, logger.Nop(), "test")
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPredictSequence(t *testing.T) {
	h := newTestRouter(t)
	w := post(t, h, "/predict_sequence", `{"user_id": 1, "movie_id": 10, "device_type": "mobile"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		VariantSequence []int64 `json:"variant_sequence"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []int64{100, 102, 104}, body.VariantSequence)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestSequence_FullResult(t *testing.T) {
	h := newTestRouter(t)
	w := post(t, h, "/sequence", `{"user_id": 2, "movie_id": 10}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res service.SequenceResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "desktop", res.DeviceType)
	assert.Len(t, res.Sequence, 3)
	assert.Equal(t, 183, res.TotalDuration)
}

func TestAlternatives(t *testing.T) {
	h := newTestRouter(t)
	w := post(t, h, "/alternatives", `{"user_id": 1, "movie_id": 10, "scene_index": 0, "top_n": 2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var alts []service.Alternative
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alts))
	require.Len(t, alts, 2)
	assert.Equal(t, int64(100), alts[0].VariantID)
	assert.Equal(t, "/path/to/scene1000_v100.mp4", alts[0].FilePath)

	w = post(t, h, "/alternatives", `{"user_id": 1, "movie_id": 10, "scene_index": 42}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAlternatives_TopN(t *testing.T) {
	h := newTestRouter(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"omitted uses default", `{"user_id": 1, "movie_id": 10, "scene_index": 1}`, 2},
		{"explicit zero", `{"user_id": 1, "movie_id": 10, "scene_index": 1, "top_n": 0}`, 0},
		{"one", `{"user_id": 1, "movie_id": 10, "scene_index": 1, "top_n": 1}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, "/alternatives", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var alts []service.Alternative
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alts))
			assert.Len(t, alts, tt.want)
		})
	}
}

func TestSequence_CacheHeader(t *testing.T) {
	mem := store.NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })
	sel := service.NewSelector(storetest.Repository(t), modeltest.Bundle(&modeltest.PacingClassifier{}),
		service.WithCache(mem),
		service.WithClock(func() time.Time { return storetest.Reference }))
	h := NewRouter(sel, logger.Nop(), "test")

	body := `{"user_id": 1, "movie_id": 10, "device_type": "mobile"}`
	first := post(t, h, "/sequence", body)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := post(t, h, "/sequence", body)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, "miss", first.Header().Get(CacheHeader))
	assert.Equal(t, "hit", second.Header().Get(CacheHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, first.Body.String(), `"segment_duration"`)
	assert.NotContains(t, first.Body.String(), `"cached"`)
}

func TestErrorMapping(t *testing.T) {
	h := newTestRouter(t)
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"malformed json", "/predict_sequence", `{"user_id":`, http.StatusBadRequest},
		{"missing user", "/predict_sequence", `{"movie_id": 10}`, http.StatusBadRequest},
		{"missing scene index", "/alternatives", `{"user_id": 1, "movie_id": 10}`, http.StatusBadRequest},
		{"negative top_n", "/alternatives", `{"user_id": 1, "movie_id": 10, "scene_index": 0, "top_n": -1}`, http.StatusBadRequest},
		{"unknown user", "/predict_sequence", `{"user_id": 999, "movie_id": 10}`, http.StatusNotFound},
		{"unknown movie", "/predict_sequence", `{"user_id": 1, "movie_id": 999}`, http.StatusNotFound},
		{"zero scene count", "/sequence", `{"user_id": 1, "movie_id": 12}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","model_version":"test-v1"}`, w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scenekit_http_requests_total")
}

func TestDebugFeatures(t *testing.T) {
	bundle := modeltest.Bundle(&modeltest.PacingClassifier{})
	seq, alt := service.DefaultPipelines(bundle, nil, 3)
	mon := feature.NewMonitor(100)
	seq.Nodes[0].(*rank.ClassifierNode).Monitor = mon

	sel := service.NewSelector(storetest.Repository(t), bundle,
		service.WithPipelines(seq, alt),
		service.WithClock(func() time.Time { return storetest.Reference }))
	h := NewRouter(sel, logger.Nop(), "test", WithMonitor(mon))

	w := post(t, h, "/sequence", `{"user_id": 1, "movie_id": 10, "device_type": "tv"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/features", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Columns []feature.ColumnStats `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Columns)
	for _, c := range body.Columns {
		if c.Column == "device_type_encoded" {
			assert.Equal(t, int64(6), c.Unseen, "tv is unknown to the test encoders")
			return
		}
	}
	t.Fatal("device_type_encoded not reported")
}

func TestDebugFeatures_DisabledByDefault(t *testing.T) {
	h := newTestRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/features", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
