package apihandlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"threatcat/internal/models"
	"threatcat/internal/services"
	"threatcat/internal/store"
)

type mockPredictions struct {
	mock.Mock
}

func (m *mockPredictions) Analyze(ctx context.Context, text string) (*models.Prediction, error) {
	args := m.Called(ctx, text)
	p, _ := args.Get(0).(*models.Prediction)
	return p, args.Error(1)
}

func (m *mockPredictions) ListRecent(ctx context.Context, limit, offset int) ([]*models.Prediction, error) {
	args := m.Called(ctx, limit, offset)
	items, _ := args.Get(0).([]*models.Prediction)
	return items, args.Error(1)
}

func (m *mockPredictions) Get(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Prediction)
	return p, args.Error(1)
}

func (m *mockPredictions) Stats(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

type mockThreats struct {
	mock.Mock
}

func (m *mockThreats) List(ctx context.Context, f store.ThreatFilter) ([]*models.Threat, int, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]*models.Threat)
	return items, args.Int(1), args.Error(2)
}

func (m *mockThreats) Get(ctx context.Context, id int64) (*models.Threat, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.Threat)
	return t, args.Error(1)
}

func (m *mockThreats) Stats(ctx context.Context) (*models.ThreatStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*models.ThreatStats)
	return stats, args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, m *mockPredictions, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return route(t, NewAPIHandler(m, new(mockThreats)), method, path, body)
}

func serveThreats(t *testing.T, m *mockThreats, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	return route(t, NewAPIHandler(new(mockPredictions), m), method, path, "")
}

func route(t *testing.T, h *APIHandler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(h)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeThreatHandler(t *testing.T) {
	m := new(mockPredictions)
	id := uuid.New()
	m.On("Analyze", mock.Anything, "ransom note found").Return(&models.Prediction{
		ID: id, Category: "Ransomware", Severity: models.SeverityCritical,
	}, nil).Once()

	w := serve(t, m, http.MethodPost, "/api/threats/analyze", `{"description":"ransom note found"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ransomware", resp.PredictedCategory)
	assert.Equal(t, models.SeverityCritical, resp.PredictedSeverity)
	assert.Equal(t, id, resp.ID)
	m.AssertExpectations(t)
}

func TestAnalyzeThreatHandlerBadRequests(t *testing.T) {
	for name, body := range map[string]string{
		"missing":    `{}`,
		"empty":      `{"description":"  "}`,
		"not string": `{"description":42}`,
		"not json":   `description=x`,
	} {
		t.Run(name, func(t *testing.T) {
			m := new(mockPredictions)
			w := serve(t, m, http.MethodPost, "/api/threats/analyze", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "bad_request")
			m.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalyzeThreatHandlerPredictionFailure(t *testing.T) {
	m := new(mockPredictions)
	m.On("Analyze", mock.Anything, "x").Return(nil, models.ErrArtifactLoad).Once()

	w := serve(t, m, http.MethodPost, "/api/threats/analyze", `{"description":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal_error", resp.Error.Code)
}

func TestListPredictionsHandler(t *testing.T) {
	m := new(mockPredictions)
	items := []*models.Prediction{{ID: uuid.New(), Category: "DDoS"}}
	m.On("ListRecent", mock.Anything, 3, 1).Return(items, nil).Once()
	m.On("ListRecent", mock.Anything, 5, 0).Return(items, nil).Once()

	w := serve(t, m, http.MethodGet, "/api/predictions?limit=3&offset=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "DDoS")

	w = serve(t, m, http.MethodGet, "/api/threats/recents", "")
	require.Equal(t, http.StatusOK, w.Code)
	var recents []*models.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recents), "recents is a bare array")
	require.Len(t, recents, 1)
	assert.Equal(t, "DDoS", recents[0].Category)
	m.AssertExpectations(t)

	w = serve(t, m, http.MethodGet, "/api/predictions?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPredictionsHistoryDisabled(t *testing.T) {
	m := new(mockPredictions)
	m.On("ListRecent", mock.Anything, 5, 0).Return(nil, services.ErrHistoryDisabled).Once()

	w := serve(t, m, http.MethodGet, "/api/predictions", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetPredictionHandler(t *testing.T) {
	m := new(mockPredictions)
	found, missing := uuid.New(), uuid.New()
	m.On("Get", mock.Anything, found).Return(&models.Prediction{ID: found, Category: "Phishing"}, nil).Once()
	m.On("Get", mock.Anything, missing).Return(nil, store.ErrNotFound).Once()

	w := serve(t, m, http.MethodGet, "/api/predictions/"+found.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Phishing")

	w = serve(t, m, http.MethodGet, "/api/predictions/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, m, http.MethodGet, "/api/predictions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictionStatsHandler(t *testing.T) {
	m := new(mockPredictions)
	m.On("Stats", mock.Anything).Return(map[string]int{"Malware": 2, "DDoS": 1}, nil).Once()

	w := serve(t, m, http.MethodGet, "/api/predictions/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total      int            `json:"total"`
		Categories map[string]int `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Categories["Malware"])
}

func TestHealth(t *testing.T) {
	w := serve(t, new(mockPredictions), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecentPredictionsEmptyIsArray(t *testing.T) {
	m := new(mockPredictions)
	m.On("ListRecent", mock.Anything, 5, 0).Return([]*models.Prediction{}, nil).Once()

	w := serve(t, m, http.MethodGet, "/api/threats/recents", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListThreatsHandler(t *testing.T) {
	m := new(mockThreats)
	sev := 4.0
	want := store.ThreatFilter{
		Category: "phishing", Search: "bank", Severity: &sev,
		Ascending: true, Limit: 5, Offset: 10,
	}
	items := []*models.Threat{{ID: 7, Category: "Phishing", Text: "spoofed bank page"}}
	m.On("List", mock.Anything, want).Return(items, 11, nil).Once()
	m.On("List", mock.Anything, store.ThreatFilter{Limit: 10}).Return([]*models.Threat{}, 0, nil).Once()

	w := serveThreats(t, m, http.MethodGet,
		"/api/threats?page=3&limit=5&category=phishing&search=bank&severity=4&sort=createdAt_asc")
	require.Equal(t, http.StatusOK, w.Code)
	var resp ThreatListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 11, resp.Total)
	assert.Equal(t, 3, resp.Page)
	assert.Equal(t, 5, resp.Limit)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(7), resp.Data[0].ID)

	w = serveThreats(t, m, http.MethodGet, "/api/threats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"page":1`)
	m.AssertExpectations(t)
}

func TestListThreatsHandlerBadQuery(t *testing.T) {
	for _, q := range []string{"page=0", "limit=x", "severity=high", "sort=name"} {
		t.Run(q, func(t *testing.T) {
			m := new(mockThreats)
			w := serveThreats(t, m, http.MethodGet, "/api/threats?"+q)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			m.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestGetThreatHandler(t *testing.T) {
	m := new(mockThreats)
	m.On("Get", mock.Anything, int64(3)).Return(&models.Threat{ID: 3, Category: "DDoS"}, nil).Once()
	m.On("Get", mock.Anything, int64(4)).Return(nil, store.ErrNotFound).Once()

	w := serveThreats(t, m, http.MethodGet, "/api/threats/3")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Threat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "DDoS", got.Category)

	w = serveThreats(t, m, http.MethodGet, "/api/threats/4")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serveThreats(t, m, http.MethodGet, "/api/threats/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.AssertExpectations(t)
}

func TestThreatStatsHandler(t *testing.T) {
	m := new(mockThreats)
	m.On("Stats", mock.Anything).Return(&models.ThreatStats{
		Total:          3,
		CategoryCounts: []models.CategoryCount{{Category: "DDoS", Count: 3}},
		SeverityCounts: []models.SeverityCount{{Severity: 2, Count: 3}},
	}, nil).Once()

	w := serveThreats(t, m, http.MethodGet, "/api/threats/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"totalThreats": 3,
		"categoryCounts": [{"category": "DDoS", "count": 3}],
		"severityCounts": [{"severity": 2, "count": 3}]
	}`, w.Body.String())
	m.AssertExpectations(t)
}

func TestThreatsCatalogDisabled(t *testing.T) {
	m := new(mockThreats)
	m.On("Stats", mock.Anything).Return(nil, services.ErrCatalogDisabled).Once()

	w := serveThreats(t, m, http.MethodGet, "/api/threats/stats")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
