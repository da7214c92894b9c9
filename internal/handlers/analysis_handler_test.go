package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/siteanalysis/internal/errors"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/middleware"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/stwalsh4118/siteanalysis/internal/services"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func init() {
	gin.SetMode(gin.TestMode)
	apierrors.RegisterValidator()
}

// setupEnvironmentalRouter creates a test router with middleware and the
// analysis and climate routes.
func setupEnvironmentalRouter(analysis *MockAnalysisService, climate *MockClimateService) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Nop()))
	RegisterEnvironmentalRoutes(router, NewAnalysisHandler(analysis), NewClimateHandler(climate))
	return router
}

func doJSON(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorDetail {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func sampleResult() *services.AnalysisResult {
	site := &models.SiteAnalysis{
		ID:        12,
		Name:      "Creek side",
		Latitude:  30.5,
		Longitude: -95.25,
		Radius:    500,
		CreatedAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	return &services.AnalysisResult{
		Site: site,
		Summary: models.AnalysisSummary{
			FeatureCounts:     map[models.FeatureType]int{models.FeatureTypeLanduse: 3, models.FeatureTypeNatural: 2},
			CenterCoordinates: site.Coordinates(),
			TotalFeatures:     5,
			AnalysisRadius:    500,
		},
		FeaturesCount: 5,
	}
}

func TestAnalysisHandler_Analyze_Success(t *testing.T) {
	analysis := new(MockAnalysisService)
	router := setupEnvironmentalRouter(analysis, new(MockClimateService))

	analysis.On("AnalyzeSite", mock.Anything, services.AnalyzeRequest{
		Name:      "Creek side",
		Latitude:  30.5,
		Longitude: -95.25,
	}).Return(sampleResult(), nil)

	w := doJSON(router, http.MethodPost, "/api/v1/environmental/analyze", map[string]interface{}{
		"latitude":  30.5,
		"longitude": -95.25,
		"name":      "Creek side",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(12), resp.ID)
	assert.Equal(t, 5, resp.FeaturesCount)
	assert.Equal(t, 3, resp.Summary.FeatureCounts[models.FeatureTypeLanduse])
	assert.Equal(t, models.Coordinates{Latitude: 30.5, Longitude: -95.25}, resp.Coordinates)
	analysis.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_ZeroCoordinatesAccepted(t *testing.T) {
	analysis := new(MockAnalysisService)
	router := setupEnvironmentalRouter(analysis, new(MockClimateService))
	analysis.On("AnalyzeSite", mock.Anything, services.AnalyzeRequest{Radius: 300}).Return(sampleResult(), nil)

	w := doJSON(router, http.MethodPost, "/api/v1/environmental/analyze", map[string]interface{}{
		"latitude":  0,
		"longitude": 0,
		"radius":    300,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAnalysisHandler_Analyze_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{name: "missing latitude", body: map[string]interface{}{"longitude": 1}, field: "latitude"},
		{name: "latitude out of range", body: map[string]interface{}{"latitude": 91, "longitude": 1}, field: "latitude"},
		{name: "longitude out of range", body: map[string]interface{}{"latitude": 1, "longitude": 200}, field: "longitude"},
		{name: "radius too small", body: map[string]interface{}{"latitude": 1, "longitude": 1, "radius": 50}, field: "radius"},
		{name: "radius too large", body: map[string]interface{}{"latitude": 1, "longitude": 1, "radius": 2500}, field: "radius"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := new(MockAnalysisService)
			router := setupEnvironmentalRouter(analysis, new(MockClimateService))

			w := doJSON(router, http.MethodPost, "/api/v1/environmental/analyze", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			detail := decodeError(t, w)
			assert.Equal(t, apierrors.ErrValidation, detail.Code)
			assert.Contains(t, detail.Details, tt.field)
			analysis.AssertNotCalled(t, "AnalyzeSite", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalysisHandler_Analyze_MalformedBody(t *testing.T) {
	router := setupEnvironmentalRouter(new(MockAnalysisService), new(MockClimateService))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/environmental/analyze", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrBadRequest, decodeError(t, w).Code)
}

func TestAnalysisHandler_Analyze_ExtractionFailure(t *testing.T) {
	analysis := new(MockAnalysisService)
	router := setupEnvironmentalRouter(analysis, new(MockClimateService))
	analysis.On("AnalyzeSite", mock.Anything, mock.Anything).
		Return(nil, errors.New("feature extraction failed: overpass API error: status 504: gateway timeout"))

	w := doJSON(router, http.MethodPost, "/api/v1/environmental/analyze", map[string]interface{}{
		"latitude": 1, "longitude": 1,
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	detail := decodeError(t, w)
	assert.Equal(t, apierrors.ErrInternalServer, detail.Code)
	assert.Contains(t, detail.Message, "gateway timeout")
	assert.NotEmpty(t, detail.RequestID)
}

func TestAnalysisHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setup          func(*MockAnalysisService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "found",
			path: "/api/v1/environmental/analysis/12",
			setup: func(m *MockAnalysisService) {
				m.On("GetAnalysis", mock.Anything, int64(12)).Return(sampleResult(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/api/v1/environmental/analysis/99",
			setup: func(m *MockAnalysisService) {
				m.On("GetAnalysis", mock.Anything, int64(99)).Return(nil, fmt.Errorf("%w: id 99", services.ErrSiteNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   apierrors.ErrNotFound,
		},
		{
			name:           "invalid id",
			path:           "/api/v1/environmental/analysis/abc",
			setup:          func(*MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrBadRequest,
		},
		{
			name: "database failure",
			path: "/api/v1/environmental/analysis/12",
			setup: func(m *MockAnalysisService) {
				m.On("GetAnalysis", mock.Anything, int64(12)).Return(nil, errors.New("conn closed"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   apierrors.ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := new(MockAnalysisService)
			tt.setup(analysis)
			router := setupEnvironmentalRouter(analysis, new(MockClimateService))

			w := doJSON(router, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			}
		})
	}
}

func TestAnalysisHandler_List(t *testing.T) {
	analysis := new(MockAnalysisService)
	router := setupEnvironmentalRouter(analysis, new(MockClimateService))
	analysis.On("ListAnalyses", mock.Anything, DefaultListLimit, 0).Return([]models.SiteAnalysis{{ID: 2}, {ID: 1}}, nil)
	analysis.On("ListAnalyses", mock.Anything, 5, 10).Return([]models.SiteAnalysis{}, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/environmental/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, DefaultListLimit, resp.Limit)

	w = doJSON(router, http.MethodGet, "/api/v1/environmental/analysis?limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/environmental/analysis?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	analysis.AssertExpectations(t)
}

func TestAnalysisHandler_Delete(t *testing.T) {
	analysis := new(MockAnalysisService)
	router := setupEnvironmentalRouter(analysis, new(MockClimateService))
	analysis.On("DeleteAnalysis", mock.Anything, int64(3)).Return(nil)
	analysis.On("DeleteAnalysis", mock.Anything, int64(4)).Return(services.ErrSiteNotFound)

	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/api/v1/environmental/analysis/3", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/api/v1/environmental/analysis/4", nil).Code)
}

func TestAnalysisHandler_Features(t *testing.T) {
	analysis := new(MockAnalysisService)
	router := setupEnvironmentalRouter(analysis, new(MockClimateService))
	features := []models.EnvironmentalFeature{{
		ID:          1,
		OSMID:       77,
		FeatureType: models.FeatureTypeNatural,
		Properties:  models.Tags{"natural": models.StringTag("wood")},
		Geometry:    models.NewGeometry(geom.NewPointFlat(geom.XY, []float64{1, 2})),
	}}
	analysis.On("GetFeatures", mock.Anything, int64(12), "natural").Return(features, nil)
	analysis.On("GetFeatures", mock.Anything, int64(12), "lava").
		Return(nil, fmt.Errorf("%w: lava", services.ErrInvalidFeatureType))

	w := doJSON(router, http.MethodGet, "/api/v1/environmental/analysis/12/features?feature_type=natural", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(12), resp["analysis_id"])
	assert.Equal(t, "natural", resp["feature_type"])
	assert.Equal(t, float64(1), resp["count"])

	w = doJSON(router, http.MethodGet, "/api/v1/environmental/analysis/12/features?feature_type=lava", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysisHandler_Export(t *testing.T) {
	analysis := new(MockAnalysisService)
	router := setupEnvironmentalRouter(analysis, new(MockClimateService))
	collection := &geojson.FeatureCollection{Features: []*geojson.Feature{{
		ID:         "77",
		Geometry:   geom.NewPointFlat(geom.XY, []float64{1, 2}),
		Properties: map[string]interface{}{"feature_type": "natural", "analysis_id": int64(12)},
	}}}
	analysis.On("ExportAnalysis", mock.Anything, int64(12), "geojson").Return(collection, nil)
	analysis.On("ExportAnalysis", mock.Anything, int64(12), "kml").
		Return(nil, fmt.Errorf("%w: \"kml\" (supported: geojson)", services.ErrUnsupportedFormat))

	w := doJSON(router, http.MethodGet, "/api/v1/environmental/analysis/12/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "FeatureCollection", body["type"])

	w = doJSON(router, http.MethodGet, "/api/v1/environmental/analysis/12/export?format=kml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	detail := decodeError(t, w)
	assert.Contains(t, detail.Message, "geojson")
	assert.Contains(t, detail.Details, "supported_formats")
}

func TestAnalysisHandler_FeatureTypes(t *testing.T) {
	analysis := new(MockAnalysisService)
	router := setupEnvironmentalRouter(analysis, new(MockClimateService))
	analysis.On("FeatureTypes").Return([]models.FeatureTypeInfo{
		{Value: models.FeatureTypeLanduse, Description: "Land Use"},
		{Value: models.FeatureTypeHighway, Description: "Transportation"},
	})

	w := doJSON(router, http.MethodGet, "/api/v1/environmental/features/types", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp FeatureTypesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"landuse", "highway"}, resp.FeatureTypes)
	assert.Equal(t, "Transportation", resp.Descriptions["highway"])
}
