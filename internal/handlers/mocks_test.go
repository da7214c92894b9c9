package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/stwalsh4118/siteanalysis/internal/services"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// MockAnalysisService is a mock implementation of AnalysisService for testing
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeSite(ctx context.Context, req services.AnalyzeRequest) (*services.AnalysisResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) GetAnalysis(ctx context.Context, id int64) (*services.AnalysisResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) ListAnalyses(ctx context.Context, limit, offset int) ([]models.SiteAnalysis, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SiteAnalysis), args.Error(1)
}

func (m *MockAnalysisService) DeleteAnalysis(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAnalysisService) GetFeatures(ctx context.Context, id int64, featureType string) ([]models.EnvironmentalFeature, error) {
	args := m.Called(ctx, id, featureType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EnvironmentalFeature), args.Error(1)
}

func (m *MockAnalysisService) ExportAnalysis(ctx context.Context, id int64, format string) (*geojson.FeatureCollection, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geojson.FeatureCollection), args.Error(1)
}

func (m *MockAnalysisService) FeatureTypes() []models.FeatureTypeInfo {
	return m.Called().Get(0).([]models.FeatureTypeInfo)
}

// MockClimateService is a mock implementation of ClimateService for testing
type MockClimateService struct {
	mock.Mock
}

func (m *MockClimateService) GetClimateData(ctx context.Context, siteID int64) (*services.ClimateReport, error) {
	args := m.Called(ctx, siteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ClimateReport), args.Error(1)
}

func (m *MockClimateService) RefreshClimateData(ctx context.Context, siteID int64) (*services.ClimateReport, error) {
	args := m.Called(ctx, siteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ClimateReport), args.Error(1)
}

func (m *MockClimateService) FetchAndStore(ctx context.Context, site *models.SiteAnalysis) (*models.ClimateData, error) {
	args := m.Called(ctx, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClimateData), args.Error(1)
}

func (m *MockClimateService) Summary(ctx context.Context, lat, lon float64) (models.ClimateSummary, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(models.ClimateSummary), args.Error(1)
}
