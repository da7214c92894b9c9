package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/stwalsh4118/siteanalysis/internal/repository"
)

// MockSiteRepository is a mock implementation of SiteRepository for testing
type MockSiteRepository struct {
	mock.Mock
}

func (m *MockSiteRepository) Create(ctx context.Context, site *models.SiteAnalysis) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *MockSiteRepository) FindByID(ctx context.Context, id int64) (*models.SiteAnalysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SiteAnalysis), args.Error(1)
}

func (m *MockSiteRepository) List(ctx context.Context, limit, offset int) ([]models.SiteAnalysis, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SiteAnalysis), args.Error(1)
}

func (m *MockSiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockFeatureRepository is a mock implementation of FeatureRepository for testing
type MockFeatureRepository struct {
	mock.Mock
}

func (m *MockFeatureRepository) BulkInsert(ctx context.Context, siteID int64, records []models.FeatureRecord) (repository.BulkInsertResult, error) {
	args := m.Called(ctx, siteID, records)
	return args.Get(0).(repository.BulkInsertResult), args.Error(1)
}

func (m *MockFeatureRepository) ListBySite(ctx context.Context, siteID int64, featureType *models.FeatureType) ([]models.EnvironmentalFeature, error) {
	args := m.Called(ctx, siteID, featureType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EnvironmentalFeature), args.Error(1)
}

// MockClimateRepository is a mock implementation of ClimateRepository for testing
type MockClimateRepository struct {
	mock.Mock
}

func (m *MockClimateRepository) FindBySite(ctx context.Context, siteID int64) (*models.ClimateData, error) {
	args := m.Called(ctx, siteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClimateData), args.Error(1)
}

func (m *MockClimateRepository) Upsert(ctx context.Context, siteID int64, groups models.ClimateGroups) (*models.ClimateData, error) {
	args := m.Called(ctx, siteID, groups)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClimateData), args.Error(1)
}

// MockFeatureSource is a mock map-feature provider.
type MockFeatureSource struct {
	mock.Mock
}

func (m *MockFeatureSource) Features(ctx context.Context, lat, lon float64, radius int) ([]models.RawFeature, error) {
	args := m.Called(ctx, lat, lon, radius)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RawFeature), args.Error(1)
}

// MockClimateAggregator is a mock climate aggregator.
type MockClimateAggregator struct {
	mock.Mock
}

func (m *MockClimateAggregator) Aggregate(ctx context.Context, lat, lon float64) (models.ClimateGroups, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(models.ClimateGroups), args.Error(1)
}

func (m *MockClimateAggregator) Summary(ctx context.Context, lat, lon float64) (models.ClimateSummary, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(models.ClimateSummary), args.Error(1)
}

// MockClimateRecorder is a mock of the climate step run after an analysis.
type MockClimateRecorder struct {
	mock.Mock
}

func (m *MockClimateRecorder) FetchAndStore(ctx context.Context, site *models.SiteAnalysis) (*models.ClimateData, error) {
	args := m.Called(ctx, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClimateData), args.Error(1)
}
