package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/metrics"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/stwalsh4118/siteanalysis/internal/repository"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Radius validation constants
const (
	MinRadiusMeters     = 100
	MaxRadiusMeters     = 2000
	DefaultRadiusMeters = 500
	MaxSiteNameLength   = 200
)

// ExportFormatGeoJSON is the only supported export format.
const ExportFormatGeoJSON = "geojson"

// Service-level errors
var (
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrInvalidRadius       = errors.New("radius must be between 100 and 2000 meters")
	ErrInvalidName         = errors.New("name must be at most 200 characters")
	ErrSiteNotFound        = errors.New("site analysis not found")
	ErrInvalidFeatureType  = errors.New("invalid feature type")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
	ErrClimateDataNotFound = errors.New("climate data not available")
)

// AnalyzeRequest describes a new site analysis. Zero Radius and empty Name
// take their defaults.
type AnalyzeRequest struct {
	Name      string
	Latitude  float64
	Longitude float64
	Radius    int
}

// AnalysisResult is a stored site with its feature summary.
type AnalysisResult struct {
	Site          *models.SiteAnalysis
	Summary       models.AnalysisSummary
	FeaturesCount int
}

// ClimateRecorder fetches and stores climate data for a newly created site.
type ClimateRecorder interface {
	FetchAndStore(ctx context.Context, site *models.SiteAnalysis) (*models.ClimateData, error)
}

// AnalysisService defines the site analysis operations.
type AnalysisService interface {
	// AnalyzeSite extracts features around a point, stores the site and its
	// features, then fetches climate data. Climate failures are logged and do
	// not fail the analysis.
	AnalyzeSite(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error)

	// GetAnalysis returns ErrSiteNotFound for unknown ids.
	GetAnalysis(ctx context.Context, id int64) (*AnalysisResult, error)

	// ListAnalyses returns sites newest first.
	ListAnalyses(ctx context.Context, limit, offset int) ([]models.SiteAnalysis, error)

	// DeleteAnalysis removes a site with its features and climate data.
	DeleteAnalysis(ctx context.Context, id int64) error

	// GetFeatures lists a site's features, optionally filtered by type.
	GetFeatures(ctx context.Context, id int64, featureType string) ([]models.EnvironmentalFeature, error)

	// ExportAnalysis renders a site's features in the requested format.
	ExportAnalysis(ctx context.Context, id int64, format string) (*geojson.FeatureCollection, error)

	// FeatureTypes lists the feature categories in catalogue order.
	FeatureTypes() []models.FeatureTypeInfo
}

type analysisService struct {
	extractor *Extractor
	sites     repository.SiteRepository
	features  repository.FeatureRepository
	climate   ClimateRecorder
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewAnalysisService creates an AnalysisService. climate may be nil, in which
// case analyses are stored without climate data.
func NewAnalysisService(
	extractor *Extractor,
	sites repository.SiteRepository,
	features repository.FeatureRepository,
	climate ClimateRecorder,
	log *logger.Logger,
	m *metrics.Metrics,
) AnalysisService {
	return &analysisService{
		extractor: extractor,
		sites:     sites,
		features:  features,
		climate:   climate,
		log:       log,
		metrics:   m,
	}
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	// Validate latitude range
	if lat < MinLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: latitude must be between %.0f and %.0f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, lat)
	}
	// Validate longitude range
	if lon < MinLongitude || lon > MaxLongitude {
		return fmt.Errorf("%w: longitude must be between %.0f and %.0f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, lon)
	}
	return nil
}

// AnalyzeSite validates the request, extracts features around the point,
// stores the site with its features and climate record, and returns the
// summary.
func (s *analysisService) AnalyzeSite(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error) {
	if err := ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		s.log.Warn("Invalid coordinates provided", logger.Fields{
			"latitude":  req.Latitude,
			"longitude": req.Longitude,
		})
		return nil, err
	}

	// Apply default radius and validate range
	radius := req.Radius
	if radius == 0 {
		radius = DefaultRadiusMeters
	}
	if radius < MinRadiusMeters || radius > MaxRadiusMeters {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidRadius, radius)
	}

	// Default the name to the coordinates
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = models.DefaultSiteName(req.Latitude, req.Longitude)
	}
	if len([]rune(name)) > MaxSiteNameLength {
		return nil, ErrInvalidName
	}

	s.log.Info("Starting site analysis", logger.Fields{
		"name":      name,
		"latitude":  req.Latitude,
		"longitude": req.Longitude,
		"radius":    radius,
	})

	// Extract before storing anything so a provider failure leaves no site behind.
	records, err := s.extractor.Extract(ctx, req.Latitude, req.Longitude, radius)
	if err != nil {
		return nil, err
	}

	// Persist the site, then its features
	site := &models.SiteAnalysis{
		Name:      name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    radius,
	}
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, fmt.Errorf("failed to create site analysis: %w", err)
	}

	result, err := s.features.BulkInsert(ctx, site.ID, records)
	if err != nil {
		// Best effort: do not leave a site without its features
		if _, delErr := s.sites.Delete(ctx, site.ID); delErr != nil {
			s.log.Error("Failed to remove site after feature insert failure", delErr, logger.Fields{
				"analysis_id": site.ID,
			})
		}
		return nil, fmt.Errorf("failed to store features: %w", err)
	}
	s.metrics.AddPersisted(result.Inserted)
	s.metrics.AddSkipped("invalid_geometry", result.Invalid)
	s.metrics.AddSkipped("duplicate", result.Duplicates)

	// Climate data is optional; a failure here does not fail the analysis
	if s.climate != nil {
		if _, err := s.climate.FetchAndStore(ctx, site); err != nil {
			s.log.Warn("Climate data unavailable for new analysis", logger.Fields{
				"analysis_id": site.ID,
				"error":       err.Error(),
			})
		}
	}

	analysis, err := s.summarize(ctx, site)
	if err != nil {
		return nil, err
	}

	// Success - log and return summary
	s.log.Info("Site analysis complete", logger.Fields{
		"analysis_id":    site.ID,
		"inserted":       result.Inserted,
		"invalid":        result.Invalid,
		"duplicates":     result.Duplicates,
		"features_count": analysis.FeaturesCount,
	})
	return analysis, nil
}

// GetAnalysis returns a stored analysis with its recomputed summary.
func (s *analysisService) GetAnalysis(ctx context.Context, id int64) (*AnalysisResult, error) {
	site, err := s.findSite(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, site)
}

// ListAnalyses returns a page of analyses, newest first.
func (s *analysisService) ListAnalyses(ctx context.Context, limit, offset int) ([]models.SiteAnalysis, error) {
	sites, err := s.sites.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list site analyses: %w", err)
	}
	return sites, nil
}

// DeleteAnalysis removes an analysis together with its features and climate record.
func (s *analysisService) DeleteAnalysis(ctx context.Context, id int64) error {
	deleted, err := s.sites.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete site analysis: %w", err)
	}
	// Repository reports false when no row matched - transform to domain error
	if !deleted {
		return fmt.Errorf("%w: id %d", ErrSiteNotFound, id)
	}
	s.log.Info("Deleted site analysis", logger.Fields{"analysis_id": id})
	return nil
}

// GetFeatures lists the features of an analysis, optionally filtered by type.
func (s *analysisService) GetFeatures(ctx context.Context, id int64, featureType string) ([]models.EnvironmentalFeature, error) {
	// Validate the filter before touching the database
	var filter *models.FeatureType
	if featureType != "" {
		ft, err := models.ParseFeatureType(featureType)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFeatureType, featureType)
		}
		filter = &ft
	}

	if _, err := s.findSite(ctx, id); err != nil {
		return nil, err
	}

	// Query repository
	features, err := s.features.ListBySite(ctx, id, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	return features, nil
}

// ExportAnalysis renders the features of an analysis as a GeoJSON
// FeatureCollection. The site is checked before the format.
func (s *analysisService) ExportAnalysis(ctx context.Context, id int64, format string) (*geojson.FeatureCollection, error) {
	site, err := s.findSite(ctx, id)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(format, ExportFormatGeoJSON) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, format, ExportFormatGeoJSON)
	}

	features, err := s.features.ListBySite(ctx, site.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}

	// Flatten tags into properties and tag each feature with its analysis
	collection := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(features))}
	for _, f := range features {
		properties := f.Properties.Map()
		properties["feature_type"] = string(f.FeatureType)
		properties["analysis_id"] = site.ID
		collection.Features = append(collection.Features, &geojson.Feature{
			ID:         strconv.FormatInt(f.OSMID, 10),
			Geometry:   f.Geometry.T,
			Properties: properties,
		})
	}
	return collection, nil
}

// FeatureTypes returns the feature type catalogue.
func (s *analysisService) FeatureTypes() []models.FeatureTypeInfo {
	types := make([]models.FeatureTypeInfo, 0, len(models.FeatureTypes))
	for _, t := range models.FeatureTypes {
		types = append(types, models.FeatureTypeInfo{Value: t, Description: t.Description()})
	}
	return types
}

func (s *analysisService) findSite(ctx context.Context, id int64) (*models.SiteAnalysis, error) {
	site, err := s.sites.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load site analysis", err, logger.Fields{"analysis_id": id})
		return nil, fmt.Errorf("failed to load site analysis: %w", err)
	}
	// Repository returns nil, nil when no site found - transform to domain error
	if site == nil {
		return nil, fmt.Errorf("%w: id %d", ErrSiteNotFound, id)
	}
	return site, nil
}

func (s *analysisService) summarize(ctx context.Context, site *models.SiteAnalysis) (*AnalysisResult, error) {
	features, err := s.features.ListBySite(ctx, site.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load features for summary: %w", err)
	}
	return &AnalysisResult{
		Site:          site,
		Summary:       Summarize(site, features),
		FeaturesCount: len(features),
	}, nil
}
