package services

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/stwalsh4118/siteanalysis/internal/repository"
)

// ClimateAggregator produces merged climate groups and ad-hoc summaries.
// *climate.Aggregator satisfies it.
type ClimateAggregator interface {
	Aggregate(ctx context.Context, lat, lon float64) (models.ClimateGroups, error)
	Summary(ctx context.Context, lat, lon float64) (models.ClimateSummary, error)
}

// ClimateReport pairs a site with its stored climate record.
type ClimateReport struct {
	Site *models.SiteAnalysis
	Data *models.ClimateData
}

// ClimateService manages per-site climate records.
type ClimateService interface {
	// GetClimateData returns ErrSiteNotFound for unknown sites and
	// ErrClimateDataNotFound when the site has no climate record yet.
	GetClimateData(ctx context.Context, siteID int64) (*ClimateReport, error)

	// RefreshClimateData re-aggregates and overwrites the site's record.
	RefreshClimateData(ctx context.Context, siteID int64) (*ClimateReport, error)

	// FetchAndStore aggregates climate data for site and upserts it.
	FetchAndStore(ctx context.Context, site *models.SiteAnalysis) (*models.ClimateData, error)

	// Summary reports climate for an arbitrary coordinate without storing it.
	Summary(ctx context.Context, lat, lon float64) (models.ClimateSummary, error)
}

type climateService struct {
	aggregator ClimateAggregator
	sites      repository.SiteRepository
	records    repository.ClimateRepository
	log        *logger.Logger
}

// NewClimateService creates a ClimateService.
func NewClimateService(
	aggregator ClimateAggregator,
	sites repository.SiteRepository,
	records repository.ClimateRepository,
	log *logger.Logger,
) ClimateService {
	return &climateService{
		aggregator: aggregator,
		sites:      sites,
		records:    records,
		log:        log,
	}
}

// GetClimateData returns the stored climate record of an analysis.
func (s *climateService) GetClimateData(ctx context.Context, siteID int64) (*ClimateReport, error) {
	site, err := s.findSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	// Query repository
	data, err := s.records.FindBySite(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load climate data: %w", err)
	}

	// The site exists but climate data was never stored
	if data == nil {
		return nil, fmt.Errorf("%w for analysis %d", ErrClimateDataNotFound, siteID)
	}
	return &ClimateReport{Site: site, Data: data}, nil
}

// RefreshClimateData re-fetches and replaces the climate record of an analysis.
func (s *climateService) RefreshClimateData(ctx context.Context, siteID int64) (*ClimateReport, error) {
	site, err := s.findSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	data, err := s.FetchAndStore(ctx, site)
	if err != nil {
		return nil, err
	}
	return &ClimateReport{Site: site, Data: data}, nil
}

// FetchAndStore aggregates climate data for the site and upserts it.
func (s *climateService) FetchAndStore(ctx context.Context, site *models.SiteAnalysis) (*models.ClimateData, error) {
	// Aggregate from live providers with synthetic fallback
	groups, err := s.aggregator.Aggregate(ctx, site.Latitude, site.Longitude)
	if err != nil {
		s.log.Error("Climate aggregation failed", err, logger.Fields{"analysis_id": site.ID})
		return nil, fmt.Errorf("failed to aggregate climate data: %w", err)
	}

	// One record per site; refreshes replace the previous one
	data, err := s.records.Upsert(ctx, site.ID, groups)
	if err != nil {
		return nil, fmt.Errorf("failed to store climate data: %w", err)
	}

	s.log.Info("Stored climate data", logger.Fields{
		"analysis_id":       site.ID,
		"current_source":    groups.Sources.Current,
		"historical_source": groups.Sources.Historical,
	})
	return data, nil
}

// Summary builds an ad-hoc climate summary for a coordinate without storing it.
func (s *climateService) Summary(ctx context.Context, lat, lon float64) (models.ClimateSummary, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return models.ClimateSummary{}, err
	}
	summary, err := s.aggregator.Summary(ctx, lat, lon)
	if err != nil {
		return models.ClimateSummary{}, fmt.Errorf("failed to build climate summary: %w", err)
	}
	return summary, nil
}

func (s *climateService) findSite(ctx context.Context, id int64) (*models.SiteAnalysis, error) {
	site, err := s.sites.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load site analysis: %w", err)
	}
	// Repository returns nil, nil when no site found - transform to domain error
	if site == nil {
		return nil, fmt.Errorf("%w: id %d", ErrSiteNotFound, id)
	}
	return site, nil
}
