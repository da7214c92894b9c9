package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/siteanalysis/internal/database"
	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// ClimateRepository defines data access for per-site climate records.
type ClimateRepository interface {
	// FindBySite returns nil, nil when the site has no climate record.
	FindBySite(ctx context.Context, siteID int64) (*models.ClimateData, error)

	// Upsert creates the site's record or overwrites its groups in place,
	// refreshing updated_at.
	Upsert(ctx context.Context, siteID int64, groups models.ClimateGroups) (*models.ClimateData, error)
}

type climateRepository struct {
	pool database.Pool
}

// NewClimateRepository creates a new ClimateRepository.
func NewClimateRepository(pool database.Pool) ClimateRepository {
	return &climateRepository{pool: pool}
}

const climateColumns = `
	id,
	site_analysis_id,
	temperature_data,
	precipitation_data,
	wind_data,
	solar_data,
	sources,
	epw_file_path,
	created_at,
	updated_at
`

func (r *climateRepository) FindBySite(ctx context.Context, siteID int64) (*models.ClimateData, error) {
	query := "SELECT" + climateColumns + "FROM climate_data WHERE site_analysis_id = $1"

	data, err := scanClimate(r.pool.QueryRow(ctx, query, siteID))
	if err != nil {
		// Handle no rows found - this is not an error at the repository level
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query climate data for site analysis %d: %w", siteID, err)
	}
	return data, nil
}

const upsertClimateSQL = `
	INSERT INTO climate_data (site_analysis_id, temperature_data, precipitation_data, wind_data, solar_data, sources)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (site_analysis_id) DO UPDATE SET
		temperature_data = EXCLUDED.temperature_data,
		precipitation_data = EXCLUDED.precipitation_data,
		wind_data = EXCLUDED.wind_data,
		solar_data = EXCLUDED.solar_data,
		sources = EXCLUDED.sources,
		updated_at = NOW()
	RETURNING` + climateColumns

func (r *climateRepository) Upsert(ctx context.Context, siteID int64, groups models.ClimateGroups) (*models.ClimateData, error) {
	// Groups are written as jsonb through their driver.Valuer
	data, err := scanClimate(r.pool.QueryRow(ctx, upsertClimateSQL,
		siteID,
		groups.Temperature,
		groups.Precipitation,
		groups.Wind,
		groups.Solar,
		groups.Sources,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert climate data for site analysis %d: %w", siteID, err)
	}
	return data, nil
}

func scanClimate(row pgx.Row) (*models.ClimateData, error) {
	var data models.ClimateData
	err := row.Scan(
		&data.ID,
		&data.SiteAnalysisID,
		&data.Temperature,
		&data.Precipitation,
		&data.Wind,
		&data.Solar,
		&data.Sources,
		&data.EPWFilePath,
		&data.CreatedAt,
		&data.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &data, nil
}
