package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/siteanalysis/internal/database"
	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// SiteRepository defines data access for site analyses.
type SiteRepository interface {
	// Create inserts site and fills in its ID and timestamps.
	Create(ctx context.Context, site *models.SiteAnalysis) error

	// FindByID returns nil, nil when no site has the given ID.
	FindByID(ctx context.Context, id int64) (*models.SiteAnalysis, error)

	// List returns sites newest first. An empty page is not an error.
	List(ctx context.Context, limit, offset int) ([]models.SiteAnalysis, error)

	// Delete removes a site together with its features and climate record.
	// It reports whether a row was deleted.
	Delete(ctx context.Context, id int64) (bool, error)
}

type siteRepository struct {
	pool database.Pool
}

// NewSiteRepository creates a new SiteRepository.
func NewSiteRepository(pool database.Pool) SiteRepository {
	return &siteRepository{pool: pool}
}

// Note: PostGIS functions expect (longitude, latitude) order.
const insertSiteSQL = `
	INSERT INTO site_analyses (name, location, radius)
	VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4)
	RETURNING id, created_at, updated_at
`

// Create inserts the site and fills in the generated ID and timestamps.
func (r *siteRepository) Create(ctx context.Context, site *models.SiteAnalysis) error {
	// Execute query - note: PostGIS uses (lng, lat) order
	err := r.pool.QueryRow(ctx, insertSiteSQL, site.Name, site.Longitude, site.Latitude, site.Radius).
		Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert site analysis %q: %w", site.Name, err)
	}
	return nil
}

const selectSiteColumns = `
	SELECT
		id,
		name,
		ST_Y(location) AS latitude,
		ST_X(location) AS longitude,
		radius,
		created_at,
		updated_at
	FROM site_analyses
`

func (r *siteRepository) FindByID(ctx context.Context, id int64) (*models.SiteAnalysis, error) {
	site, err := scanSite(r.pool.QueryRow(ctx, selectSiteColumns+"WHERE id = $1", id))
	if err != nil {
		// Handle no rows found - this is not an error at the repository level
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query site analysis %d: %w", id, err)
	}
	return &site, nil
}

func (r *siteRepository) List(ctx context.Context, limit, offset int) ([]models.SiteAnalysis, error) {
	rows, err := r.pool.Query(ctx, selectSiteColumns+"ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list site analyses: %w", err)
	}
	defer rows.Close()

	sites := []models.SiteAnalysis{}
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site analysis row: %w", err)
		}
		sites = append(sites, site)
	}
	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site analysis rows: %w", err)
	}
	return sites, nil
}

// Delete removes the site; features and climate data go with it via ON DELETE CASCADE.
func (r *siteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM site_analyses WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete site analysis %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanSite(row pgx.Row) (models.SiteAnalysis, error) {
	var site models.SiteAnalysis
	err := row.Scan(
		&site.ID,
		&site.Name,
		&site.Latitude,
		&site.Longitude,
		&site.Radius,
		&site.CreatedAt,
		&site.UpdatedAt,
	)
	return site, err
}
