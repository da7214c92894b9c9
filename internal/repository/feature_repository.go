package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/siteanalysis/internal/database"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// BulkInsertResult reports what happened to a batch of feature records.
type BulkInsertResult struct {
	// Inserted counts new rows; duplicates of stored (site, osm_id) pairs are not included.
	Inserted int64
	// Invalid counts records dropped because their geometry could not be parsed.
	Invalid int
	// Duplicates counts records dropped because the batch already held their osm_id.
	Duplicates int
}

// FeatureRepository defines data access for environmental features.
type FeatureRepository interface {
	// BulkInsert stores records for a site in one transaction. Rows whose
	// (site, osm_id) already exist are ignored.
	BulkInsert(ctx context.Context, siteID int64, records []models.FeatureRecord) (BulkInsertResult, error)

	// ListBySite returns a site's features, optionally restricted to one type.
	ListBySite(ctx context.Context, siteID int64, featureType *models.FeatureType) ([]models.EnvironmentalFeature, error)
}

type featureRepository struct {
	pool   database.Pool
	logger *logger.Logger
}

// NewFeatureRepository creates a new FeatureRepository.
func NewFeatureRepository(pool database.Pool, log *logger.Logger) FeatureRepository {
	return &featureRepository{
		pool:   pool,
		logger: log.WithComponent("feature_repository"),
	}
}

var featureInsert = database.StagedInsert{
	Table: "environmental_features",
	Stage: "_stage_environmental_features",
	StageColumns: []database.StageColumn{
		{Name: "site_analysis_id", Type: "bigint"},
		{Name: "feature_type", Type: "text"},
		{Name: "osm_id", Type: "bigint"},
		{Name: "geometry_wkt", Type: "text"},
		{Name: "properties", Type: "text"},
	},
	Columns:      []string{"site_analysis_id", "feature_type", "osm_id", "geometry", "properties"},
	Select:       "site_analysis_id, feature_type, osm_id, ST_GeomFromText(geometry_wkt, 4326), properties::jsonb",
	ConflictKeys: []string{"site_analysis_id", "osm_id"},
}

func (r *featureRepository) BulkInsert(ctx context.Context, siteID int64, records []models.FeatureRecord) (BulkInsertResult, error) {
	var result BulkInsertResult
	seen := make(map[int64]struct{}, len(records))
	rows := make([][]any, 0, len(records))

	// Validate geometries and drop in-batch duplicates before COPY
	for _, rec := range records {
		row, err := featureRow(siteID, rec)
		if err != nil {
			result.Invalid++
			r.logger.Warn("Skipping feature with invalid geometry", logger.Fields{
				"site_analysis_id": siteID,
				"osm_id":           rec.OSMID,
				"error":            err.Error(),
			})
			continue
		}
		if _, dup := seen[rec.OSMID]; dup {
			result.Duplicates++
			continue
		}
		seen[rec.OSMID] = struct{}{}
		rows = append(rows, row)
	}

	// Rows already stored for this site are skipped by ON CONFLICT
	inserted, err := database.InsertIgnoringConflicts(ctx, r.pool, featureInsert, rows)
	if err != nil {
		return result, fmt.Errorf("failed to insert features for site analysis %d: %w", siteID, err)
	}
	result.Inserted = inserted
	return result, nil
}

// featureRow re-renders the geometry through go-geom so malformed WKT is
// rejected here rather than aborting the whole COPY.
func featureRow(siteID int64, rec models.FeatureRecord) ([]any, error) {
	g, err := models.ParseWKT(rec.GeometryWKT)
	if err != nil {
		return nil, err
	}
	if g.IsEmpty() {
		return nil, fmt.Errorf("empty geometry")
	}
	wkt, err := g.WKT()
	if err != nil {
		return nil, err
	}
	props, err := rec.Properties.Value()
	if err != nil {
		return nil, err
	}
	return []any{siteID, string(rec.FeatureType), rec.OSMID, wkt, props}, nil
}

const selectFeaturesSQL = `
	SELECT
		id,
		site_analysis_id,
		feature_type,
		osm_id,
		ST_AsGeoJSON(geometry) AS geometry,
		properties,
		created_at
	FROM environmental_features
	WHERE site_analysis_id = $1
`

func (r *featureRepository) ListBySite(ctx context.Context, siteID int64, featureType *models.FeatureType) ([]models.EnvironmentalFeature, error) {
	query := selectFeaturesSQL
	args := []any{siteID}
	if featureType != nil {
		query += " AND feature_type = $2"
		args = append(args, string(*featureType))
	}
	query += " ORDER BY id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query features for site analysis %d: %w", siteID, err)
	}
	defer rows.Close()

	features := []models.EnvironmentalFeature{}
	for rows.Next() {
		var f models.EnvironmentalFeature
		var geomJSON []byte
		var propsJSON []byte

		if err := rows.Scan(
			&f.ID,
			&f.SiteAnalysisID,
			&f.FeatureType,
			&f.OSMID,
			&geomJSON,
			&propsJSON,
			&f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}

		// Parse GeoJSON geometry and jsonb tags
		if err := f.Geometry.Scan(geomJSON); err != nil {
			return nil, fmt.Errorf("failed to parse geometry for feature %d: %w", f.ID, err)
		}
		if err := f.Properties.Scan(propsJSON); err != nil {
			return nil, fmt.Errorf("failed to parse properties for feature %d: %w", f.ID, err)
		}
		features = append(features, f)
	}
	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feature rows: %w", err)
	}
	return features, nil
}
