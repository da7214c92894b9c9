package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/twpayne/go-geom"
)

var stageColumnNames = []string{"site_analysis_id", "feature_type", "osm_id", "geometry_wkt", "properties"}

func expectStagedInsert(mock pgxmock.PgxPoolIface, staged, inserted int64) {
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_environmental_features"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_environmental_features"}, stageColumnNames).
		WillReturnResult(staged)
	mock.ExpectExec(`INSERT INTO "environmental_features" .* ST_GeomFromText\(geometry_wkt, 4326\), properties::jsonb .* ON CONFLICT \("site_analysis_id", "osm_id"\) DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", inserted))
	mock.ExpectCommit()
}

func record(osmID int64, wkt string, ft models.FeatureType) models.FeatureRecord {
	return models.FeatureRecord{
		OSMID:       osmID,
		FeatureType: ft,
		GeometryWKT: wkt,
		Properties:  models.Tags{string(ft): models.StringTag("x")},
	}
}

func TestFeatureRepository_BulkInsert(t *testing.T) {
	mock := newMockPool(t)
	expectStagedInsert(mock, 2, 2)

	records := []models.FeatureRecord{
		record(1, "POLYGON ((0 0, 1 0, 1 1, 0 0))", models.FeatureTypeLanduse),
		record(2, "POINT (-97.74 30.27)", models.FeatureTypeNatural),
	}
	result, err := NewFeatureRepository(mock, logger.Nop()).BulkInsert(context.Background(), 9, records)

	require.NoError(t, err)
	assert.Equal(t, BulkInsertResult{Inserted: 2}, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeatureRepository_BulkInsertSkipsInvalidAndDuplicates(t *testing.T) {
	mock := newMockPool(t)
	// one row already stored for this site
	expectStagedInsert(mock, 2, 1)

	records := []models.FeatureRecord{
		record(1, "POINT (1 2)", models.FeatureTypeNatural),
		record(2, "POLYGON ((broken", models.FeatureTypeLanduse),
		record(1, "POINT (1 2)", models.FeatureTypeNatural),
		record(3, "LINESTRING (0 0, 1 1)", models.FeatureTypeHighway),
	}
	result, err := NewFeatureRepository(mock, logger.Nop()).BulkInsert(context.Background(), 9, records)

	require.NoError(t, err)
	assert.Equal(t, BulkInsertResult{Inserted: 1, Invalid: 1, Duplicates: 1}, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeatureRepository_BulkInsertNothingValid(t *testing.T) {
	mock := newMockPool(t)

	result, err := NewFeatureRepository(mock, logger.Nop()).BulkInsert(context.Background(), 9, []models.FeatureRecord{
		record(1, "", models.FeatureTypeOther),
	})

	require.NoError(t, err)
	assert.Equal(t, BulkInsertResult{Invalid: 1}, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeatureRepository_BulkInsertFailureRollsBack(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_environmental_features"}, stageColumnNames).WillReturnResult(1)
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New(`violates foreign key constraint`))
	mock.ExpectRollback()

	_, err := NewFeatureRepository(mock, logger.Nop()).BulkInsert(context.Background(), 9, []models.FeatureRecord{
		record(1, "POINT (1 2)", models.FeatureTypeNatural),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "site analysis 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeatureRow(t *testing.T) {
	row, err := featureRow(4, record(11, "POINT(1 2)", models.FeatureTypeNatural))
	require.NoError(t, err)

	assert.Equal(t, int64(4), row[0])
	assert.Equal(t, "natural", row[1])
	assert.Equal(t, int64(11), row[2])
	assert.Equal(t, "POINT (1 2)", row[3])
	assert.JSONEq(t, `{"natural":"x"}`, row[4].(string))

	_, err = featureRow(4, record(12, "POINT EMPTY", models.FeatureTypeNatural))
	assert.Error(t, err)
}

var featureColumns = []string{"id", "site_analysis_id", "feature_type", "osm_id", "geometry", "properties", "created_at"}

func TestFeatureRepository_ListBySite(t *testing.T) {
	mock := newMockPool(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM environmental_features\s+WHERE site_analysis_id = \$1\s+ORDER BY id`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(featureColumns).
			AddRow(int64(1), int64(9), "landuse", int64(100),
				[]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`),
				[]byte(`{"landuse":"grass","lanes":2,"area":true}`), now).
			AddRow(int64(2), int64(9), "natural", int64(101),
				[]byte(`{"type":"Point","coordinates":[-97.7,30.2]}`),
				[]byte(`{}`), now))

	features, err := NewFeatureRepository(mock, logger.Nop()).ListBySite(context.Background(), 9, nil)

	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, models.FeatureTypeLanduse, features[0].FeatureType)
	assert.Equal(t, int64(100), features[0].OSMID)
	assert.IsType(t, &geom.Polygon{}, features[0].Geometry.T)
	assert.Equal(t, models.StringTag("grass"), features[0].Properties.Get("landuse"))
	assert.Equal(t, models.NumberTag(2), features[0].Properties.Get("lanes"))
	assert.Equal(t, models.BoolTag(true), features[0].Properties.Get("area"))
	assert.IsType(t, &geom.Point{}, features[1].Geometry.T)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeatureRepository_ListBySiteFiltered(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery(`AND feature_type = \$2`).
		WithArgs(int64(9), "natural").
		WillReturnRows(pgxmock.NewRows(featureColumns))

	natural := models.FeatureTypeNatural
	features, err := NewFeatureRepository(mock, logger.Nop()).ListBySite(context.Background(), 9, &natural)

	require.NoError(t, err)
	assert.Empty(t, features)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeatureRepository_ListBySiteBadGeometry(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("FROM environmental_features").
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(featureColumns).
			AddRow(int64(1), int64(9), "landuse", int64(100), []byte(`not-geojson`), []byte(`{}`), time.Now()))

	_, err := NewFeatureRepository(mock, logger.Nop()).ListBySite(context.Background(), 9, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature 1")
}
