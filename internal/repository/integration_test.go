package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/siteanalysis/internal/config"
	"github.com/stwalsh4118/siteanalysis/internal/database"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "host.docker.internal"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "siteanalysis_test"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  1,
		PoolMax:  4,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDatabase connects to a real PostGIS database and applies migrations.
func setupTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Skipf("Database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	_, err = database.Migrate(ctx, db.Pool, logger.Nop())
	require.NoError(t, err)
	return db
}

func TestSiteLifecycle_Integration(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	sites := NewSiteRepository(db.Pool)
	features := NewFeatureRepository(db.Pool, logger.Nop())
	climate := NewClimateRepository(db.Pool)

	site := &models.SiteAnalysis{Name: "Integration site", Latitude: 30.3477, Longitude: -95.4502, Radius: 500}
	require.NoError(t, sites.Create(ctx, site))
	require.NotZero(t, site.ID)
	defer func() { _, _ = sites.Delete(ctx, site.ID) }()

	found, err := sites.FindByID(ctx, site.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.InDelta(t, 30.3477, found.Latitude, 1e-9)
	assert.InDelta(t, -95.4502, found.Longitude, 1e-9)

	records := []models.FeatureRecord{
		record(1, "POLYGON ((-95.451 30.348, -95.449 30.348, -95.449 30.347, -95.451 30.348))", models.FeatureTypeLanduse),
		record(2, "POINT (-95.45 30.347)", models.FeatureTypeNatural),
		record(3, "not wkt", models.FeatureTypeOther),
	}

	first, err := features.BulkInsert(ctx, site.ID, records)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Inserted)
	assert.Equal(t, 1, first.Invalid)

	// Re-ingesting the same batch is a no-op.
	second, err := features.BulkInsert(ctx, site.ID, records)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Inserted)

	stored, err := features.ListBySite(ctx, site.ID, nil)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	natural := models.FeatureTypeNatural
	filtered, err := features.ListBySite(ctx, site.ID, &natural)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(2), filtered[0].OSMID)

	created, err := climate.Upsert(ctx, site.ID, sampleGroups())
	require.NoError(t, err)
	updatedGroups := sampleGroups()
	updatedGroups.Temperature.Current.Current = 30
	updated, err := climate.Upsert(ctx, site.ID, updatedGroups)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 30.0, updated.Temperature.Current.Current)

	deleted, err := sites.Delete(ctx, site.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	remaining, err := features.ListBySite(ctx, site.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	gone, err := climate.FindBySite(ctx, site.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
