package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/siteanalysis/internal/models"
)

var climateColumnNames = []string{
	"id", "site_analysis_id", "temperature_data", "precipitation_data", "wind_data",
	"solar_data", "sources", "epw_file_path", "created_at", "updated_at",
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func sampleGroups() models.ClimateGroups {
	return models.ClimateGroups{
		Temperature: models.TemperatureGroup{
			Current:         models.CurrentTemperature{Current: 21},
			HistoricalAvg:   models.HistoricalTemperature{AnnualAvg: 19},
			MonthlyAverages: models.TemperaturePattern{Zone: models.ZoneSubtropical},
		},
		Precipitation: models.PrecipitationGroup{AnnualPatterns: models.PrecipitationPattern{Pattern: "temperate"}},
		Wind:          models.WindGroup{Seasonal: models.WindPattern{Dominant: "trade_winds"}},
		Solar:         models.SolarGroup{YearlyPatterns: models.SolarPattern{Availability: "high"}},
		Sources:       models.ClimateSources{Current: "synthetic", Historical: "nasa_power", Patterns: "latitude_rules"},
	}
}

func climateRow(t *testing.T, g models.ClimateGroups, created, updated time.Time) []interface{} {
	return []interface{}{
		int64(1), int64(9),
		mustJSON(t, g.Temperature), mustJSON(t, g.Precipitation), mustJSON(t, g.Wind),
		mustJSON(t, g.Solar), mustJSON(t, g.Sources), nil, created, updated,
	}
}

func TestClimateRepository_FindBySite(t *testing.T) {
	mock := newMockPool(t)
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	groups := sampleGroups()

	mock.ExpectQuery(`FROM climate_data WHERE site_analysis_id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(climateColumnNames).AddRow(climateRow(t, groups, created, created)...))

	data, err := NewClimateRepository(mock).FindBySite(context.Background(), 9)

	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, groups, data.ClimateGroups)
	assert.Nil(t, data.EPWFilePath)
	assert.Equal(t, created, data.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClimateRepository_FindBySiteMissing(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("FROM climate_data").
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(climateColumnNames))

	data, err := NewClimateRepository(mock).FindBySite(context.Background(), 9)

	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestClimateRepository_Upsert(t *testing.T) {
	mock := newMockPool(t)
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(24 * time.Hour)
	groups := sampleGroups()

	mock.ExpectQuery(`INSERT INTO climate_data .* ON CONFLICT \(site_analysis_id\) DO UPDATE SET .* updated_at = NOW\(\)\s+RETURNING`).
		WithArgs(int64(9), groups.Temperature, groups.Precipitation, groups.Wind, groups.Solar, groups.Sources).
		WillReturnRows(pgxmock.NewRows(climateColumnNames).AddRow(climateRow(t, groups, created, updated)...))

	data, err := NewClimateRepository(mock).Upsert(context.Background(), 9, groups)

	require.NoError(t, err)
	assert.Equal(t, int64(9), data.SiteAnalysisID)
	assert.Equal(t, updated, data.UpdatedAt)
	assert.Equal(t, "latitude_rules", data.Sources.Patterns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClimateRepository_UpsertError(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("INSERT INTO climate_data").
		WithArgs(int64(9), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	_, err := NewClimateRepository(mock).Upsert(context.Background(), 9, sampleGroups())

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
