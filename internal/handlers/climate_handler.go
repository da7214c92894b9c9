package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/stwalsh4118/siteanalysis/internal/services"
)

// ClimateHandler handles climate HTTP requests.
type ClimateHandler struct {
	service services.ClimateService
}

// NewClimateHandler creates a new ClimateHandler instance.
func NewClimateHandler(service services.ClimateService) *ClimateHandler {
	return &ClimateHandler{
		service: service,
	}
}

// SummaryRequest represents the query parameters for the ad-hoc summary.
type SummaryRequest struct {
	Latitude  *float64 `form:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `form:"longitude" binding:"required,min=-180,max=180"`
}

// ClimateResponse is a site's stored climate record.
type ClimateResponse struct {
	LastUpdated       time.Time                 `json:"last_updated"`
	CreatedAt         time.Time                 `json:"created_at"`
	EPWFilePath       *string                   `json:"epw_file_path"`
	Sources           models.ClimateSources     `json:"sources"`
	SiteName          string                    `json:"site_name"`
	ClimateZone       models.ClimateZone        `json:"climate_zone"`
	Coordinates       models.Coordinates        `json:"coordinates"`
	TemperatureData   models.TemperatureGroup   `json:"temperature_data"`
	PrecipitationData models.PrecipitationGroup `json:"precipitation_data"`
	WindData          models.WindGroup          `json:"wind_data"`
	SolarData         models.SolarGroup         `json:"solar_data"`
	AnalysisID        int64                     `json:"analysis_id"`
}

// RefreshResponse acknowledges a climate refresh.
type RefreshResponse struct {
	UpdatedAt   time.Time          `json:"updated_at"`
	Message     string             `json:"message"`
	ClimateZone models.ClimateZone `json:"climate_zone"`
	AnalysisID  int64              `json:"analysis_id"`
}

// Get handles GET /api/v1/environmental/analysis/:id/climate.
func (h *ClimateHandler) Get(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}

	report, err := h.service.GetClimateData(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to load climate data")
		return
	}

	c.JSON(http.StatusOK, toClimateResponse(report))
}

// Refresh handles POST /api/v1/environmental/analysis/:id/climate/refresh.
func (h *ClimateHandler) Refresh(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}

	report, err := h.service.RefreshClimateData(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to refresh climate data")
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		UpdatedAt:   report.Data.UpdatedAt,
		Message:     "Climate data refreshed successfully",
		ClimateZone: report.Data.Temperature.MonthlyAverages.Zone,
		AnalysisID:  id,
	})
}

// Summary handles GET /api/v1/environmental/climate/summary.
func (h *ClimateHandler) Summary(c *gin.Context) {
	var req SummaryRequest
	if !bindQuery(c, &req) {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), *req.Latitude, *req.Longitude)
	if err != nil {
		handleServiceError(c, err, "Failed to build climate summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func toClimateResponse(report *services.ClimateReport) ClimateResponse {
	data := report.Data
	return ClimateResponse{
		LastUpdated:       data.UpdatedAt,
		CreatedAt:         data.CreatedAt,
		EPWFilePath:       data.EPWFilePath,
		Sources:           data.Sources,
		SiteName:          report.Site.Name,
		ClimateZone:       data.Temperature.MonthlyAverages.Zone,
		Coordinates:       report.Site.Coordinates(),
		TemperatureData:   data.Temperature,
		PrecipitationData: data.Precipitation,
		WindData:          data.Wind,
		SolarData:         data.Solar,
		AnalysisID:        report.Site.ID,
	}
}
