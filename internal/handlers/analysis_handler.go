package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/siteanalysis/internal/errors"
	"github.com/stwalsh4118/siteanalysis/internal/middleware"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/stwalsh4118/siteanalysis/internal/services"
)

// Pagination defaults for the analysis listing.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// AnalysisHandler handles site analysis HTTP requests.
type AnalysisHandler struct {
	service services.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler instance.
func NewAnalysisHandler(service services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
	}
}

// AnalyzeRequest is the body of POST /analyze.
// Coordinates are pointers so that 0 is accepted while absence is rejected.
type AnalyzeRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
	Name      string   `json:"name" binding:"max=200"`
	Radius    int      `json:"radius" binding:"omitempty,min=100,max=2000"`
}

// ListRequest represents the query parameters for the listing endpoint.
type ListRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// FeaturesRequest represents the query parameters for the features endpoint.
type FeaturesRequest struct {
	FeatureType string `form:"feature_type"`
}

// ExportRequest represents the query parameters for the export endpoint.
type ExportRequest struct {
	Format string `form:"format"`
}

// AnalysisResponse describes a stored analysis with its summary.
type AnalysisResponse struct {
	CreatedAt     time.Time              `json:"created_at"`
	Summary       models.AnalysisSummary `json:"summary"`
	Name          string                 `json:"name"`
	Coordinates   models.Coordinates     `json:"coordinates"`
	ID            int64                  `json:"id"`
	Radius        int                    `json:"radius"`
	FeaturesCount int                    `json:"features_count"`
}

// ListResponse represents the response for the listing endpoint.
type ListResponse struct {
	Analyses []models.SiteAnalysis `json:"analyses"`
	Count    int                   `json:"count"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
}

// FeaturesResponse represents the response for the features endpoint.
type FeaturesResponse struct {
	FeatureType *string                       `json:"feature_type"`
	Features    []models.EnvironmentalFeature `json:"features"`
	AnalysisID  int64                         `json:"analysis_id"`
	Count       int                           `json:"count"`
}

// FeatureTypesResponse lists the feature categories.
type FeatureTypesResponse struct {
	Descriptions map[string]string `json:"descriptions"`
	FeatureTypes []string          `json:"feature_types"`
}

// Analyze handles POST /api/v1/environmental/analyze.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing analyze request", map[string]interface{}{
			"latitude":  *req.Latitude,
			"longitude": *req.Longitude,
			"radius":    req.Radius,
		})
	}

	result, err := h.service.AnalyzeSite(c.Request.Context(), services.AnalyzeRequest{
		Name:      req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Radius:    req.Radius,
	})
	if err != nil {
		handleServiceError(c, err, "Analysis failed: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, toAnalysisResponse(result))
}

// List handles GET /api/v1/environmental/analysis.
func (h *AnalysisHandler) List(c *gin.Context) {
	var req ListRequest
	if !bindQuery(c, &req) {
		return
	}
	if req.Limit == 0 {
		req.Limit = DefaultListLimit
	}

	sites, err := h.service.ListAnalyses(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list analyses", err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Analyses: sites,
		Count:    len(sites),
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
}

// Get handles GET /api/v1/environmental/analysis/:id.
func (h *AnalysisHandler) Get(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}

	result, err := h.service.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to load analysis")
		return
	}

	c.JSON(http.StatusOK, toAnalysisResponse(result))
}

// Delete handles DELETE /api/v1/environmental/analysis/:id.
func (h *AnalysisHandler) Delete(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteAnalysis(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "Failed to delete analysis")
		return
	}

	c.Status(http.StatusNoContent)
}

// Features handles GET /api/v1/environmental/analysis/:id/features.
func (h *AnalysisHandler) Features(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}
	var req FeaturesRequest
	if !bindQuery(c, &req) {
		return
	}

	features, err := h.service.GetFeatures(c.Request.Context(), id, req.FeatureType)
	if err != nil {
		handleServiceError(c, err, "Failed to load features")
		return
	}

	resp := FeaturesResponse{
		Features:   features,
		AnalysisID: id,
		Count:      len(features),
	}
	if req.FeatureType != "" {
		resp.FeatureType = &req.FeatureType
	}
	c.JSON(http.StatusOK, resp)
}

// Export handles GET /api/v1/environmental/analysis/:id/export.
func (h *AnalysisHandler) Export(c *gin.Context) {
	id, ok := analysisID(c)
	if !ok {
		return
	}
	req := ExportRequest{Format: services.ExportFormatGeoJSON}
	if !bindQuery(c, &req) {
		return
	}

	collection, err := h.service.ExportAnalysis(c.Request.Context(), id, req.Format)
	if err != nil {
		handleServiceError(c, err, "Failed to export analysis")
		return
	}

	body, err := json.Marshal(collection)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to encode export", err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

// FeatureTypes handles GET /api/v1/environmental/features/types.
func (h *AnalysisHandler) FeatureTypes(c *gin.Context) {
	types := h.service.FeatureTypes()

	resp := FeatureTypesResponse{
		Descriptions: make(map[string]string, len(types)),
		FeatureTypes: make([]string, 0, len(types)),
	}
	for _, t := range types {
		resp.FeatureTypes = append(resp.FeatureTypes, string(t.Value))
		resp.Descriptions[string(t.Value)] = t.Description
	}
	c.JSON(http.StatusOK, resp)
}

func toAnalysisResponse(result *services.AnalysisResult) AnalysisResponse {
	return AnalysisResponse{
		CreatedAt:     result.Site.CreatedAt,
		Summary:       result.Summary,
		Name:          result.Site.Name,
		Coordinates:   result.Site.Coordinates(),
		ID:            result.Site.ID,
		Radius:        result.Site.Radius,
		FeaturesCount: result.FeaturesCount,
	}
}

// handleServiceError maps service sentinel errors onto API responses.
// internalMsg is what the client sees for unexpected failures.
func handleServiceError(c *gin.Context, err error, internalMsg string) {
	switch {
	case errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidRadius),
		errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrInvalidFeatureType):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrUnsupportedFormat):
		apierrors.BadRequest(c, err.Error(), map[string]interface{}{
			"supported_formats": []string{services.ExportFormatGeoJSON},
		})
	case errors.Is(err, services.ErrSiteNotFound):
		apierrors.NotFound(c, "Analysis not found")
	case errors.Is(err, services.ErrClimateDataNotFound):
		apierrors.NotAvailable(c, "Climate data not available for this analysis")
	default:
		apierrors.InternalServerError(c, internalMsg, err)
	}
}

func analysisID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Invalid analysis id", map[string]interface{}{"id": c.Param("id")})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	return handleBindError(c, c.ShouldBindJSON(dst), "Invalid request body")
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	return handleBindError(c, c.ShouldBindQuery(dst), "Invalid query parameters")
}

func handleBindError(c *gin.Context, err error, msg string) bool {
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return false
	}
	apierrors.BadRequest(c, msg, nil)
	return false
}
