package handlers

import "github.com/gin-gonic/gin"

// EnvironmentalPrefix is the base path of the analysis API.
const EnvironmentalPrefix = "/api/v1/environmental"

// RegisterHealthRoutes mounts liveness, readiness and info endpoints.
func RegisterHealthRoutes(router gin.IRouter, h *HealthHandler) {
	router.GET("/health", h.Health)
	router.GET("/health/ready", h.Ready)
	router.GET("/api/v1/info", h.Info)
}

// RegisterEnvironmentalRoutes mounts the analysis and climate endpoints.
func RegisterEnvironmentalRoutes(router gin.IRouter, analysis *AnalysisHandler, climate *ClimateHandler) {
	env := router.Group(EnvironmentalPrefix)
	{
		env.POST("/analyze", analysis.Analyze)
		env.GET("/features/types", analysis.FeatureTypes)
		env.GET("/climate/summary", climate.Summary)

		sites := env.Group("/analysis")
		{
			sites.GET("", analysis.List)
			sites.GET("/:id", analysis.Get)
			sites.DELETE("/:id", analysis.Delete)
			sites.GET("/:id/features", analysis.Features)
			sites.GET("/:id/export", analysis.Export)
			sites.GET("/:id/climate", climate.Get)
			sites.POST("/:id/climate/refresh", climate.Refresh)
		}
	}
}
