package server

import (
	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Question answering
	apiRoutes.POST("/query", routes.QueryHandler)

	// Document routes
	apiRoutes.POST("/documents", routes.AddDocumentsHandler)
	apiRoutes.GET("/documents", routes.ListDocumentsHandler)
	apiRoutes.DELETE("/documents", routes.DeleteDocumentsHandler)
	apiRoutes.GET("/search", routes.SearchHandler)

	// Catalog ingest
	apiRoutes.POST("/products", routes.IngestProductsHandler)

	// Knowledge graph routes
	apiRoutes.GET("/graph", routes.GraphExportHandler)
	apiRoutes.GET("/graph/stats", routes.GraphStatsHandler)
	apiRoutes.GET("/graph/entities", routes.GraphEntitySearchHandler)
	apiRoutes.GET("/graph/entities/:name", routes.GraphEntityDetailHandler)

	// Combined statistics
	apiRoutes.GET("/stats", routes.StatsHandler)
}
