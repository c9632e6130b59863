package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/pkg/knowledge"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/rag"
)

// StatsHandler combines pipeline and graph statistics.
func StatsHandler(c echo.Context) error {
	type statsResponse struct {
		Message  string             `json:"message,omitempty"`
		Pipeline *rag.PipelineStats `json:"pipeline,omitempty"`
		Graph    *knowledge.Stats   `json:"graph,omitempty"`
	}

	app := c.(*middleware.AppContext).App

	pipelineStats, err := app.Pipeline.Stats(c.Request().Context())
	if err != nil {
		logger.Error("Failed to collect pipeline stats", "err", err)
		return c.JSON(http.StatusInternalServerError, statsResponse{
			Message: "Failed to collect stats",
		})
	}
	graphStats := app.Graph.GetStats()

	return c.JSON(http.StatusOK, statsResponse{
		Pipeline: &pipelineStats,
		Graph:    &graphStats,
	})
}
