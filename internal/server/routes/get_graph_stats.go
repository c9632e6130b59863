package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
)

// GraphStatsHandler returns entity and relationship totals plus the most
// connected brands and categories.
func GraphStatsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	return c.JSON(http.StatusOK, app.Graph.GetStats())
}
