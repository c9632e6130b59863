package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
)

// GraphExportHandler returns the graph in force-directed layout format.
func GraphExportHandler(c echo.Context) error {
	type graphErrorResponse struct {
		Message string `json:"message"`
	}

	maxNodes := 200
	if raw := c.QueryParam("max_nodes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, graphErrorResponse{
				Message: "Invalid parameter max_nodes",
			})
		}
		maxNodes = parsed
	}

	app := c.(*middleware.AppContext).App
	return c.JSON(http.StatusOK, app.Graph.D3Export(maxNodes))
}
