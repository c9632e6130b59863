package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

// SearchHandler runs a raw similarity search over the vector store without
// answer generation.
func SearchHandler(c echo.Context) error {
	type searchResponse struct {
		Message string                     `json:"message,omitempty"`
		Results []vectorstore.SearchResult `json:"results"`
		Count   int                        `json:"count"`
	}

	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Missing query parameter q",
		})
	}

	k := 5
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, searchResponse{
				Message: "Invalid parameter k",
			})
		}
		k = parsed
	}

	var filter map[string]string
	if source := c.QueryParam("source"); source != "" {
		filter = map[string]string{"source": source}
	}

	app := c.(*middleware.AppContext).App

	results, err := app.Store.Search(c.Request().Context(), query, k, filter)
	if err != nil {
		logger.Error("Search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Message: "Search failed",
		})
	}
	if results == nil {
		results = []vectorstore.SearchResult{}
	}

	return c.JSON(http.StatusOK, searchResponse{
		Results: results,
		Count:   len(results),
	})
}
