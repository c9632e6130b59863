package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/pkg/knowledge"
)

// GraphEntitySearchHandler runs the fuzzy entity search over the graph.
func GraphEntitySearchHandler(c echo.Context) error {
	type entitySearchResponse struct {
		Message  string             `json:"message,omitempty"`
		Entities []knowledge.Entity `json:"entities"`
		Count    int                `json:"count"`
	}

	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, entitySearchResponse{
			Message: "Missing query parameter q",
		})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, entitySearchResponse{
				Message: "Invalid parameter limit",
			})
		}
		limit = parsed
	}

	app := c.(*middleware.AppContext).App

	entities := app.Graph.SearchEntities(query, c.QueryParam("entity_type"), limit)
	if entities == nil {
		entities = []knowledge.Entity{}
	}

	return c.JSON(http.StatusOK, entitySearchResponse{
		Entities: entities,
		Count:    len(entities),
	})
}

// GraphEntityDetailHandler looks one entity up by exact name and returns it
// together with its relationships.
func GraphEntityDetailHandler(c echo.Context) error {
	type entityDetailResponse struct {
		Message      string              `json:"message,omitempty"`
		Entity       *knowledge.Entity   `json:"entity,omitempty"`
		Related      []knowledge.Related `json:"related,omitempty"`
		RelatedCount int                 `json:"related_count"`
	}

	name := c.Param("name")
	app := c.(*middleware.AppContext).App

	entity, ok := app.Graph.FindEntity(name)
	if !ok {
		return c.JSON(http.StatusNotFound, entityDetailResponse{
			Message: "Entity not found",
		})
	}

	related := app.Graph.GetRelated(entity.ID, "")
	return c.JSON(http.StatusOK, entityDetailResponse{
		Entity:       &entity,
		Related:      related,
		RelatedCount: len(related),
	})
}
