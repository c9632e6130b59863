package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/rag"
)

// QueryHandler answers a natural-language question against the catalog.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Question string `json:"question" validate:"required"`
		Mode     string `json:"mode" validate:"omitempty,oneof=vector_only graph_only hybrid"`
	}

	type queryErrorResponse struct {
		Message string `json:"message"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryErrorResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryErrorResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	mode := data.Mode
	if mode == "" {
		mode = rag.ModeHybrid
	}

	result, err := app.Pipeline.Query(ctx, data.Question, mode)
	if err != nil {
		logger.Error("Query failed", "mode", mode, "err", err)
		return c.JSON(http.StatusInternalServerError, queryErrorResponse{
			Message: "Failed to answer the question",
		})
	}

	return c.JSON(http.StatusOK, result)
}
