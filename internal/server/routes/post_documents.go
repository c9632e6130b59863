package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/rag"
)

// AddDocumentsHandler indexes free-text chunks into the vector store.
func AddDocumentsHandler(c echo.Context) error {
	type addDocumentsBody struct {
		Documents []rag.DocumentInput `json:"documents" validate:"required,min=1"`
	}

	type addDocumentsResponse struct {
		Message string `json:"message"`
		Added   int    `json:"added"`
	}

	data := new(addDocumentsBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, addDocumentsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, addDocumentsResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App

	added, err := app.Pipeline.AddDocuments(c.Request().Context(), data.Documents)
	if err != nil {
		logger.Error("Failed to add documents", "err", err)
		return c.JSON(http.StatusInternalServerError, addDocumentsResponse{
			Message: "Failed to add documents",
		})
	}

	return c.JSON(http.StatusOK, addDocumentsResponse{
		Message: "Documents added",
		Added:   added,
	})
}
