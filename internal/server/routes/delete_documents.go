package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/pkg/logger"
)

// DeleteDocumentsHandler clears the vector store, including its snapshot.
func DeleteDocumentsHandler(c echo.Context) error {
	type deleteDocumentsResponse struct {
		Message string `json:"message"`
	}

	app := c.(*middleware.AppContext).App

	if err := app.Store.DeleteAll(c.Request().Context()); err != nil {
		logger.Error("Failed to delete documents", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteDocumentsResponse{
			Message: "Failed to delete documents",
		})
	}

	return c.JSON(http.StatusOK, deleteDocumentsResponse{
		Message: "All documents deleted",
	})
}
