package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

// ListDocumentsHandler returns every stored document.
func ListDocumentsHandler(c echo.Context) error {
	type listDocumentsResponse struct {
		Message   string                 `json:"message,omitempty"`
		Documents []vectorstore.Document `json:"documents"`
		Count     int                    `json:"count"`
	}

	app := c.(*middleware.AppContext).App

	docs, err := app.Store.ListAll(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list documents", "err", err)
		return c.JSON(http.StatusInternalServerError, listDocumentsResponse{
			Message: "Failed to list documents",
		})
	}
	if docs == nil {
		docs = []vectorstore.Document{}
	}

	return c.JSON(http.StatusOK, listDocumentsResponse{
		Documents: docs,
		Count:     len(docs),
	})
}
