package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/shopgraph/backend/internal/queue"
	"github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/internal/storage"
	"github.com/shopgraph/backend/pkg/catalog"
	"github.com/shopgraph/backend/pkg/logger"
)

// IngestProductsHandler takes a product catalog and rebuilds the knowledge
// graph and the product summary index from it. With a queue configured the
// rebuild happens asynchronously and the handler answers 202; otherwise it
// runs inline.
func IngestProductsHandler(c echo.Context) error {
	type ingestResponse struct {
		Message  string `json:"message"`
		Products int    `json:"products"`
		Queued   bool   `json:"queued"`
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(body) == 0 {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}

	products, err := catalog.ParseProducts(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid product catalog",
		})
	}
	if len(products) == 0 {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Catalog contains no products",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if app.Queue == nil {
		if err := queue.Reindex(ctx, app.Graph, app.Store, products); err != nil {
			logger.Error("Synchronous reindex failed", "err", err)
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Failed to rebuild the catalog index",
			})
		}
		return c.JSON(http.StatusOK, ingestResponse{
			Message:  "Catalog indexed",
			Products: len(products),
		})
	}

	job := queue.ReindexJobMsg{Message: "Catalog reindex requested"}

	// Large catalogs go through S3 so queue messages stay small.
	if app.S3 != nil {
		id, err := gonanoid.New()
		if err != nil {
			logger.Error("Failed to generate catalog key", "err", err)
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Failed to queue the catalog",
			})
		}
		key := fmt.Sprintf("catalogs/%s.json", id)
		if err := storage.PutObject(ctx, app.S3, key, body, "application/json"); err != nil {
			logger.Error("Failed to upload catalog", "err", err)
			return c.JSON(http.StatusInternalServerError, ingestResponse{
				Message: "Failed to queue the catalog",
			})
		}
		job.ObjectKey = key
	} else {
		job.Catalog = json.RawMessage(body)
	}

	msg, err := json.Marshal(job)
	if err != nil {
		logger.Error("Failed to marshal reindex job", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Failed to queue the catalog",
		})
	}
	if err := queue.Publish(app.Queue, queue.ReindexQueue, msg); err != nil {
		logger.Error("Failed to publish reindex job", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Failed to queue the catalog",
		})
	}

	return c.JSON(http.StatusAccepted, ingestResponse{
		Message:  "Catalog reindex queued",
		Products: len(products),
		Queued:   true,
	})
}
