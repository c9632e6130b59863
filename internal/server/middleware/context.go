package middleware

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/shopgraph/backend/pkg/ai"
	"github.com/shopgraph/backend/pkg/knowledge"
	"github.com/shopgraph/backend/pkg/rag"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

// App carries the shared components every handler needs. Queue and S3 are
// nil when not configured; handlers degrade to synchronous behavior.
type App struct {
	Pipeline *rag.Pipeline
	Graph    *knowledge.Graph
	Store    vectorstore.Store
	Queue    *amqp091.Channel
	S3       *s3.Client
	AiClient ai.AIClient
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
