package main

import (
	"github.com/shopgraph/backend/internal/server"
	"github.com/shopgraph/backend/internal/util"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
