// Package main is the entry point for the Toolbelt MCP server.
//
// The Toolbelt server implements a Model Context Protocol (MCP) server
// exposing a small set of tools: dice rolling, weather lookup, currency
// conversion and sandboxed JavaScript execution. The server supports both
// stdio and HTTP transports.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/toolbelt/config"
	"github.com/isdmx/toolbelt/evaluator"
	"github.com/isdmx/toolbelt/logger"
	"github.com/isdmx/toolbelt/mcpserver"
	"github.com/isdmx/toolbelt/tools"
)

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Script evaluator based on config
			evaluator.New,

			// Tools
			tools.NewDice,
			tools.NewWeather,
			tools.NewCurrency,

			// MCP Server
			mcpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, server *mcpserver.MCPServer) {
				switch cfg.Server.Transport {
				case "stdio":
					// Use fx to run this as a background task
					go func() {
						if err := server.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := server.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}
