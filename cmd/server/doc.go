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
