// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package implements an MCP-compliant server that exposes the
// roll_dice, get_weather, convert_currency and run_script tools. It uses the
// mark3labs/mcp-go library to handle the protocol details.
package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/toolbelt/config"
	"github.com/isdmx/toolbelt/evaluator"
	"github.com/isdmx/toolbelt/tools"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	evaluator evaluator.ScriptEvaluator
	dice      *tools.Dice
	weather   *tools.Weather
	currency  *tools.Currency
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(
	cfg *config.Config,
	logger *zap.Logger,
	eval evaluator.ScriptEvaluator,
	dice *tools.Dice,
	weather *tools.Weather,
	currency *tools.Currency,
) (*MCPServer, error) {
	s := &MCPServer{
		config:    cfg,
		logger:    logger,
		evaluator: eval,
		dice:      dice,
		weather:   weather,
		currency:  currency,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", s.config.Server.Transport),
		zap.Int("server.http_port", s.config.Server.HTTPPort),
		zap.String("evaluator.engine", s.config.Evaluator.Engine),
		zap.Int("evaluator.default_timeout_ms", s.config.Evaluator.DefaultTimeoutMs),
		zap.Int("evaluator.min_timeout_ms", s.config.Evaluator.MinTimeoutMs),
		zap.Int("evaluator.max_timeout_ms", s.config.Evaluator.MaxTimeoutMs),
		zap.Int("evaluator.max_output_bytes", s.config.Evaluator.MaxOutputBytes),
		zap.String("weather.geocoding_url", s.config.Weather.GeocodingURL),
		zap.String("weather.forecast_url", s.config.Weather.ForecastURL),
		zap.String("currency.rates_url", s.config.Currency.RatesURL),
		zap.Int("dice.max_dice", s.config.Dice.MaxDice),
		zap.Int("dice.max_sides", s.config.Dice.MaxSides),
	)

	// Create the MCP server
	s.mcpServer = server.NewMCPServer("toolbelt", "A small tool server with sandboxed script execution")

	s.registerRollDiceTool()
	s.registerGetWeatherTool()
	s.registerConvertCurrencyTool()
	s.registerRunScriptTool()

	return s, nil
}

// registerRollDiceTool registers the roll_dice tool
func (s *MCPServer) registerRollDiceTool() {
	tool := mcp.Tool{
		Name:        "roll_dice",
		Description: "Roll a number of dice and return the rolls and their total",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"sides": map[string]any{
					"type":        "integer",
					"description": "Number of sides per die",
				},
				"count": map[string]any{
					"type":        "integer",
					"description": "Number of dice to roll (default 1)",
				},
			},
			Required: []string{"sides"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRollDice)
}

// registerGetWeatherTool registers the get_weather tool
func (s *MCPServer) registerGetWeatherTool() {
	tool := mcp.Tool{
		Name:        "get_weather",
		Description: "Get the current weather for a city",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": "City name",
				},
			},
			Required: []string{"city"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleGetWeather)
}

// registerConvertCurrencyTool registers the convert_currency tool
func (s *MCPServer) registerConvertCurrencyTool() {
	tool := mcp.Tool{
		Name:        "convert_currency",
		Description: "Convert an amount between two ISO currency codes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"from": map[string]any{
					"type":        "string",
					"description": "Source currency code, e.g. USD",
				},
				"to": map[string]any{
					"type":        "string",
					"description": "Target currency code, e.g. EUR",
				},
				"amount": map[string]any{
					"type":        "number",
					"description": "Amount to convert (default 1)",
				},
			},
			Required: []string{"from", "to"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleConvertCurrency)
}

// registerRunScriptTool registers the run_script tool
func (s *MCPServer) registerRunScriptTool() {
	tool := mcp.Tool{
		Name:        "run_script",
		Description: "Execute JavaScript in an isolated sandbox and return its output or result",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "JavaScript source to execute",
				},
				"timeout": map[string]any{
					"type":        "integer",
					"description": "Execution timeout in milliseconds (100-10000, default 5000)",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunScript)
}

// handleRollDice handles the roll_dice tool
func (s *MCPServer) handleRollDice(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sides, err := request.RequireInt("sides")
	if err != nil {
		return nil, fmt.Errorf("sides parameter is required: %w", err)
	}
	count := request.GetInt("count", 1)

	result, err := s.dice.Roll(count, sides)
	if err != nil {
		return nil, fmt.Errorf("invalid dice parameters: %w", err)
	}

	return textResult(result), nil
}

// handleGetWeather handles the get_weather tool
func (s *MCPServer) handleGetWeather(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city, err := request.RequireString("city")
	if err != nil {
		return nil, fmt.Errorf("city parameter is required: %w", err)
	}

	result, err := s.weather.Lookup(ctx, city)
	if err != nil {
		s.logger.Error("weather lookup failed", zap.Error(err), zap.String("city", city))
		return errorResult(fmt.Sprintf("Weather lookup failed: %v", err)), nil
	}

	return textResult(result), nil
}

// handleConvertCurrency handles the convert_currency tool
func (s *MCPServer) handleConvertCurrency(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := request.RequireString("from")
	if err != nil {
		return nil, fmt.Errorf("from parameter is required: %w", err)
	}
	to, err := request.RequireString("to")
	if err != nil {
		return nil, fmt.Errorf("to parameter is required: %w", err)
	}
	amount := request.GetFloat("amount", 1)

	result, err := s.currency.Convert(ctx, from, to, amount)
	if err != nil {
		s.logger.Error("currency conversion failed",
			zap.Error(err),
			zap.String("from", from),
			zap.String("to", to))
		return errorResult(fmt.Sprintf("Currency conversion failed: %v", err)), nil
	}

	return textResult(result), nil
}

// handleRunScript handles the run_script tool.
//
// Parameter validation happens here, before the evaluator runs: code must be
// non-empty and timeout must fall within the configured bounds. Failures of
// the submitted code itself are never errors; the evaluator renders them into
// the result text.
func (s *MCPServer) handleRunScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.Info("script execution requested")

	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("code must not be empty")
	}

	timeoutMs := request.GetInt("timeout", s.config.Evaluator.DefaultTimeoutMs)
	if timeoutMs < s.config.Evaluator.MinTimeoutMs || timeoutMs > s.config.Evaluator.MaxTimeoutMs {
		return nil, fmt.Errorf("timeout must be within [%d, %d] ms, got: %d",
			s.config.Evaluator.MinTimeoutMs, s.config.Evaluator.MaxTimeoutMs, timeoutMs)
	}

	result := s.evaluator.Evaluate(ctx, evaluator.Request{
		Source:  code,
		Timeout: time.Duration(timeoutMs) * time.Millisecond,
	})

	return textResult(result), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
