// Package server wires the engine, identifier cache, and resource locator
// into an MCP server speaking stdio.
package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"loom/internal/cache"
	"loom/internal/engine"
	"loom/internal/faults"
	"loom/internal/locator"
)

// Server is the MCP-facing surface.
type Server struct {
	engine    *engine.Engine
	cache     *cache.Cache
	locator   *locator.Locator
	mcp       *mcp.Server
	opTimeout time.Duration
	log       zerolog.Logger
}

// New builds the server and registers every tool and resource. Registration
// failures are programming errors and surface immediately.
func New(eng *engine.Engine, idc *cache.Cache, opTimeout time.Duration, version string, log zerolog.Logger) (*Server, error) {
	if opTimeout <= 0 {
		opTimeout = 3 * time.Minute
	}
	s := &Server{
		engine:    eng,
		cache:     idc,
		locator:   locator.New(),
		opTimeout: opTimeout,
		log:       log.With().Str("component", "server").Logger(),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "loom",
		Version: version,
	}, nil)

	if err := s.registerResources(); err != nil {
		return nil, err
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP over stdio until ctx is done or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().Msg("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// envelope is the uniform tool response: a success flag, a stable error
// code on failure, and degradation markers on partial success.
type envelope struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
	Degraded  bool   `json:"degraded,omitempty"`
	Skipped   int    `json:"skipped,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func toolResult(env envelope) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
		IsError: !env.Success,
	}, nil, nil
}

func okResult(data any) (*mcp.CallToolResult, any, error) {
	return toolResult(envelope{Success: true, Data: data})
}

func degradedResult(data any, skipped int) (*mcp.CallToolResult, any, error) {
	return toolResult(envelope{Success: true, Degraded: true, Skipped: skipped, Data: data})
}

func failResult(err error) (*mcp.CallToolResult, any, error) {
	return toolResult(envelope{
		Success:   false,
		ErrorCode: string(faults.CodeOf(err)),
		Error:     err.Error(),
	})
}
