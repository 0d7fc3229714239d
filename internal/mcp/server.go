package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/questlog/internal/app"
)

const (
	// ServerName is the MCP server name
	ServerName = "questlog"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	app    *app.App
	logger *zap.Logger
}

// NewServer creates a new MCP server over a started application.
// The caller owns the application and closes it after Serve returns.
func NewServer(a *app.App, version string, logger *zap.Logger) (*Server, error) {
	if a == nil {
		return nil, errors.New("application is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
	)

	s := &Server{
		mcp:    mcpServer,
		app:    a,
		logger: logger.Named("mcp"),
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving on stdio", zap.Int("games", s.app.Catalog().Len()))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(greetTool(), s.handleGreet)
	s.mcp.AddTool(openStoreTool(), s.handleOpenStore)
	s.mcp.AddTool(listGamesTool(), s.handleListGames)
	s.mcp.AddTool(storeStatusTool(), s.handleStoreStatus)
	s.mcp.AddTool(recordTaskTool(), s.handleRecordTask)
	s.mcp.AddTool(listRecordsTool(), s.handleListRecords)
	s.mcp.AddTool(getRecordTool(), s.handleGetRecord)
	s.mcp.AddTool(recordCurrenciesTool(), s.handleRecordCurrencies)
	s.mcp.AddTool(currencyHistoryTool(), s.handleCurrencyHistory)
}
