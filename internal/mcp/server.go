// Package mcp serves the task tools over stdio
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/tasktracker/internal/logging"
	"github.com/vthunder/tasktracker/internal/mcp/tools"
)

// ServerName is reported to MCP clients
const ServerName = "tasktracker"

// NewServer builds an MCP server with every task tool registered
func NewServer(version string, deps *tools.Dependencies) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)
	tools.RegisterAll(s, deps)
	return s
}

// ServeStdio blocks serving s on stdin/stdout until the client goes away
func ServeStdio(s *server.MCPServer) error {
	logging.Info("mcp", "serving %s on stdio", ServerName)
	return server.ServeStdio(s)
}
