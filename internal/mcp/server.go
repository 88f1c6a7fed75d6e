package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/config"
	"github.com/ecakir/sift/internal/history"
	"github.com/ecakir/sift/internal/session"
)

// KnownTypes lists all valid tool group names.
var KnownTypes = []string{"auth", "email", "usage", "gmail", "health", "history"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"auth_login": {
		def:     loginToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLogin },
	},
	"auth_register": {
		def:     registerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRegister },
	},
	"auth_logout": {
		def:     logoutToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLogout },
	},
	"auth_whoami": {
		def:     whoamiToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWhoami },
	},
	"email_analyze": {
		def:     analyzeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAnalyze },
	},
	"email_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"email_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"email_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"email_categories": {
		def:     categoriesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategories },
	},
	"usage_summary": {
		def:     usageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUsage },
	},
	"gmail_status": {
		def:     gmailStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGmailStatus },
	},
	"gmail_connect": {
		def:     gmailConnectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGmailConnect },
	},
	"gmail_disconnect": {
		def:     gmailDisconnectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGmailDisconnect },
	},
	"health_check": {
		def:     healthToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHealth },
	},
	"history_recent": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the group name from a tool name.
// Tool names follow the pattern "group_action" (e.g., "email_list" → "email").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// NewServer creates a new MCP server with sift tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(client *api.Client, sess *session.Manager, hist *history.Store, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sift",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(client, sess, hist, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(client *api.Client, sess *session.Manager, hist *history.Store, cfg *config.Config, version string) error {
	s := NewServer(client, sess, hist, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
