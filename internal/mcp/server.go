package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/harms-haus/memoriae/internal/ops"
	"github.com/harms-haus/memoriae/internal/scheduler"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"seed_store": {
		def:     seedStoreToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSeedStore },
	},
	"seed_fetch": {
		def:     seedFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSeedFetch },
	},
	"seed_list": {
		def:     seedListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSeedList },
	},
	"seed_update": {
		def:     seedUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSeedUpdate },
	},
	"seed_delete": {
		def:     seedDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSeedDelete },
	},
	"category_create": {
		def:     categoryCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryCreate },
	},
	"category_rename": {
		def:     categoryRenameToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryRename },
	},
	"category_move": {
		def:     categoryMoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryMove },
	},
	"category_delete": {
		def:     categoryDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryDelete },
	},
	"category_list": {
		def:     categoryListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryList },
	},
	"settings_get": {
		def:     settingsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"settings_update": {
		def:     settingsUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsUpdate },
	},
	"pressure_get": {
		def:     pressureGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePressureGet },
	},
	"pressure_add": {
		def:     pressureAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePressureAdd },
	},
	"pressure_set": {
		def:     pressureSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePressureSet },
	},
	"pressure_reset": {
		def:     pressureResetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePressureReset },
	},
	"pressure_exceeded": {
		def:     pressureExceededToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePressureExceeded },
	},
	"queue_enqueue": {
		def:     queueEnqueueToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQueueEnqueue },
	},
	"queue_enqueue_all": {
		def:     queueEnqueueAllToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQueueEnqueueAll },
	},
	"queue_status": {
		def:     queueStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQueueStatus },
	},
	"queue_remove": {
		def:     queueRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQueueRemove },
	},
	"scheduler_start": {
		def:     schedulerStartToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSchedulerStart },
	},
	"scheduler_stop": {
		def:     schedulerStopToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSchedulerStop },
	},
	"scheduler_status": {
		def:     schedulerStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSchedulerStatus },
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

// NewServer creates a new MCP server with all memoriae tools registered.
func NewServer(env *ops.Env, sched *scheduler.Scheduler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"memoriae",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env, sched)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env, sched *scheduler.Scheduler, version string) error {
	s := NewServer(env, sched, version)
	return server.ServeStdio(s)
}
