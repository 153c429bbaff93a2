// Package mcp exposes the aggregation engine to MCP clients so an LLM can
// query synced health data directly.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/C-Tharun/vitalsync/internal/store"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context, fallback string) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return fallback
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// defaultUser scopes queries when the transport supplies no identity.
func New(st store.Store, loc *time.Location, defaultUser, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("VitalSync", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("VitalSync health metric server. Query daily summaries, weekly series, sleep nights, heart rate bands, step charts, and raw samples for the synced account."),
	)

	h := &handlers{store: st, loc: loc, defaultUser: defaultUser, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetDailySummary, Handler: h.getDailySummary},
		server.ServerTool{Tool: toolGetWeeklySeries, Handler: h.getWeeklySeries},
		server.ServerTool{Tool: toolGetNightlySleep, Handler: h.getNightlySleep},
		server.ServerTool{Tool: toolGetHeartRateBands, Handler: h.getHeartRateBands},
		server.ServerTool{Tool: toolGetStepRollup, Handler: h.getStepRollup},
		server.ServerTool{Tool: toolGetSamples, Handler: h.getSamples},
	)

	s.AddResources(
		server.ServerResource{Resource: resDailySummary, Handler: h.dailySummaryResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	store       store.Store
	loc         *time.Location
	defaultUser string
	log         *slog.Logger
}

var resDailySummary = mcp.NewResource(
	"vitalsync://daily_summary",
	"Daily Summary",
	mcp.WithResourceDescription("Today's key health metrics: latest heart rate, step/calorie/distance totals, last night's sleep, and the most recent activity"),
	mcp.WithMIMEType("application/json"),
)
