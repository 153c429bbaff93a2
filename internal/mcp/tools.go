package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/C-Tharun/vitalsync/internal/aggregate"
	"github.com/C-Tharun/vitalsync/internal/models"
	"github.com/C-Tharun/vitalsync/internal/view"
)

// parseFlexTime accepts RFC3339 timestamps or plain dates.
func parseFlexTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.ParseInLocation("2006-01-02", s, loc)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// dayFor resolves the optional date argument, defaulting to today.
func (h *handlers) dayFor(dateStr string) (int64, error) {
	if dateStr == "" {
		return aggregate.DayStart(time.Now().UnixMilli(), h.loc), nil
	}
	t, err := parseFlexTime(dateStr, h.loc)
	if err != nil {
		return 0, err
	}
	return aggregate.DayStart(t.UnixMilli(), h.loc), nil
}

// --- Tool definitions ---

var toolGetDailySummary = mcp.NewTool("get_daily_summary",
	mcp.WithDescription("Today's headline numbers: latest heart rate, step/calorie/distance totals, last night's sleep minutes, the most recent activity, and body measurements. Fields absent from the response have no data yet."),
)

var toolGetWeeklySeries = mcp.NewTool("get_weekly_series",
	mcp.WithDescription("A fixed seven-day daily series for a metric, oldest day first, labelled by weekday. Days without data report 0."),
	mcp.WithString("metric", mcp.Required(), mcp.Description("Metric kind: STEPS, CALORIES, DISTANCE, HEART_POINTS")),
)

var toolGetNightlySleep = mcp.NewTool("get_nightly_sleep",
	mcp.WithDescription("Per-night sleep totals over the last week. Nights run 18:00 to 18:00 local time, so a session crossing midnight counts as one night. Only asleep stages contribute."),
)

var toolGetHeartRateBands = mcp.NewTool("get_heart_rate_bands",
	mcp.WithDescription("Hourly min/max heart rate bands for one day. Hours without samples are omitted."),
	mcp.WithString("date", mcp.Description("Day to query (YYYY-MM-DD). Defaults to today.")),
)

var toolGetStepRollup = mcp.NewTool("get_step_rollup",
	mcp.WithDescription("Half-hour step totals for one day, 48 slots from local midnight. For today, slots that have not started yet are omitted."),
	mcp.WithString("date", mcp.Description("Day to query (YYYY-MM-DD). Defaults to today.")),
)

var toolGetSamples = mcp.NewTool("get_samples",
	mcp.WithDescription("Raw stored sample records in a time range, ascending by timestamp. Timestamps are epoch milliseconds."),
	mcp.WithString("start", mcp.Description("Start date (RFC3339 or YYYY-MM-DD). Defaults to 24 hours ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("metric", mcp.Description("Restrict to one metric kind.")),
)

// --- Tool handlers ---

func (h *handlers) getDailySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx, h.defaultUser)
	now := time.Now().UnixMilli()
	start := aggregate.AddDays(aggregate.DayStart(now, h.loc), -2, h.loc)

	recs, err := h.store.GetRange(ctx, uid, start, now+1)
	if err != nil {
		h.log.Error("mcp get_daily_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(view.BuildDailySummary(recs, now, h.loc))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeeklySeries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metric, err := req.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError("metric parameter is required"), nil
	}
	kind := models.MetricKind(metric)
	if !kind.Valid() {
		return mcp.NewToolResultError("unknown metric: " + metric), nil
	}

	uid := UserIDFromContext(ctx, h.defaultUser)
	now := time.Now().UnixMilli()
	start := aggregate.AddDays(aggregate.DayStart(now, h.loc), -6, h.loc)

	recs, err := h.store.GetRange(ctx, uid, start, now+1)
	if err != nil {
		h.log.Error("mcp get_weekly_series", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"metric": kind,
		"points": aggregate.WeeklySeries(recs, kind, now, h.loc),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getNightlySleep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx, h.defaultUser)
	now := time.Now().UnixMilli()
	start := aggregate.AddDays(aggregate.DayStart(now, h.loc), -7, h.loc)

	recs, err := h.store.GetRange(ctx, uid, start, now+1)
	if err != nil {
		h.log.Error("mcp get_nightly_sleep", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"nights": aggregate.NightlySleep(recs, h.loc),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getHeartRateBands(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dayStart, err := h.dayFor(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	dayEnd := aggregate.AddDays(dayStart, 1, h.loc)

	uid := UserIDFromContext(ctx, h.defaultUser)
	recs, err := h.store.GetRange(ctx, uid, dayStart, dayEnd)
	if err != nil {
		h.log.Error("mcp get_heart_rate_bands", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"date":  dayStart,
		"bands": aggregate.HourlyBands(recs),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getStepRollup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dayStart, err := h.dayFor(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	dayEnd := aggregate.AddDays(dayStart, 1, h.loc)
	now := time.Now().UnixMilli()

	uid := UserIDFromContext(ctx, h.defaultUser)
	recs, err := h.store.GetRange(ctx, uid, dayStart, dayEnd)
	if err != nil {
		h.log.Error("mcp get_step_rollup", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"date":  dayStart,
		"slots": aggregate.HalfHourSteps(recs, dayStart, now),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSamples(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := time.Now()
	start := now.Add(-24 * time.Hour)
	end := now

	if s := req.GetString("start", ""); s != "" {
		t, err := parseFlexTime(s, h.loc)
		if err != nil {
			return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
		}
		start = t
	}
	if s := req.GetString("end", ""); s != "" {
		t, err := parseFlexTime(s, h.loc)
		if err != nil {
			return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
		}
		end = t
	}

	uid := UserIDFromContext(ctx, h.defaultUser)
	recs, err := h.store.GetRange(ctx, uid, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		h.log.Error("mcp get_samples", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if m := req.GetString("metric", ""); m != "" {
		kind := models.MetricKind(m)
		if !kind.Valid() {
			return mcp.NewToolResultError("unknown metric: " + m), nil
		}
		filtered := recs[:0]
		for _, r := range recs {
			if kind.Has(r) {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}

	result, err := mcp.NewToolResultJSON(recs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) dailySummaryResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx, h.defaultUser)
	now := time.Now().UnixMilli()
	start := aggregate.AddDays(aggregate.DayStart(now, h.loc), -2, h.loc)

	recs, err := h.store.GetRange(ctx, uid, start, now+1)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(view.BuildDailySummary(recs, now, h.loc))
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
