package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/C-Tharun/vitalsync/internal/aggregate"
	"github.com/C-Tharun/vitalsync/internal/models"
	"github.com/C-Tharun/vitalsync/internal/store"
	"github.com/C-Tharun/vitalsync/internal/syncer"
)

// Selection names the metric and day a history view is built for.
type Selection struct {
	Kind models.MetricKind `json:"metric"`
	Date int64             `json:"date"`
}

// Engine owns the active user and the current view snapshots. Writers go
// through the syncer; the engine only reads the store, so a recompute never
// blocks on the provider.
//
// Every recompute carries the generation current at launch; results from a
// superseded generation are discarded, which is what makes rapid user or
// metric reselection safe.
type Engine struct {
	store  store.Store
	syncer *syncer.Syncer
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time

	mu         sync.Mutex
	generation uint64
	userID     string
	name       string
	selection  *Selection
	dashboard  DashboardView
	history    HistoryView

	updates chan struct{}

	cancelWatch func()
	watchDone   chan struct{}
}

// NewEngine creates an engine and starts its change watcher against n.
func NewEngine(st store.Store, sy *syncer.Syncer, n *store.Notifier, logger *slog.Logger, loc *time.Location) *Engine {
	e := &Engine{
		store:   st,
		syncer:  sy,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
		updates: make(chan struct{}, 1),
	}

	events, cancel := n.Subscribe()
	e.cancelWatch = cancel
	e.watchDone = make(chan struct{})
	go e.watch(events)
	return e
}

// Close stops the change watcher.
func (e *Engine) Close() {
	e.cancelWatch()
	<-e.watchDone
}

// watch recomputes snapshots whenever store contents change for the active
// user. Events are already coalesced by the notifier.
func (e *Engine) watch(events <-chan store.ChangeEvent) {
	defer close(e.watchDone)
	for ev := range events {
		e.mu.Lock()
		userID := e.userID
		gen := e.generation
		e.mu.Unlock()

		if userID == "" || (ev.UserID != "" && ev.UserID != userID) {
			continue
		}
		e.recompute(context.Background(), gen)
	}
}

// SetUser switches the active user. All views reset synchronously so stale
// data is never served; fresh data arrives via an async full sync.
func (e *Engine) SetUser(userID, displayName string) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.userID = userID
	e.name = displayName
	e.selection = nil
	e.dashboard = DashboardView{UserID: userID, DisplayName: displayName}
	e.history = HistoryView{}
	e.mu.Unlock()

	e.signal()
	if userID == "" {
		return
	}

	e.recompute(context.Background(), gen)
	go func() {
		ctx := context.Background()
		if err := e.syncer.SyncAllMetricsForToday(ctx, userID); err != nil {
			e.logger.Warn("background sync failed", "user", userID, "error", err)
		}
		if err := e.syncer.SyncLastWeek(ctx, userID); err != nil {
			e.logger.Warn("background week sync failed", "user", userID, "error", err)
		}
	}()
}

// User returns the active user and display name.
func (e *Engine) User() (string, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID, e.name
}

// Select points the history view at a metric and day. The local rebuild is
// synchronous, so the caller immediately sees the best available local
// data; a history sync runs async and lands via the notifier.
func (e *Engine) Select(kind models.MetricKind, date int64) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	userID := e.userID
	dayStart := aggregate.DayStart(date, e.loc)
	e.selection = &Selection{Kind: kind, Date: dayStart}
	e.history = HistoryView{Metric: kind, Date: dayStart}
	e.mu.Unlock()

	e.signal()
	if userID == "" {
		return
	}

	e.recompute(context.Background(), gen)
	go func() {
		dayEnd := aggregate.AddDays(dayStart, 1, e.loc)
		if err := e.syncer.SyncHistory(context.Background(), userID, kind, dayStart, dayEnd); err != nil {
			e.logger.Warn("history sync failed", "user", userID, "metric", string(kind), "error", err)
		}
	}()
}

// Dashboard returns the current dashboard snapshot.
func (e *Engine) Dashboard() DashboardView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dashboard
}

// History returns the current history snapshot.
func (e *Engine) History() HistoryView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history
}

// Updates signals (edge-triggered, coalesced) whenever a snapshot changes.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) signal() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// recompute rebuilds both snapshots from the store, then installs them only
// if gen is still current.
func (e *Engine) recompute(ctx context.Context, gen uint64) {
	e.mu.Lock()
	userID := e.userID
	name := e.name
	sel := e.selection
	e.mu.Unlock()

	if userID == "" {
		return
	}

	now := e.now().UnixMilli()
	recs, err := queryWindow(ctx, e.store, userID, now, e.loc)
	if err != nil {
		e.logger.Warn("view query failed", "user", userID, "error", err)
		return
	}

	dash := DashboardView{
		UserID:      userID,
		DisplayName: name,
		Summary:     BuildDailySummary(recs, now, e.loc),
		StepsWeek: WeeklySeriesView{Metric: models.MetricSteps,
			Points: aggregate.WeeklySeries(recs, models.MetricSteps, now, e.loc)},
		CalWeek: WeeklySeriesView{Metric: models.MetricCalories,
			Points: aggregate.WeeklySeries(recs, models.MetricCalories, now, e.loc)},
		GeneratedAt: now,
	}

	var hist HistoryView
	if sel != nil {
		dayEnd := aggregate.AddDays(sel.Date, 1, e.loc)
		histStart := sel.Date
		if sel.Kind == models.MetricSleep {
			// Sleep sessions for a day start the prior evening.
			histStart = sel.Date - 36*time.Hour.Milliseconds()
		}
		dayRecs, err := e.store.GetRange(ctx, userID, histStart, dayEnd)
		if err != nil {
			e.logger.Warn("history query failed", "user", userID, "error", err)
			return
		}
		hist = BuildHistory(dayRecs, sel.Kind, sel.Date, now, e.loc)
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	e.dashboard = dash
	if sel != nil {
		e.history = hist
	}
	e.mu.Unlock()
	e.signal()
}
