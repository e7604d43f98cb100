package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/0xsamyy/sellwatch/internal/tracker"
)

// StoreCounter is the minimal interface we need from the store.
type StoreCounter interface {
	Counts(ctx context.Context) (balances int, alerts int, err error)
}

// Health exposes a read-only snapshot of service state for the /status command.
type Health struct {
	tm *tracker.Manager
	st StoreCounter

	lastPoll    atomic.Int64 // unix seconds, 0 = never
	lastRefresh atomic.Int64
}

// New returns a Health aggregator bound to the tracker manager and store.
func New(tm *tracker.Manager, st StoreCounter) *Health {
	return &Health{tm: tm, st: st}
}

// MarkPoll records that a full poll pass just completed.
func (h *Health) MarkPoll() { h.lastPoll.Store(time.Now().Unix()) }

// MarkRefresh records that a watch-set refresh pass just completed.
func (h *Health) MarkRefresh() { h.lastRefresh.Store(time.Now().Unix()) }

// Report is the struct returned to the caller (Telegram handler) for formatting.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`

	// From tracker.Manager.Stats()
	Mints      int      `json:"tracked_mints"`
	Accounts   int      `json:"watched_accounts"`
	EmptyMints []string `json:"unresolved_mints"`

	// From persistent store
	Baselines int `json:"persisted_baselines"`
	Alerts    int `json:"recorded_alerts"`

	LastPoll    time.Time `json:"last_poll"`
	LastRefresh time.Time `json:"last_refresh"`
}

// Snapshot gathers a point-in-time report. It does not block for long operations.
func (h *Health) Snapshot(ctx context.Context) Report {
	mints, accounts, empty := h.tm.Stats()

	var baselines, alerts int
	if h.st != nil {
		if b, a, err := h.st.Counts(ctx); err == nil {
			baselines, alerts = b, a
		}
	}

	rep := Report{
		GeneratedAt: time.Now().UTC(),
		Mints:       mints,
		Accounts:    accounts,
		EmptyMints:  append([]string(nil), empty...), // defensive copy
		Baselines:   baselines,
		Alerts:      alerts,
	}
	if ts := h.lastPoll.Load(); ts > 0 {
		rep.LastPoll = time.Unix(ts, 0).UTC()
	}
	if ts := h.lastRefresh.Load(); ts > 0 {
		rep.LastRefresh = time.Unix(ts, 0).UTC()
	}
	return rep
}
