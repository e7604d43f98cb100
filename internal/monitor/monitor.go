package monitor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/0xsamyy/sellwatch/internal/analyzer"
	"github.com/0xsamyy/sellwatch/internal/health"
	"github.com/0xsamyy/sellwatch/internal/store"
	"github.com/0xsamyy/sellwatch/internal/tracker"
	"github.com/sirupsen/logrus"
)

// Source is the data-source capability the monitor consumes: a holder
// ranking per mint and a balance per token account. Any error means
// "unavailable this cycle"; the next tick is the retry.
type Source interface {
	LargestHolders(ctx context.Context, mint string, limit int) ([]string, error)
	AccountBalance(ctx context.Context, account string) (*big.Int, error)
}

// BalanceStore is the subset of the store the poll path needs.
type BalanceStore interface {
	GetBalance(ctx context.Context, mint, account string) (*big.Int, error)
	PutBalance(ctx context.Context, mint, account string, balance *big.Int) error
}

// Monitor drives the two periodic cadences: balance polling over the
// current watch sets, and watch-set refresh from the holder ranking.
type Monitor struct {
	src      Source
	st       BalanceStore
	tm       *tracker.Manager
	detector *analyzer.Detector
	disp     *analyzer.Dispatcher
	hlth     *health.Health // may be nil

	topN         int
	pollEvery    time.Duration
	refreshEvery time.Duration // 0 disables auto-refresh
	logger       *logrus.Logger
}

// Options collects the Monitor dependencies.
type Options struct {
	Source       Source
	Store        BalanceStore
	Tracker      *tracker.Manager
	Detector     *analyzer.Detector
	Dispatcher   *analyzer.Dispatcher
	Health       *health.Health
	TopN         int
	PollEvery    time.Duration
	RefreshEvery time.Duration
	Logger       *logrus.Logger
}

// New constructs a Monitor. Call Run to start it.
func New(opts Options) *Monitor {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &Monitor{
		src:          opts.Source,
		st:           opts.Store,
		tm:           opts.Tracker,
		detector:     opts.Detector,
		disp:         opts.Dispatcher,
		hlth:         opts.Health,
		topN:         opts.TopN,
		pollEvery:    opts.PollEvery,
		refreshEvery: opts.RefreshEvery,
		logger:       opts.Logger,
	}
}

// Run resolves the initial watch sets, then ticks until ctx is done.
// Poll and refresh cadences are independent; refresh timing lives only in
// memory and restarts from "now" after a process restart.
func (m *Monitor) Run(ctx context.Context) {
	m.RefreshAll(ctx)
	m.PollAll(ctx)

	pollTicker := time.NewTicker(m.pollEvery)
	defer pollTicker.Stop()

	var refreshCh <-chan time.Time
	if m.refreshEvery > 0 {
		refreshTicker := time.NewTicker(m.refreshEvery)
		defer refreshTicker.Stop()
		refreshCh = refreshTicker.C
	}

	m.logger.WithFields(logrus.Fields{
		"poll_interval":    m.pollEvery,
		"refresh_interval": m.refreshEvery,
		"mints":            len(m.tm.Mints()),
	}).Info("monitor started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return
		case <-pollTicker.C:
			m.PollAll(ctx)
		case <-refreshCh:
			m.RefreshAll(ctx)
		}
	}
}

// RefreshAll re-resolves the watch set for every tracked mint.
func (m *Monitor) RefreshAll(ctx context.Context) {
	for _, mint := range m.tm.Mints() {
		if ctx.Err() != nil {
			return
		}
		m.refresh(ctx, mint)
	}
	if m.hlth != nil {
		m.hlth.MarkRefresh()
	}
}

// refresh replaces the watch set for one mint from the holder ranking and
// seeds store-unknown accounts with their current balance. A failed ranking
// query keeps the previous set untouched.
func (m *Monitor) refresh(ctx context.Context, mint string) {
	log := m.logger.WithField("mint", short(mint))

	holders, err := m.src.LargestHolders(ctx, mint, m.topN)
	if err != nil {
		log.WithError(err).Warn("holder refresh failed; keeping previous watch set")
		return
	}
	m.tm.Replace(mint, holders)
	log.WithField("accounts", len(holders)).Info("watch set refreshed")

	for _, account := range holders {
		if ctx.Err() != nil {
			return
		}
		if _, err := m.st.GetBalance(ctx, mint, account); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			log.WithError(err).WithField("account", short(account)).Error("store read failed")
			continue
		}
		// Fresh account: record the current balance as a baseline. No
		// alert can fire here, there is nothing to compare against.
		balance, err := m.src.AccountBalance(ctx, account)
		if err != nil {
			log.WithError(err).WithField("account", short(account)).Warn("seed fetch failed; will seed on next poll")
			continue
		}
		if err := m.st.PutBalance(ctx, mint, account, balance); err != nil {
			log.WithError(err).WithField("account", short(account)).Error("seed write failed")
			continue
		}
		log.WithFields(logrus.Fields{
			"account": short(account),
			"balance": balance.String(),
		}).Info("seeded baseline")
	}
}

// PollAll runs one sampling+detection pass per mint. Mints run concurrently;
// accounts within one mint run sequentially, which serializes every
// read-then-write on a (mint, account) pair.
func (m *Monitor) PollAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, mint := range m.tm.Mints() {
		wg.Add(1)
		go func(mint string) {
			defer wg.Done()
			m.pollMint(ctx, mint)
		}(mint)
	}
	wg.Wait()
	if m.hlth != nil {
		m.hlth.MarkPoll()
	}
}

func (m *Monitor) pollMint(ctx context.Context, mint string) {
	for _, account := range m.tm.Snapshot(mint) {
		if ctx.Err() != nil {
			return
		}
		m.pollAccount(ctx, mint, account)
	}
}

// pollAccount samples one account, classifies the transition against the
// stored baseline, and applies the outcome. Fetch failures skip only this
// account; persistence failures are surfaced and never masked.
func (m *Monitor) pollAccount(ctx context.Context, mint, account string) {
	log := m.logger.WithFields(logrus.Fields{
		"mint":    short(mint),
		"account": short(account),
	})

	current, err := m.src.AccountBalance(ctx, account)
	if err != nil {
		log.WithError(err).Warn("balance fetch failed; skipping this cycle")
		return
	}

	prev, err := m.st.GetBalance(ctx, mint, account)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.WithError(err).Error("store read failed; skipping this cycle")
		return
	}

	ch := m.detector.Classify(prev, current)
	switch ch.Class {
	case analyzer.Unchanged:
		return

	case analyzer.Seed:
		if err := m.st.PutBalance(ctx, mint, account, current); err != nil {
			log.WithError(err).Error("baseline write failed")
			return
		}
		log.WithField("balance", current.String()).Info("seeded baseline")

	case analyzer.Increase:
		if err := m.st.PutBalance(ctx, mint, account, current); err != nil {
			log.WithError(err).Error("baseline write failed")
			return
		}
		log.WithField("balance", current.String()).Debug("balance increased")

	case analyzer.SmallDecrease:
		if err := m.st.PutBalance(ctx, mint, account, current); err != nil {
			log.WithError(err).Error("baseline write failed")
			return
		}
		log.WithFields(logrus.Fields{
			"sold": ch.Sold.String(),
			"pct":  ch.Pct.StringFixed(4),
		}).Info("small decrease, below threshold")

	case analyzer.AlertableDecrease:
		if err := m.disp.Dispatch(ctx, mint, account, ch); err != nil {
			// Baseline intentionally not advanced: the alert was not
			// durably recorded, so the next pass re-detects the drop.
			log.WithError(err).Error("alert dispatch failed; baseline unchanged")
			return
		}
		if err := m.st.PutBalance(ctx, mint, account, current); err != nil {
			log.WithError(err).Error("baseline write failed after alert")
			return
		}
		log.WithFields(logrus.Fields{
			"sold": ch.Sold.String(),
			"pct":  ch.Pct.StringFixed(4),
		}).Warn("alertable decrease dispatched")
	}
}

func short(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
