package tracker

import (
	"sort"
	"sync"
)

// Manager owns the per-mint watch sets (the accounts currently polled for
// each tracked token). It is concurrency-safe via an internal RWMutex; all
// critical sections only copy slices, so a slow holder refresh never blocks
// an in-flight poll of the previous set.
type Manager struct {
	mu   sync.RWMutex
	sets map[string][]string // mint -> ordered account addresses
}

// NewManager constructs an empty Manager for the given mints. Each mint
// starts with an empty watch set until its first successful refresh.
func NewManager(mints []string) *Manager {
	sets := make(map[string][]string, len(mints))
	for _, m := range mints {
		sets[m] = nil
	}
	return &Manager{sets: sets}
}

// Replace swaps in a freshly resolved watch set for mint, discarding the
// previous one wholesale. Accounts dropped from the set keep their persisted
// baseline but stop being polled.
func (m *Manager) Replace(mint string, accounts []string) {
	cp := append([]string(nil), accounts...)
	m.mu.Lock()
	m.sets[mint] = cp
	m.mu.Unlock()
}

// Snapshot returns a copy of the current watch set for mint. Callers operate
// on the copy, outside the lock.
func (m *Manager) Snapshot(mint string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.sets[mint]...)
}

// Mints returns a sorted list of tracked mints.
func (m *Manager) Mints() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.sets))
	for mint := range m.sets {
		out = append(out, mint)
	}
	sort.Strings(out)
	return out
}

// Stats reports:
//
//	mints    = number of tracked tokens
//	accounts = total watched accounts across all sets
//	empty    = mints whose watch set has not resolved yet
//
// This is used by the /status command.
func (m *Manager) Stats() (mints int, accounts int, empty []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mints = len(m.sets)
	for mint, set := range m.sets {
		accounts += len(set)
		if len(set) == 0 {
			empty = append(empty, mint)
		}
	}
	// Keep output deterministic for tests / logs.
	sort.Strings(empty)
	return
}
