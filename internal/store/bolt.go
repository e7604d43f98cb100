package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned by GetBalance when an account has no recorded
// baseline. Distinct from a stored balance of zero.
var ErrNotFound = errors.New("balance not found")

var (
	bucketBalances = []byte("balances")
	bucketAlerts   = []byte("alerts")
)

// Alert is one immutable dev-sell record. Uniqueness is enforced on the
// (mint, account, timestamp) key; rows are append-only.
type Alert struct {
	Mint       string   `json:"mint"`
	Account    string   `json:"account"`
	Timestamp  int64    `json:"timestamp"` // unix seconds at detection
	PrevAmount *big.Int `json:"prev_amount"`
	NewAmount  *big.Int `json:"new_amount"`
	SoldAmount *big.Int `json:"sold_amount"`
}

// Bolt is a bbolt-backed store for account baselines and alert records.
// bbolt serializes write transactions and fsyncs on commit, so every
// mutation below is durable before the method returns.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (or creates) the database file and ensures buckets exist.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(bucketBalances); e != nil {
			return e
		}
		_, e := tx.CreateBucketIfNotExists(bucketAlerts)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Close releases the underlying database file.
func (s *Bolt) Close() error { return s.db.Close() }

// GetBalance returns the last persisted baseline for (mint, account),
// or ErrNotFound if the account has never been observed.
func (s *Bolt) GetBalance(_ context.Context, mint, account string) (*big.Int, error) {
	var out *big.Int
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketBalances).Get(balanceKey(mint, account))
		if raw == nil {
			return ErrNotFound
		}
		bal, ok := new(big.Int).SetString(string(raw), 10)
		if !ok {
			return fmt.Errorf("corrupt balance for %s/%s: %q", mint, account, raw)
		}
		out = bal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutBalance upserts the baseline for (mint, account). Last write wins.
func (s *Bolt) PutBalance(_ context.Context, mint, account string, balance *big.Int) error {
	if balance == nil || balance.Sign() < 0 {
		return fmt.Errorf("refusing to store invalid balance for %s/%s", mint, account)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBalances).Put(balanceKey(mint, account), []byte(balance.String()))
	})
	if err != nil {
		return fmt.Errorf("put balance %s/%s: %w", mint, account, err)
	}
	return nil
}

// RecordAlert appends an alert record. Returns false (and no error) when a
// record with the same (mint, account, timestamp) already exists; the
// duplicate case is a normal outcome, not a failure.
func (s *Bolt) RecordAlert(_ context.Context, a Alert) (bool, error) {
	inserted := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAlerts)
		key := alertKey(a.Mint, a.Account, a.Timestamp)
		if b.Get(key) != nil {
			return nil // already recorded
		}
		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if err := b.Put(key, raw); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("record alert %s/%s: %w", a.Mint, a.Account, err)
	}
	return inserted, nil
}

// RecentAlerts returns up to n alert records, newest first.
func (s *Bolt) RecentAlerts(_ context.Context, n int) ([]Alert, error) {
	var out []Alert
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAlerts).ForEach(func(_, v []byte) error {
			var a Alert
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Counts reports how many baselines and alert records are persisted.
// Used by the /status health snapshot.
func (s *Bolt) Counts(_ context.Context) (balances int, alerts int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		balances = tx.Bucket(bucketBalances).Stats().KeyN
		alerts = tx.Bucket(bucketAlerts).Stats().KeyN
		return nil
	})
	return balances, alerts, err
}

// Addresses are base58, so '|' can never collide with key content.
func balanceKey(mint, account string) []byte {
	return []byte(mint + "|" + account)
}

func alertKey(mint, account string, ts int64) []byte {
	return []byte(fmt.Sprintf("%s|%s|%d", mint, account, ts))
}
