package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/0xsamyy/sellwatch/internal/store"
	"github.com/sirupsen/logrus"
)

// AlertStore is the minimal interface the dispatcher needs from the store.
type AlertStore interface {
	RecordAlert(ctx context.Context, a store.Alert) (bool, error)
}

// Notifier delivers a text message, best effort. Delivery failure is never
// escalated past a log line.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// defaultSendTimeout bounds each delivery attempt so an unresponsive sink
// never stalls a poll cycle.
const defaultSendTimeout = 10 * time.Second

// Dispatcher turns an AlertableDecrease into a durable alert record and a
// notification attempt, in that order. Recording failure propagates to the
// caller; delivery failure does not.
type Dispatcher struct {
	st       AlertStore
	notifier Notifier // nil when no sink is configured
	endpoint string   // data-source URL, included in the message
	logger   *logrus.Logger

	now         func() time.Time // injectable for tests
	sendTimeout time.Duration
}

// NewDispatcher wires the dispatcher. notifier may be nil; alerts are then
// echoed to stdout instead of being dropped.
func NewDispatcher(st AlertStore, notifier Notifier, endpoint string, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		st:          st,
		notifier:    notifier,
		endpoint:    endpoint,
		logger:      logger,
		now:         time.Now,
		sendTimeout: defaultSendTimeout,
	}
}

// Dispatch records the alert, then attempts delivery. The record write must
// succeed before any notification happens: a crash between the two leaves a
// durable record and no message, never the other way around.
func (d *Dispatcher) Dispatch(ctx context.Context, mint, account string, ch Change) error {
	alert := store.Alert{
		Mint:       mint,
		Account:    account,
		Timestamp:  d.now().Unix(),
		PrevAmount: ch.Prev,
		NewAmount:  ch.New,
		SoldAmount: ch.Sold,
	}

	inserted, err := d.st.RecordAlert(ctx, alert)
	if err != nil {
		// Persistence failure must be loud: proceeding as if recorded
		// risks re-alerting or losing the event entirely.
		return fmt.Errorf("record alert: %w", err)
	}
	if !inserted {
		d.logger.WithFields(logrus.Fields{
			"mint":    mint,
			"account": account,
			"ts":      alert.Timestamp,
		}).Debug("alert already recorded for this second; delivering anyway")
	}

	msg := d.composeMessage(mint, account, ch)
	if d.notifier == nil {
		// No sink configured: surface on stdout rather than drop.
		fmt.Println(msg)
		return nil
	}
	// The caller's context lives for the whole process; delivery gets its
	// own deadline so a wedged sink cannot hold a poll pass hostage.
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	if err := d.notifier.Send(sendCtx, msg); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"mint":    mint,
			"account": account,
		}).Error("alert delivery failed (record is durable)")
	}
	return nil
}

func (d *Dispatcher) composeMessage(mint, account string, ch Change) string {
	var b strings.Builder
	b.WriteString("🚨 Probable dev sell\n")
	b.WriteString(fmt.Sprintf("Token: %s\n", mint))
	b.WriteString(fmt.Sprintf("Account: %s\n", account))
	b.WriteString(fmt.Sprintf("Balance: %s → %s (base units)\n", groupDigits(ch.Prev.String()), groupDigits(ch.New.String())))
	b.WriteString(fmt.Sprintf("Sold: %s (%s%%)\n", groupDigits(ch.Sold.String()), ch.Pct.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Source: %s", d.endpoint))
	return b.String()
}

// groupDigits adds thousand separators to a non-negative integer string.
func groupDigits(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	commas := (n - 1) / 3
	b := make([]byte, n+commas)
	for i, j, k := n-1, len(b)-1, 0; ; i, j = i-1, j-1 {
		b[j] = s[i]
		if i == 0 {
			return string(b)
		}
		k++
		if k%3 == 0 {
			j--
			b[j] = ','
		}
	}
}
