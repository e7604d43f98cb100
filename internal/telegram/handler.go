package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/0xsamyy/sellwatch/internal/health"
	"github.com/0xsamyy/sellwatch/internal/store"
	"github.com/0xsamyy/sellwatch/internal/tracker"
	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
)

// AlertLister is the minimal interface we need from the store.
type AlertLister interface {
	RecentAlerts(ctx context.Context, n int) ([]store.Alert, error)
}

// Handler answers read-only admin commands: the monitoring loop never
// depends on it, and it never mutates watch sets or recorded state.
type Handler struct {
	bot     *tg.Bot
	adminID int64
	tm      *tracker.Manager
	st      AlertLister
	hlth    *health.Health
	logger  *logrus.Logger
}

// New constructs the Telegram command Handler.
func New(bot *tg.Bot, adminID int64, tm *tracker.Manager, st AlertLister, hlth *health.Health, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{bot: bot, adminID: adminID, tm: tm, st: st, hlth: hlth, logger: logger}
}

// Run starts long-polling and handles updates until ctx is done.
func (h *Handler) Run(ctx context.Context) {
	h.bot.RegisterHandler(tg.HandlerTypeMessageText, "", tg.MatchTypePrefix, func(c context.Context, b *tg.Bot, u *models.Update) {
		if u.Message == nil || u.Message.Chat.ID != h.adminID {
			return
		}
		h.handleCommand(c, u.Message)
	})
	h.bot.Start(ctx)
}

func (h *Handler) handleCommand(ctx context.Context, m *models.Message) {
	raw := strings.TrimSpace(m.Text)
	lower := strings.ToLower(raw)
	if idx := strings.IndexRune(lower, '@'); idx != -1 {
		lower = lower[:idx]
		raw = raw[:idx]
	}
	switch {
	case lower == "/help":
		h.replyHelp(ctx, m.Chat.ID)

	case lower == "/status":
		rep := h.hlth.Snapshot(ctx)
		msg := fmt.Sprintf(
			"📊 <b>Status</b>\n"+
				"- Tracked mints: <code>%d</code>\n"+
				"- Watched accounts: <code>%d</code>\n"+
				"- Unresolved mints: <code>%d</code>\n"+
				"- Persisted baselines: <code>%d</code>\n"+
				"- Recorded alerts: <code>%d</code>\n"+
				"- Last poll: <code>%s</code>\n"+
				"- Last refresh: <code>%s</code>",
			rep.Mints, rep.Accounts, len(rep.EmptyMints), rep.Baselines, rep.Alerts,
			fmtTime(rep.LastPoll), fmtTime(rep.LastRefresh),
		)
		h.sendHTML(ctx, m.Chat.ID, msg)

	case lower == "/tokens":
		mints := h.tm.Mints()
		if len(mints) == 0 {
			h.sendHTML(ctx, m.Chat.ID, "<b>No tokens tracked.</b>")
			return
		}
		var b strings.Builder
		b.WriteString("📋 <b>Tracked tokens:</b>\n")
		for _, mint := range mints {
			b.WriteString(fmt.Sprintf("- <code>%s</code> (%d accounts)\n", escapeHTML(mint), len(h.tm.Snapshot(mint))))
		}
		h.sendHTML(ctx, m.Chat.ID, b.String())

	case lower == "/alerts" || strings.HasPrefix(lower, "/alerts "):
		n := 5
		if arg := strings.TrimSpace(raw[len("/alerts"):]); arg != "" {
			parsed, err := strconv.Atoi(arg)
			if err != nil || parsed < 1 || parsed > 50 {
				h.sendHTML(ctx, m.Chat.ID, "usage: <code>/alerts [1-50]</code>")
				return
			}
			n = parsed
		}
		alerts, err := h.st.RecentAlerts(ctx, n)
		if err != nil {
			h.sendHTML(ctx, m.Chat.ID, fmt.Sprintf("alerts query failed: <code>%v</code>", err))
			return
		}
		if len(alerts) == 0 {
			h.sendHTML(ctx, m.Chat.ID, "<b>No alerts recorded.</b>")
			return
		}
		var b strings.Builder
		b.WriteString(fmt.Sprintf("🚨 <b>Last %d alert(s):</b>\n", len(alerts)))
		for _, a := range alerts {
			b.WriteString(fmt.Sprintf(
				"- <code>%s</code> %s: sold <code>%s</code> (%s → %s)\n",
				time.Unix(a.Timestamp, 0).UTC().Format(time.RFC3339),
				shortAddr(a.Account),
				a.SoldAmount.String(),
				a.PrevAmount.String(),
				a.NewAmount.String(),
			))
		}
		h.sendHTML(ctx, m.Chat.ID, b.String())

	default:
		h.sendHTML(ctx, m.Chat.ID, "unknown command. try <code>/help</code>")
	}
}

func (h *Handler) replyHelp(ctx context.Context, chatID int64) {
	help := strings.TrimSpace(`
🛠 <b>sellwatch</b>

<b>Commands:</b>
- <code>/status</code> - Service health snapshot
- <code>/tokens</code> - Tracked tokens and watch-set sizes
- <code>/alerts [n]</code> - Recent dev-sell alerts
`)
	h.sendHTML(ctx, chatID, help)
}

func (h *Handler) sendHTML(ctx context.Context, chatID int64, html string) {
	disable := true
	_, err := h.bot.SendMessage(ctx, &tg.SendMessageParams{
		ChatID:    chatID,
		Text:      html,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disable,
		},
	})
	if err != nil {
		h.logger.WithError(err).Error("telegram send failed")
	}
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func shortAddr(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}

func escapeHTML(s string) string {
	replacer := strings.NewReplacer(
		`&`, "&amp;",
		`<`, "&lt;",
		`>`, "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
