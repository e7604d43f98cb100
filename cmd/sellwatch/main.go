package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xsamyy/sellwatch/internal/analyzer"
	"github.com/0xsamyy/sellwatch/internal/config"
	"github.com/0xsamyy/sellwatch/internal/health"
	"github.com/0xsamyy/sellwatch/internal/monitor"
	"github.com/0xsamyy/sellwatch/internal/rpc"
	"github.com/0xsamyy/sellwatch/internal/store"
	"github.com/0xsamyy/sellwatch/internal/telegram"
	"github.com/0xsamyy/sellwatch/internal/tracker"
	tg "github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.MustLoad()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.Info(cfg.RedactedSummary())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.NewBolt(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("store init failed")
	}
	defer func() {
		if e := st.Close(); e != nil {
			logger.WithError(e).Error("store close failed")
		}
	}()

	client := rpc.NewClient(cfg.RPCURL, logger)
	tm := tracker.NewManager(cfg.TokenMints)
	hlth := health.New(tm, st)

	var bot *tg.Bot
	var notifier analyzer.Notifier
	if cfg.TelegramEnabled() {
		bot, err = tg.New(cfg.TelegramBotToken)
		if err != nil {
			logger.WithError(err).Fatal("telegram init failed")
		}
		notifier = telegram.NewNotifier(bot, cfg.TelegramChatID)
	} else {
		logger.Warn("telegram not configured; alerts go to stdout only")
	}

	disp := analyzer.NewDispatcher(st, notifier, cfg.RPCURL, logger)
	mon := monitor.New(monitor.Options{
		Source:       client,
		Store:        st,
		Tracker:      tm,
		Detector:     analyzer.NewDetector(cfg.ThresholdPct),
		Dispatcher:   disp,
		Health:       hlth,
		TopN:         cfg.TopN,
		PollEvery:    cfg.CheckInterval,
		RefreshEvery: cfg.AutoRefreshInterval,
		Logger:       logger,
	})

	monDone := make(chan struct{})
	go func() {
		defer close(monDone)
		mon.Run(ctx)
	}()

	if bot != nil {
		th := telegram.New(bot, cfg.TelegramChatID, tm, st, hlth, logger)
		logger.Info("started; awaiting Telegram commands")
		th.Run(ctx)
	} else {
		logger.Info("started")
		<-ctx.Done()
	}

	// The store must outlive any in-flight poll pass.
	<-monDone
	logger.Info("shutdown complete")
}
