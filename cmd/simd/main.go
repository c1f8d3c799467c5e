package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"BinaryTrade/internal/config"
	"BinaryTrade/internal/ledger"
	"BinaryTrade/internal/market"
	"BinaryTrade/internal/model"
	"BinaryTrade/internal/notifier"
	"BinaryTrade/internal/scheduler"
	"BinaryTrade/internal/server"
	"BinaryTrade/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] BinaryTrade starting...")

	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Account.StateFile), 0755); err != nil {
		log.Fatalf("[FATAL] create data dir: %v", err)
	}

	// Init balance ledger (the external account collaborator)
	balance, err := ledger.NewFileLedger(cfg.Account.StateFile, cfg.Account.InitialBalance)
	if err != nil {
		log.Fatalf("[FATAL] init balance ledger: %v", err)
	}

	// Init wager store
	var st store.WagerStore
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using in-memory: %v", err)
			st = store.NewMemoryStore()
		} else {
			st = ss
			defer ss.Close()
		}
	} else {
		st = store.NewMemoryStore()
	}

	// Init market feed with the default selection
	feed := market.NewFeed(time.Duration(cfg.Market.TickIntervalMs) * time.Millisecond)
	tf, _ := model.ParseTimeframe(cfg.Market.DefaultTimeframe)
	feed.Select(cfg.Market.DefaultAsset, tf)
	defer feed.Stop()

	// Init wager ledger and recover persisted wagers
	wl := ledger.NewWagerLedger(balance, st)
	saved, err := st.LoadWagers()
	if err != nil {
		log.Printf("[WARN] load persisted wagers: %v", err)
	}
	wl.Restore(saved)

	// Init notifier
	var ntf notifier.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		ntf = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Println("[INFO] telegram notifier enabled")
	} else {
		ntf = notifier.NewLogNotifier()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init expiry scheduler: settle anything that expired while we were
	// down, arm the rest, start the sweep.
	sched := scheduler.NewScheduler(ctx, wl, feed, ntf)
	if err := sched.Register(cfg.Schedule.SweepCron); err != nil {
		log.Fatalf("[FATAL] register reconciliation sweep: %v", err)
	}
	sched.Reconcile()
	sched.Start()
	defer sched.Stop()

	// Startup notice with the recovered balance
	go func() {
		if err := ntf.Notify(ctx, notifier.FormatBalance(balance.Balance())); err != nil {
			log.Printf("[WARN] send startup notice: %v", err)
		}
	}()

	// Init HTTP/websocket server
	srv := server.NewServer(feed, wl, balance, sched, ntf)
	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Handler()}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] BinaryTrade is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] BinaryTrade stopped")
}
