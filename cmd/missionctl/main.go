package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/content"
	"github.com/missionhq/missionctl/internal/mission"
	"github.com/missionhq/missionctl/internal/natsbus"
	"github.com/missionhq/missionctl/internal/orchestrator"
	"github.com/missionhq/missionctl/internal/registry"
	"github.com/missionhq/missionctl/internal/reports"
	"github.com/missionhq/missionctl/internal/scheduler"
	"github.com/missionhq/missionctl/internal/simulate"
	"github.com/missionhq/missionctl/internal/store"
	"github.com/missionhq/missionctl/internal/telegram"
	"github.com/missionhq/missionctl/internal/web"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("missionctl %s\n", version)
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("serve failed", "error", err)
			os.Exit(1)
		}
	case "export":
		if err := runExport(os.Args[2:]); err != nil {
			slog.Error("export failed", "error", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: missionctl <command>\n\nCommands:\n  serve      Start the mission control service\n  export     Export content, data and reports to a tar.zst archive\n  version    Print version\n")
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting mission control", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	slog.Info("nats started", "port", cfg.NATS.Port)

	catalog, err := content.Load(cfg.Content.Dir)
	if err != nil {
		return fmt.Errorf("load content catalog: %w", err)
	}
	slog.Info("content catalog loaded", "use_cases", len(catalog.UseCases()))

	state := mission.NewState()

	reg := registry.New(db, catalog, state)
	if err := reg.Sync(); err != nil {
		return fmt.Errorf("sync use case registry: %w", err)
	}
	if err := reg.Restore(); err != nil {
		slog.Warn("no use case restored", "error", err)
	}

	rep := reports.New(db, catalog, cfg.Reports.Dir)

	eng := orchestrator.New(state, db, catalog, bus, rep, cfg.Engine)

	disp, err := orchestrator.NewDispatcher(state, bus)
	if err != nil {
		return fmt.Errorf("init dispatcher: %w", err)
	}
	defer disp.Close()

	// The web server owns the push channel; the poller falls back to
	// synthesizing data only while nobody is connected to it.
	connected := func() bool { return false }
	if cfg.Web.Enabled {
		srv := web.NewServer(db, bus, eng, reg, rep, state, cfg.Web, version)
		connected = func() bool { return srv.Hub().ClientCount() > 0 }
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
		slog.Info("web server started", "port", cfg.Web.Port)
	}

	poller := simulate.NewPoller(state, catalog, cfg.Poller, connected)
	go poller.Start(ctx)

	sched := scheduler.New(db, reg, eng, cfg.Replay)
	go sched.Start(ctx)

	if token, err := resolveTelegramToken(db, cfg.Telegram); err != nil {
		slog.Warn("telegram token unavailable, bot disabled", "error", err)
	} else if token == "" {
		slog.Warn("telegram token not set, bot disabled")
	} else {
		bot, err := telegram.NewBot(token, cfg.Telegram, eng, reg, state)
		if err != nil {
			return fmt.Errorf("init telegram bot: %w", err)
		}
		go bot.Start(ctx)
		slog.Info("telegram bot started")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()

	return nil
}
