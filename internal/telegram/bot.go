// Package telegram runs an operator bot: it pushes run notifications to a
// configured chat and answers a small set of commands for driving demos
// from a phone.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/mission"
	"github.com/missionhq/missionctl/internal/orchestrator"
	"github.com/missionhq/missionctl/internal/registry"
	"github.com/missionhq/missionctl/internal/store"
)

type Bot struct {
	bot      *telego.Bot
	handler  *th.BotHandler
	engine   *orchestrator.Engine
	registry *registry.Registry
	state    *mission.State
	cfg      config.TelegramConfig
	cancel   context.CancelFunc
}

// NewBot creates the operator bot. The token is resolved by the caller
// (config or vault) and may differ from cfg.Token.
func NewBot(token string, cfg config.TelegramConfig, engine *orchestrator.Engine, reg *registry.Registry, state *mission.State) (*Bot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := &Bot{
		bot:      bot,
		engine:   engine,
		registry: reg,
		state:    state,
		cfg:      cfg,
	}

	engine.OnRunFinished(func(run store.Run, status string) {
		if b.cfg.ChatID == 0 {
			return
		}
		text := runSummary(run, status, state.Operations())
		if err := b.SendMessage(context.Background(), b.cfg.ChatID, text); err != nil {
			slog.Error("failed to send run notification", "chat", b.cfg.ChatID, "error", err)
		}
	})

	return b, nil
}

func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	updates, err := b.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		cancel()
		return fmt.Errorf("create handler: %w", err)
	}
	b.handler = handler

	handler.HandleMessage(func(hctx *th.Context, message telego.Message) error {
		b.handleMessage(ctx, message)
		return nil
	})

	go handler.Start()

	<-ctx.Done()
	_ = handler.Stop()
	return nil
}

func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.handler != nil {
		_ = b.handler.Stop()
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg telego.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if len(b.cfg.AllowFrom) > 0 {
		allowed := false
		for _, id := range b.cfg.AllowFrom {
			if id == userID {
				allowed = true
				break
			}
		}
		if !allowed {
			slog.Warn("unauthorized telegram user", "user_id", userID, "chat_id", chatID)
			return
		}
	}

	cmd, arg := splitCommand(msg.Text)
	var reply string
	switch cmd {
	case "/status":
		reply = statusText(b.state)
	case "/usecases":
		reply = useCasesText(b.registry)
	case "/deploy":
		reply = b.deploy(arg)
	case "/stop":
		if err := b.engine.Stop(); err != nil {
			reply = fmt.Sprintf("Cannot stop: %v", err)
		} else {
			reply = "Deployment stopped."
		}
	case "":
		return
	default:
		reply = "Commands: /status, /usecases, /deploy [use-case-id], /stop"
	}

	if err := b.SendMessage(ctx, chatID, reply); err != nil {
		slog.Error("failed to send telegram reply", "chat", chatID, "error", err)
	}
}

func (b *Bot) deploy(useCaseID string) string {
	if useCaseID != "" {
		if err := b.registry.Select(useCaseID); err != nil {
			return fmt.Sprintf("Cannot select %s: %v", useCaseID, err)
		}
	}
	run, err := b.engine.StartRun("telegram")
	if err != nil {
		return fmt.Sprintf("Cannot deploy: %v", err)
	}
	return fmt.Sprintf("Deploying %s (run %s).", run.UseCaseID, run.ID)
}

func splitCommand(text string) (cmd, arg string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", ""
	}
	// Strip the @botname suffix used in group chats.
	cmd, _, _ = strings.Cut(fields[0], "@")
	if len(fields) > 1 {
		arg = fields[1]
	}
	return cmd, arg
}

func statusText(state *mission.State) string {
	ops := state.Operations()
	var sb strings.Builder
	if id := state.UseCaseID(); id != "" {
		fmt.Fprintf(&sb, "Use case: %s\n", id)
	} else {
		sb.WriteString("No use case selected\n")
	}
	if state.Deployed() {
		sb.WriteString("Status: deployed\n")
	} else {
		sb.WriteString("Status: idle\n")
	}
	fmt.Fprintf(&sb, "Tasks: %d completed, %d failed\n", ops.TotalTasks, ops.FailedTasks)
	fmt.Fprintf(&sb, "Active workflows: %d\n", ops.ActiveWorkflows)
	fmt.Fprintf(&sb, "Avg duration: %.1fs", ops.AvgDuration)
	return sb.String()
}

func useCasesText(reg *registry.Registry) string {
	cases := reg.Catalog().UseCases()
	if len(cases) == 0 {
		return "No use cases available."
	}
	var sb strings.Builder
	sb.WriteString("Available use cases:\n")
	for _, uc := range cases {
		if !uc.Active {
			continue
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", uc.ID, uc.Industry)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func runSummary(run store.Run, status string, ops mission.OperationsSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s %s\n", run.ID, status)
	fmt.Fprintf(&sb, "Use case: %s\n", run.UseCaseID)
	fmt.Fprintf(&sb, "Trigger: %s\n", run.Trigger)
	fmt.Fprintf(&sb, "Tasks: %d completed, %d failed", ops.TotalTasks, ops.FailedTasks)
	return sb.String()
}
