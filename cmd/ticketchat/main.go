package main

import (
	"log"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-console/internal/api"
	"github.com/spec-kit/ticket-console/internal/config"
	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/internal/events"
	"github.com/spec-kit/ticket-console/internal/observability"
	"github.com/spec-kit/ticket-console/internal/render"
	"github.com/spec-kit/ticket-console/internal/service"
	"github.com/spec-kit/ticket-console/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.Desk.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Desk.RequestTimeout()},
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to build api client", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)

	facade, err := service.NewFacade(service.FacadeConfig{
		TicketID:       cfg.Console.TicketID,
		CurrentUserID:  cfg.Console.CurrentUserID,
		Channels:       []domain.Channel{domain.ChannelPublic, domain.ChannelInternal},
		Variant:        render.ParseVariant(cfg.Console.Layout),
		StatusEndpoint: service.ParseStatusEndpoint(cfg.Console.StatusEndpoint),
		BadgeElementIDs: []string{
			"ticket-status-badge",
			"ticket-header-badge",
		},
	}, service.FacadeDependencies{
		Client:     client,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to assemble facade", zap.Error(err))
	}

	// The TUI surfaces its own notices; the fan-out mirrors outcomes to
	// the structured log so a session leaves an audit trail.
	fanout := service.NewNotificationFanout(dispatcher, service.NewLogNotifier(logger), facade.Locale(), logger)
	fanout.RegisterHandlers()

	program := tea.NewProgram(tui.NewModel(facade, logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.Fatal("console exited", zap.Error(err))
	}
}
