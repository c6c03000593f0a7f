package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-console/internal/events"
	"github.com/spec-kit/ticket-console/internal/render"
)

// Notifier shows transient, dismissable notices to the user. Failures
// never halt interaction; they surface here and the owning component
// returns to idle.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier is a Notifier backed by the structured logger, used when no
// interactive surface is wired.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates the logging notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(message string) {
	n.logger.Info("notice", zap.String("kind", "success"), zap.String("message", message))
}

func (n *LogNotifier) Error(message string) {
	n.logger.Warn("notice", zap.String("kind", "error"), zap.String("message", message))
}

// NotificationFanout turns client events into user-facing notices. The
// components publish; this subscriber decides what the user sees.
type NotificationFanout struct {
	dispatcher events.Dispatcher
	notifier   Notifier
	locale     render.Locale
	logger     *zap.Logger
}

// NewNotificationFanout creates the fan-out.
func NewNotificationFanout(dispatcher events.Dispatcher, notifier Notifier, locale render.Locale, logger *zap.Logger) *NotificationFanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationFanout{
		dispatcher: dispatcher,
		notifier:   notifier,
		locale:     locale,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationFanout) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventMessageRejected, n.handleMessageRejected)
	n.dispatcher.Subscribe(events.EventAttachmentRejected, n.handleAttachmentRejected)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventStatusChangeFailed, n.handleStatusChangeFailed)
}

func (n *NotificationFanout) handleMessageRejected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageRejectedPayload)
	if !ok {
		return nil
	}
	n.logger.Debug("MessageRejected", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", payload))
	n.notifier.Error(payload.Reason)
	return nil
}

func (n *NotificationFanout) handleAttachmentRejected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AttachmentRejectedPayload)
	if !ok {
		return nil
	}
	n.logger.Debug("AttachmentRejected", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", payload))
	n.notifier.Error(payload.Reason)
	return nil
}

func (n *NotificationFanout) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("StatusChanged", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", payload))
	n.notifier.Success(n.locale.StatusChangeMessage(payload.NewStatus, ""))
	return nil
}

func (n *NotificationFanout) handleStatusChangeFailed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangeFailedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("StatusChangeFailed", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", payload))
	n.notifier.Error(payload.Reason)
	return nil
}
