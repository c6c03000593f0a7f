package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-console/internal/api"
	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/internal/events"
	"github.com/spec-kit/ticket-console/internal/render"
)

// TransitionState tracks the status workflow.
type TransitionState string

const (
	TransitionIdle       TransitionState = "idle"
	TransitionConfirming TransitionState = "awaiting_confirmation"
	TransitionSubmitting TransitionState = "submitting"
)

// StatusEndpoint selects which transition endpoint variant a page uses.
type StatusEndpoint string

const (
	// StatusEndpointForm posts url-encoded form data to the page endpoint.
	StatusEndpointForm StatusEndpoint = "form"
	// StatusEndpointJSON posts JSON to the API endpoint variant.
	StatusEndpointJSON StatusEndpoint = "json"
)

// ParseStatusEndpoint maps a configuration string onto an endpoint
// variant, defaulting to the form endpoint.
func ParseStatusEndpoint(value string) StatusEndpoint {
	if value == string(StatusEndpointJSON) {
		return StatusEndpointJSON
	}
	return StatusEndpointForm
}

// ConfirmationPrompt carries the state of the open confirmation dialog.
// It is ephemeral: constructed when a transition button is pressed,
// consumed on confirm, discarded on cancel.
type ConfirmationPrompt struct {
	TicketID int64
	Action   domain.StatusAction
	Target   domain.TicketStatus
	Label    string
	Reason   string
}

// StatusTransitionController drives the ticket status state machine
// through a confirmation step. On success it updates every status badge
// in place and appends a synthetic system message to all channels, since
// a status change is ticket-wide rather than channel-wide.
type StatusTransitionController struct {
	mu sync.Mutex

	mirror   *ticketMirror
	client   *api.Client
	endpoint StatusEndpoint
	channels []*ChatChannel
	badges   *render.BadgeSet

	dispatcher events.Dispatcher
	locale     render.Locale
	logger     *zap.Logger

	state  TransitionState
	prompt *ConfirmationPrompt

	// now is the clock for synthetic system-message timestamps.
	now func() time.Time
}

// StatusControllerDependencies bundles collaborators.
type StatusControllerDependencies struct {
	Client     *api.Client
	Endpoint   StatusEndpoint
	Channels   []*ChatChannel
	Badges     *render.BadgeSet
	Dispatcher events.Dispatcher
	Locale     render.Locale
	Logger     *zap.Logger
}

// NewStatusTransitionController constructs the controller around the
// shared ticket mirror.
func NewStatusTransitionController(mirror *ticketMirror, deps StatusControllerDependencies) *StatusTransitionController {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := deps.Endpoint
	if endpoint == "" {
		endpoint = StatusEndpointForm
	}
	return &StatusTransitionController{
		mirror:     mirror,
		client:     deps.Client,
		endpoint:   endpoint,
		channels:   deps.Channels,
		badges:     deps.Badges,
		dispatcher: deps.Dispatcher,
		locale:     deps.Locale,
		logger:     logger,
		state:      TransitionIdle,
		now:        time.Now,
	}
}

// State returns the current workflow state.
func (s *StatusTransitionController) State() TransitionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Prompt returns the open confirmation prompt, nil when the dialog is
// closed.
func (s *StatusTransitionController) Prompt() *ConfirmationPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompt == nil {
		return nil
	}
	prompt := *s.prompt
	return &prompt
}

// Actions returns the transition buttons visible for the current
// mirrored status.
func (s *StatusTransitionController) Actions() []domain.StatusAction {
	return domain.ActionsFor(s.mirror.Status())
}

// Begin opens the confirmation dialog for the given transition button.
func (s *StatusTransitionController) Begin(action domain.StatusAction) (*ConfirmationPrompt, error) {
	current := s.mirror.Status()
	if !domain.ActionAllowed(current, action) {
		return nil, fmt.Errorf("status: action %q not available in status %q", action, current)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == TransitionSubmitting {
		return nil, fmt.Errorf("status: transition already in flight")
	}
	s.prompt = &ConfirmationPrompt{
		TicketID: s.mirror.Snapshot().ID,
		Action:   action,
		Target:   action.Target(),
		Label:    s.locale.ActionLabel(action),
	}
	s.state = TransitionConfirming
	prompt := *s.prompt
	return &prompt, nil
}

// Cancel closes the dialog and discards the pending transition.
func (s *StatusTransitionController) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == TransitionSubmitting {
		return
	}
	s.prompt = nil
	s.state = TransitionIdle
}

// Confirm submits the pending transition. On success every badge updates,
// both channels receive the system message, and the dialog closes. On any
// failure the dialog stays open with the reason intact so the user can
// retry or cancel, and the mirrored status is left unchanged.
func (s *StatusTransitionController) Confirm(ctx context.Context, reason string) error {
	s.mu.Lock()
	if s.state != TransitionConfirming || s.prompt == nil {
		s.mu.Unlock()
		return fmt.Errorf("status: no transition awaiting confirmation")
	}
	s.prompt.Reason = reason
	prompt := *s.prompt
	s.state = TransitionSubmitting
	s.mu.Unlock()

	err := s.submit(ctx, prompt)
	if err != nil {
		s.mu.Lock()
		s.state = TransitionConfirming
		s.mu.Unlock()
		s.logger.Warn("status change failed",
			zap.Int64("ticket_id", prompt.TicketID),
			zap.String("target", string(prompt.Target)),
			zap.Error(err))
		s.publish(ctx, events.EventStatusChangeFailed, events.StatusChangeFailedPayload{
			Target: prompt.Target,
			Reason: UserMessage(s.locale, err),
		})
		return err
	}

	oldStatus := s.mirror.Status()
	s.mirror.SetStatus(prompt.Target)
	s.badges.Apply(prompt.Target)
	s.appendSystemMessage(prompt)

	s.mu.Lock()
	s.prompt = nil
	s.state = TransitionIdle
	s.mu.Unlock()

	s.publish(ctx, events.EventStatusChanged, events.StatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: prompt.Target,
		Reason:    prompt.Reason,
	})
	return nil
}

func (s *StatusTransitionController) submit(ctx context.Context, prompt ConfirmationPrompt) error {
	switch s.endpoint {
	case StatusEndpointJSON:
		return s.client.ChangeStatusJSON(ctx, prompt.TicketID, prompt.Target, prompt.Reason)
	default:
		return s.client.ChangeStatus(ctx, prompt.TicketID, prompt.Target, prompt.Reason)
	}
}

// appendSystemMessage fans the announcement out to every channel. The
// timestamp is client-generated; the system message is synthetic and not
// persisted as a real chat message.
func (s *StatusTransitionController) appendSystemMessage(prompt ConfirmationPrompt) {
	message := domain.ChatMessage{
		SenderID:   "system",
		SenderName: s.locale.SystemSender,
		CreatedAt:  s.now().Format(domain.DisplayTimeFormat),
		Content:    s.locale.StatusChangeMessage(prompt.Target, prompt.Reason),
		System:     true,
	}
	for _, channel := range s.channels {
		if err := channel.AppendSystem(message); err != nil {
			s.logger.Error("system message render failed",
				zap.String("channel", string(channel.Channel())),
				zap.Error(err))
		}
	}
}

func (s *StatusTransitionController) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  s.mirror.Snapshot().ID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
