package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-console/internal/api"
	"github.com/spec-kit/ticket-console/internal/attachment"
	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/internal/events"
	"github.com/spec-kit/ticket-console/internal/render"
)

// FacadeConfig is the explicit page configuration. It replaces the
// ambient globals of the original page (window-level current user id,
// implicit element ids): everything the layer needs is passed in here
// and scoped to the facade's lifetime.
type FacadeConfig struct {
	TicketID      int64
	TicketStatus  domain.TicketStatus
	Category      string
	CurrentUserID string
	// Channels lists the message streams this page shows: both channels
	// on the staff detail page, only the public one on the user variant.
	Channels []domain.Channel
	Variant  render.LayoutVariant
	// StatusEndpoint picks the transition endpoint variant for this page.
	StatusEndpoint StatusEndpoint
	// BadgeElementIDs are the page elements displaying the status badge,
	// all of which update together on a confirmed transition.
	BadgeElementIDs []string
	Locale          *render.Locale
}

// FacadeDependencies bundles process-level collaborators.
type FacadeDependencies struct {
	Client     *api.Client
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Modal is the full-size image viewer markup, when the page has one.
	Modal render.Modal
	// OpenExternal opens a URL in a new browsing context; the viewer's
	// fallback when no modal exists.
	OpenExternal func(url string)
}

// Facade is the process-wide coordinator: it wires validator, renderer,
// channels, viewer and status controller to one page, initialized once
// per page load and torn down implicitly with it.
type Facade struct {
	mirror        *ticketMirror
	channels      map[domain.Channel]*ChatChannel
	order         []domain.Channel
	status        *StatusTransitionController
	viewer        *render.ImageViewer
	badges        *render.BadgeSet
	client        *api.Client
	dispatcher    events.Dispatcher
	locale        render.Locale
	currentUserID string
	logger        *zap.Logger
}

// NewFacade wires the communication layer for one ticket page.
func NewFacade(cfg FacadeConfig, deps FacadeDependencies) (*Facade, error) {
	if cfg.TicketID <= 0 {
		return nil, fmt.Errorf("facade: ticket id is required")
	}
	if cfg.CurrentUserID == "" {
		return nil, fmt.Errorf("facade: current user id is required")
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("facade: at least one channel is required")
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("facade: api client is required")
	}

	locale := render.DefaultLocale()
	if cfg.Locale != nil {
		locale = *cfg.Locale
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	status := cfg.TicketStatus
	if status == "" {
		status = domain.TicketStatusOpen
	}

	mirror := newTicketMirror(domain.Ticket{
		ID:       cfg.TicketID,
		Status:   status,
		Category: cfg.Category,
	})

	variant := cfg.Variant
	if variant == "" {
		variant = render.VariantDetailed
	}
	renderer := render.NewRenderer(variant, locale, cfg.CurrentUserID)
	validator := attachment.NewValidator()

	badges := render.NewBadgeSet(cfg.TicketID, locale)
	for _, elementID := range cfg.BadgeElementIDs {
		badges.Register(elementID)
	}
	badges.Apply(status)

	facade := &Facade{
		mirror:        mirror,
		channels:      make(map[domain.Channel]*ChatChannel, len(cfg.Channels)),
		badges:        badges,
		client:        deps.Client,
		dispatcher:    deps.Dispatcher,
		locale:        locale,
		currentUserID: cfg.CurrentUserID,
		logger:        logger,
	}

	channelList := make([]*ChatChannel, 0, len(cfg.Channels))
	for _, channel := range cfg.Channels {
		if _, exists := facade.channels[channel]; exists {
			return nil, fmt.Errorf("facade: duplicate channel %q", channel)
		}
		chat := NewChatChannel(cfg.TicketID, channel, ChannelDependencies{
			Client:     deps.Client,
			Renderer:   renderer,
			View:       render.NewChannelView(channel),
			Validator:  validator,
			Dispatcher: deps.Dispatcher,
			Locale:     locale,
			Logger:     logger,
		})
		facade.channels[channel] = chat
		facade.order = append(facade.order, channel)
		channelList = append(channelList, chat)
	}

	facade.status = NewStatusTransitionController(mirror, StatusControllerDependencies{
		Client:     deps.Client,
		Endpoint:   cfg.StatusEndpoint,
		Channels:   channelList,
		Badges:     badges,
		Dispatcher: deps.Dispatcher,
		Locale:     locale,
		Logger:     logger,
	})

	// One viewer per page; its delegated activation ignores untagged
	// elements, so variants never double-handle each other's thumbnails.
	facade.viewer = render.NewImageViewer(deps.Modal, deps.OpenExternal)

	return facade, nil
}

// CurrentUserID identifies the signed-in user this page renders for.
func (f *Facade) CurrentUserID() string {
	return f.currentUserID
}

// Channel returns the chat channel with the given identity.
func (f *Facade) Channel(channel domain.Channel) (*ChatChannel, bool) {
	c, ok := f.channels[channel]
	return c, ok
}

// Channels returns the channels in configuration order.
func (f *Facade) Channels() []*ChatChannel {
	out := make([]*ChatChannel, 0, len(f.order))
	for _, channel := range f.order {
		out = append(out, f.channels[channel])
	}
	return out
}

// Status returns the status transition controller.
func (f *Facade) Status() *StatusTransitionController {
	return f.status
}

// Viewer returns the page's image viewer.
func (f *Facade) Viewer() *render.ImageViewer {
	return f.viewer
}

// Badges returns the status badge registry.
func (f *Facade) Badges() *render.BadgeSet {
	return f.badges
}

// Ticket returns a snapshot of the mirrored ticket.
func (f *Facade) Ticket() domain.Ticket {
	return f.mirror.Snapshot()
}

// Locale returns the locale in effect for this page.
func (f *Facade) Locale() render.Locale {
	return f.locale
}

// ChangeCategory assigns the ticket to a category; the mirror updates
// only after the server confirms.
func (f *Facade) ChangeCategory(ctx context.Context, categoryID int64, categoryName string) error {
	if err := f.client.ChangeCategory(ctx, f.mirror.Snapshot().ID, categoryID); err != nil {
		f.logger.Warn("category change failed", zap.Int64("category_id", categoryID), zap.Error(err))
		return err
	}
	f.mirror.SetCategory(categoryName)
	f.publish(ctx, events.EventCategoryChanged, events.CategoryChangedPayload{CategoryID: categoryID})
	return nil
}

// UpdateField submits a single-field edit through the API endpoint.
func (f *Facade) UpdateField(ctx context.Context, field, value string) error {
	return f.client.UpdateTicketField(ctx, f.mirror.Snapshot().ID, field, value)
}

// UpdatePriority is a convenience wrapper over UpdateField.
func (f *Facade) UpdatePriority(ctx context.Context, priority string) error {
	return f.UpdateField(ctx, "priority", priority)
}

func (f *Facade) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if f.dispatcher == nil {
		return
	}
	_ = f.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  f.mirror.Snapshot().ID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
