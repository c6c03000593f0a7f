package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-console/internal/api"
	"github.com/spec-kit/ticket-console/internal/attachment"
	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/internal/events"
	"github.com/spec-kit/ticket-console/internal/render"
	"github.com/spec-kit/ticket-console/pkg/util"
)

// ChannelState tracks the send protocol of one channel.
type ChannelState string

const (
	ChannelIdle       ChannelState = "idle"
	ChannelSubmitting ChannelState = "submitting"
)

// ChatChannel owns the send/receive protocol for one logical channel. It
// composes the attachment validator (pre-send) and the channel renderer
// (post-send). There is no optimistic echo: a message renders only after
// the server confirms it, so client and server state stay single-sourced.
type ChatChannel struct {
	mu       sync.Mutex
	channel  domain.Channel
	ticketID int64

	client     *api.Client
	renderer   *render.Renderer
	view       *render.ChannelView
	validator  *attachment.Validator
	dispatcher events.Dispatcher
	locale     render.Locale
	logger     *zap.Logger

	state   ChannelState
	text    string
	pending *domain.PendingAttachment
}

// ChannelDependencies bundles collaborators for a chat channel.
type ChannelDependencies struct {
	Client     *api.Client
	Renderer   *render.Renderer
	View       *render.ChannelView
	Validator  *attachment.Validator
	Dispatcher events.Dispatcher
	Locale     render.Locale
	Logger     *zap.Logger
}

// NewChatChannel constructs the channel.
func NewChatChannel(ticketID int64, channel domain.Channel, deps ChannelDependencies) *ChatChannel {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatChannel{
		channel:    channel,
		ticketID:   ticketID,
		client:     deps.Client,
		renderer:   deps.Renderer,
		view:       deps.View,
		validator:  deps.Validator,
		dispatcher: deps.Dispatcher,
		locale:     deps.Locale,
		logger:     logger,
		state:      ChannelIdle,
	}
}

// Channel returns the channel identity.
func (c *ChatChannel) Channel() domain.Channel {
	return c.channel
}

// View returns the channel's rendered container.
func (c *ChatChannel) View() *render.ChannelView {
	return c.view
}

// State returns the current protocol state.
func (c *ChatChannel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetText replaces the composer text.
func (c *ChatChannel) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

// Text returns the composer text.
func (c *ChatChannel) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// AttachFile validates a selected file and stores it as the channel's
// pending attachment. On rejection the previous pending attachment is
// kept, the rejection is published, and the caller is responsible for
// clearing its file-selection control.
func (c *ChatChannel) AttachFile(ctx context.Context, fileName string, size int64, content io.Reader) (*domain.PendingAttachment, error) {
	pending, err := c.validator.Validate(fileName, size, content)
	if err != nil {
		c.logger.Debug("attachment rejected",
			zap.String("file", fileName),
			zap.Int64("size", size),
			zap.Error(err))
		c.publish(ctx, events.EventAttachmentRejected, events.AttachmentRejectedPayload{
			FileName: fileName,
			Size:     size,
			Code:     util.ToClientError(err).Code,
			Reason:   UserMessage(c.locale, err),
		})
		return nil, err
	}

	c.mu.Lock()
	c.pending = pending
	c.mu.Unlock()
	return pending, nil
}

// Pending returns the current pending attachment, nil when none.
func (c *ChatChannel) Pending() *domain.PendingAttachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// RemoveAttachment discards the pending attachment and its preview.
func (c *ChatChannel) RemoveAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// PreviewVisible reports whether the attachment preview region shows.
func (c *ChatChannel) PreviewVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Submit runs the send protocol: validate, submit as multipart, and on
// success render the confirmed message into this channel's container.
// Other channels and controls stay untouched whatever the outcome, and
// concurrent submits are not serialized; completions render in the order
// they finish.
func (c *ChatChannel) Submit(ctx context.Context) (*domain.ChatMessage, error) {
	c.mu.Lock()
	text := c.text
	pending := c.pending
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && pending == nil {
		c.mu.Unlock()
		err := util.NewValidationError(util.CodeEmptyMessage, c.locale.EmptyMessage)
		c.publish(ctx, events.EventMessageRejected, events.MessageRejectedPayload{
			Channel: c.channel,
			Code:    util.CodeEmptyMessage,
			Reason:  c.locale.EmptyMessage,
		})
		return nil, err
	}
	c.state = ChannelSubmitting
	c.mu.Unlock()

	// The message field is always present on the wire; an attachment-only
	// send carries it as the explicit empty string.
	outgoing := text
	if trimmed == "" {
		outgoing = ""
	}

	payload, err := c.client.SendChatMessage(ctx, api.SendMessageRequest{
		TicketID:   c.ticketID,
		Message:    outgoing,
		Internal:   c.channel.Internal(),
		Attachment: pending,
	})
	if err != nil {
		c.mu.Lock()
		c.state = ChannelIdle
		c.mu.Unlock()
		c.logger.Warn("send failed", zap.String("channel", string(c.channel)), zap.Error(err))
		c.publish(ctx, events.EventMessageRejected, events.MessageRejectedPayload{
			Channel: c.channel,
			Code:    util.ToClientError(err).Code,
			Reason:  UserMessage(c.locale, err),
		})
		return nil, err
	}

	message := payload.ToDomain()
	if err := c.append(message); err != nil {
		c.mu.Lock()
		c.state = ChannelIdle
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	c.text = ""
	c.pending = nil
	c.state = ChannelIdle
	c.mu.Unlock()

	c.publish(ctx, events.EventMessageSent, events.MessageSentPayload{
		MessageID:     message.ID,
		Channel:       c.channel,
		HasAttachment: message.HasAttachment(),
	})
	return &message, nil
}

// AppendSystem renders a synthetic system message into this channel
// without any network traffic. Used for ticket-wide announcements that go
// to every channel regardless of where they originated.
func (c *ChatChannel) AppendSystem(message domain.ChatMessage) error {
	message.System = true
	message.IsInternal = c.channel.Internal()
	return c.append(message)
}

// append renders and inserts, then scrolls. The scroll must follow the
// completed insertion so the updated content height is used.
func (c *ChatChannel) append(message domain.ChatMessage) error {
	fragment, err := c.renderer.Render(message)
	if err != nil {
		c.logger.Error("render failed", zap.String("channel", string(c.channel)), zap.Error(err))
		return err
	}
	c.view.Append(render.Entry{Message: message, Fragment: fragment})
	c.view.ScrollToBottom()
	return nil
}

func (c *ChatChannel) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if c.dispatcher == nil {
		return
	}
	_ = c.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  c.ticketID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// UserMessage maps an error onto the text shown to the user: validation
// and server-rejection text verbatim, the generic locale text for
// transport failures.
func UserMessage(locale render.Locale, err error) string {
	clientErr := util.ToClientError(err)
	if clientErr == nil {
		return ""
	}
	switch clientErr.Kind {
	case util.KindValidation, util.KindServerRejection:
		return clientErr.Message
	default:
		return locale.GenericFailure
	}
}
