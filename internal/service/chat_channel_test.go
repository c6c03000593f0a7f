package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spec-kit/ticket-console/internal/api"
	"github.com/spec-kit/ticket-console/internal/attachment"
	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/internal/events"
	"github.com/spec-kit/ticket-console/internal/render"
	"github.com/spec-kit/ticket-console/pkg/util"
)

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(dispatcher events.Dispatcher, types ...events.EventType) {
	for _, eventType := range types {
		dispatcher.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, event)
			return nil
		})
	}
}

func (r *eventRecorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func newTestChannel(t *testing.T, handler http.Handler) (*ChatChannel, *eventRecorder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := api.NewClient(api.ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	dispatcher := events.NewInMemoryDispatcher(nil)
	recorder := &eventRecorder{}
	recorder.record(dispatcher,
		events.EventMessageSent,
		events.EventMessageRejected,
		events.EventAttachmentRejected)

	locale := render.DefaultLocale()
	channel := NewChatChannel(1, domain.ChannelPublic, ChannelDependencies{
		Client:     client,
		Renderer:   render.NewRenderer(render.VariantDetailed, locale, "17"),
		View:       render.NewChannelView(domain.ChannelPublic),
		Validator:  attachment.NewValidator(),
		Dispatcher: dispatcher,
		Locale:     locale,
	})
	return channel, recorder
}

func okSendHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"message":{"id":12,"content":"hello","sender_id":"17","sender_name":"Dana","created_at":"31.08.2026 10:00","is_internal":false}}`)
	})
}

func TestSubmitEmptyComposerRejectedLocally(t *testing.T) {
	requests := 0
	channel, recorder := newTestChannel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	channel.SetText("   \n\t ")
	_, err := channel.Submit(context.Background())
	if !util.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if clientErr := util.ToClientError(err); clientErr.Code != util.CodeEmptyMessage {
		t.Fatalf("code = %q", clientErr.Code)
	}
	if requests != 0 {
		t.Fatal("empty submit must not reach the server")
	}
	if channel.State() != ChannelIdle {
		t.Fatalf("state = %q", channel.State())
	}
	if len(recorder.ofType(events.EventMessageRejected)) != 1 {
		t.Fatal("expected one rejection event")
	}
}

func TestSubmitWhitespaceWithAttachmentSendsEmptyMessageField(t *testing.T) {
	var gotMessage string
	var messagePresent bool
	channel, _ := newTestChannel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		values, ok := r.MultipartForm.Value["message"]
		messagePresent = ok
		if len(values) > 0 {
			gotMessage = values[0]
		}
		fmt.Fprint(w, `{"success":true,"message":{"id":13,"content":"","sender_id":"17","sender_name":"Dana","created_at":"31.08.2026 10:01","is_internal":false,"attachment":{"id":1,"file_path":"/ticket_attachment/tickets/1/x.png","file_name":"x.png","is_image":true}}}`)
	}))

	png := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	if _, err := channel.AttachFile(context.Background(), "x.png", int64(len(png)), bytes.NewReader(png)); err != nil {
		t.Fatalf("AttachFile: %v", err)
	}

	channel.SetText("   ")
	message, err := channel.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !messagePresent {
		t.Fatal("message field must be present on the wire")
	}
	if gotMessage != "" {
		t.Fatalf("message field = %q, want empty string", gotMessage)
	}
	if !message.HasAttachment() {
		t.Fatal("confirmed message should carry the attachment")
	}
}

func TestSubmitSuccessAppendsAndClears(t *testing.T) {
	channel, recorder := newTestChannel(t, okSendHandler())

	channel.SetText("hello")
	message, err := channel.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if message.ID != 12 {
		t.Fatalf("message id = %d", message.ID)
	}

	view := channel.View()
	if view.Len() != 1 {
		t.Fatalf("view entries = %d, want 1", view.Len())
	}
	if view.ScrollTop() != view.ContentHeight() {
		t.Fatal("view must be scrolled to the newest message")
	}
	if !strings.Contains(string(view.Entries()[0].Fragment), `data-message-id="12"`) {
		t.Fatalf("fragment = %q", view.Entries()[0].Fragment)
	}

	if channel.Text() != "" {
		t.Fatalf("composer = %q, want cleared", channel.Text())
	}
	if channel.Pending() != nil {
		t.Fatal("pending attachment must be cleared")
	}
	if channel.State() != ChannelIdle {
		t.Fatalf("state = %q", channel.State())
	}
	if len(recorder.ofType(events.EventMessageSent)) != 1 {
		t.Fatal("expected one sent event")
	}
}

func TestSubmitNoOptimisticEcho(t *testing.T) {
	channel, _ := newTestChannel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"success":false,"error":"database unavailable"}`)
	}))

	channel.SetText("hello")
	_, err := channel.Submit(context.Background())
	if !util.IsServerRejection(err) {
		t.Fatalf("err = %v, want server rejection", err)
	}

	// Nothing rendered: the message only appears after server confirmation.
	if channel.View().Len() != 0 {
		t.Fatalf("view entries = %d, want 0", channel.View().Len())
	}
	// Composer text survives so the user can retry.
	if channel.Text() != "hello" {
		t.Fatalf("composer = %q, want preserved", channel.Text())
	}
	if channel.State() != ChannelIdle {
		t.Fatalf("state = %q, want idle for retry", channel.State())
	}
}

func TestSubmitTransportFailurePreservesComposer(t *testing.T) {
	server := httptest.NewServer(okSendHandler())
	client, err := api.NewClient(api.ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	server.Close()

	locale := render.DefaultLocale()
	channel := NewChatChannel(1, domain.ChannelPublic, ChannelDependencies{
		Client:    client,
		Renderer:  render.NewRenderer(render.VariantDetailed, locale, "17"),
		View:      render.NewChannelView(domain.ChannelPublic),
		Validator: attachment.NewValidator(),
		Locale:    locale,
	})

	channel.SetText("hello")
	_, err = channel.Submit(context.Background())
	if !util.IsTransport(err) {
		t.Fatalf("err = %v, want transport failure", err)
	}
	if got := UserMessage(locale, err); got != locale.GenericFailure {
		t.Fatalf("user message = %q, want generic failure text", got)
	}
	if channel.Text() != "hello" {
		t.Fatalf("composer = %q, want preserved", channel.Text())
	}
}

func TestAttachFileRejectionKeepsPreviousPending(t *testing.T) {
	channel, recorder := newTestChannel(t, okSendHandler())

	png := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	first, err := channel.AttachFile(context.Background(), "ok.png", int64(len(png)), bytes.NewReader(png))
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}

	_, err = channel.AttachFile(context.Background(), "big.bin", attachment.MaxFileSize+1, bytes.NewReader(nil))
	if !util.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}

	if pending := channel.Pending(); pending == nil || pending.ID != first.ID {
		t.Fatal("rejected selection must keep the previous pending attachment")
	}

	rejected := recorder.ofType(events.EventAttachmentRejected)
	if len(rejected) != 1 {
		t.Fatalf("rejection events = %d, want 1", len(rejected))
	}
	payload := rejected[0].Payload.(events.AttachmentRejectedPayload)
	if payload.Code != util.CodeFileTooLarge {
		t.Fatalf("code = %q", payload.Code)
	}
	if payload.Reason == "" {
		t.Fatal("rejection must carry user-facing text")
	}
}

func TestRemoveAttachmentHidesPreview(t *testing.T) {
	channel, _ := newTestChannel(t, okSendHandler())

	png := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	if _, err := channel.AttachFile(context.Background(), "x.png", int64(len(png)), bytes.NewReader(png)); err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	if !channel.PreviewVisible() {
		t.Fatal("preview should show for a pending image")
	}

	channel.RemoveAttachment()
	if channel.PreviewVisible() {
		t.Fatal("preview should hide after removal")
	}
	if channel.Pending() != nil {
		t.Fatal("pending should be cleared")
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		internal := r.FormValue("is_internal")
		fmt.Fprintf(w, `{"success":true,"message":{"id":20,"content":"note","sender_id":"17","sender_name":"Dana","created_at":"31.08.2026 10:02","is_internal":%s}}`, internal)
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(api.ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	locale := render.DefaultLocale()
	renderer := render.NewRenderer(render.VariantDetailed, locale, "17")
	validator := attachment.NewValidator()

	public := NewChatChannel(1, domain.ChannelPublic, ChannelDependencies{
		Client: client, Renderer: renderer,
		View:      render.NewChannelView(domain.ChannelPublic),
		Validator: validator, Locale: locale,
	})
	internal := NewChatChannel(1, domain.ChannelInternal, ChannelDependencies{
		Client: client, Renderer: renderer,
		View:      render.NewChannelView(domain.ChannelInternal),
		Validator: validator, Locale: locale,
	})

	internal.SetText("internal note")
	if _, err := internal.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if internal.View().Len() != 1 {
		t.Fatalf("internal entries = %d, want 1", internal.View().Len())
	}
	if public.View().Len() != 0 {
		t.Fatalf("public entries = %d, want 0", public.View().Len())
	}
	if public.Text() != "" {
		t.Fatal("public composer must stay untouched")
	}
}
