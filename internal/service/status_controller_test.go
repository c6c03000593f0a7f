package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spec-kit/ticket-console/internal/api"
	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/internal/events"
)

func newTestFacade(t *testing.T, handler http.Handler, endpoint StatusEndpoint) (*Facade, *eventRecorder) {
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
		events.EventStatusChanged,
		events.EventStatusChangeFailed,
		events.EventCategoryChanged)

	facade, err := NewFacade(FacadeConfig{
		TicketID:        42,
		TicketStatus:    domain.TicketStatusOpen,
		CurrentUserID:   "17",
		Channels:        []domain.Channel{domain.ChannelPublic, domain.ChannelInternal},
		StatusEndpoint:  endpoint,
		BadgeElementIDs: []string{"header-badge", "sidebar-badge"},
	}, FacadeDependencies{
		Client:     client,
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}
	return facade, recorder
}

func okStatusHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/change_status") {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true,"status":"resolved"}`)
	})
}

func TestBeginRequiresVisibleAction(t *testing.T) {
	facade, _ := newTestFacade(t, okStatusHandler(t), StatusEndpointForm)
	controller := facade.Status()

	// return-to-work is not available while the ticket is open.
	if _, err := controller.Begin(domain.ActionReturnToWork); err == nil {
		t.Fatal("expected gating error")
	}
	if controller.State() != TransitionIdle {
		t.Fatalf("state = %q", controller.State())
	}
}

func TestBeginOpensConfirmation(t *testing.T) {
	facade, _ := newTestFacade(t, okStatusHandler(t), StatusEndpointForm)
	controller := facade.Status()

	prompt, err := controller.Begin(domain.ActionResolve)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if controller.State() != TransitionConfirming {
		t.Fatalf("state = %q", controller.State())
	}
	if prompt.TicketID != 42 || prompt.Target != domain.TicketStatusResolved {
		t.Fatalf("prompt = %+v", prompt)
	}
	if prompt.Label != "Resolve ticket" {
		t.Fatalf("label = %q", prompt.Label)
	}
}

func TestCancelDiscardsTransition(t *testing.T) {
	requests := 0
	facade, _ := newTestFacade(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}), StatusEndpointForm)
	controller := facade.Status()

	if _, err := controller.Begin(domain.ActionResolve); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	controller.Cancel()

	if controller.State() != TransitionIdle {
		t.Fatalf("state = %q", controller.State())
	}
	if controller.Prompt() != nil {
		t.Fatal("prompt must be discarded")
	}
	if requests != 0 {
		t.Fatal("cancel must not reach the server")
	}
	if facade.Ticket().Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want unchanged", facade.Ticket().Status)
	}
}

func TestConfirmSuccessFansOut(t *testing.T) {
	var gotStatus, gotReason string
	facade, recorder := newTestFacade(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotStatus = r.PostFormValue("status")
		gotReason = r.PostFormValue("reason")
		fmt.Fprint(w, `{"success":true,"status":"resolved"}`)
	}), StatusEndpointForm)
	controller := facade.Status()

	if _, err := controller.Begin(domain.ActionResolve); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := controller.Confirm(context.Background(), "replaced the cable"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if gotStatus != "resolved" || gotReason != "replaced the cable" {
		t.Fatalf("wire = %q %q", gotStatus, gotReason)
	}

	// Mirror and every badge follow the confirmed status.
	if facade.Ticket().Status != domain.TicketStatusResolved {
		t.Fatalf("status = %q", facade.Ticket().Status)
	}
	for _, badge := range facade.Badges().Badges() {
		if badge.Class != "status-badge status-resolved" {
			t.Fatalf("badge class = %q", badge.Class)
		}
		if badge.Label != "Resolved" {
			t.Fatalf("badge label = %q", badge.Label)
		}
	}

	// The system message lands in both channels, with the reason line.
	for _, channel := range facade.Channels() {
		entries := channel.View().Entries()
		if len(entries) != 1 {
			t.Fatalf("channel %q entries = %d, want 1", channel.Channel(), len(entries))
		}
		message := entries[0].Message
		if !message.System {
			t.Fatal("expected a system message")
		}
		if !strings.Contains(message.Content, "Status changed to 'Resolved'") {
			t.Fatalf("content = %q", message.Content)
		}
		if !strings.Contains(message.Content, "Reason: replaced the cable") {
			t.Fatalf("content = %q, want reason line", message.Content)
		}
		if message.CreatedAt == "" {
			t.Fatal("system message needs a client timestamp")
		}
	}

	if controller.State() != TransitionIdle {
		t.Fatalf("state = %q", controller.State())
	}
	if controller.Prompt() != nil {
		t.Fatal("prompt must close on success")
	}

	changed := recorder.ofType(events.EventStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("status changed events = %d, want 1", len(changed))
	}
	payload := changed[0].Payload.(events.StatusChangedPayload)
	if payload.OldStatus != domain.TicketStatusOpen || payload.NewStatus != domain.TicketStatusResolved {
		t.Fatalf("payload = %+v", payload)
	}

	// The workflow can continue from the new status.
	if _, err := controller.Begin(domain.ActionReturnToWork); err != nil {
		t.Fatalf("Begin after resolve: %v", err)
	}
}

func TestConfirmFailureKeepsDialogOpen(t *testing.T) {
	facade, recorder := newTestFacade(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success":false,"error":"ticket is locked"}`)
	}), StatusEndpointForm)
	controller := facade.Status()

	if _, err := controller.Begin(domain.ActionMarkIrrelevant); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	err := controller.Confirm(context.Background(), "spam")
	if err == nil {
		t.Fatal("expected failure")
	}

	// Dialog stays open with the reason intact; user can retry or cancel.
	if controller.State() != TransitionConfirming {
		t.Fatalf("state = %q, want confirming", controller.State())
	}
	prompt := controller.Prompt()
	if prompt == nil {
		t.Fatal("prompt must stay open")
	}
	if prompt.Reason != "spam" {
		t.Fatalf("reason = %q, want preserved", prompt.Reason)
	}

	// Nothing ticket-wide happened.
	if facade.Ticket().Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want unchanged", facade.Ticket().Status)
	}
	for _, channel := range facade.Channels() {
		if channel.View().Len() != 0 {
			t.Fatal("no system message on failure")
		}
	}

	failed := recorder.ofType(events.EventStatusChangeFailed)
	if len(failed) != 1 {
		t.Fatalf("failure events = %d, want 1", len(failed))
	}
	payload := failed[0].Payload.(events.StatusChangeFailedPayload)
	if payload.Reason != "ticket is locked" {
		t.Fatalf("reason = %q, want verbatim server text", payload.Reason)
	}

	// A retry against the same prompt is possible.
	if err := controller.Confirm(context.Background(), "spam"); err == nil {
		t.Fatal("retry against the same failing server should fail again")
	}
	if controller.State() != TransitionConfirming {
		t.Fatalf("state after retry = %q", controller.State())
	}
}

func TestConfirmWithoutBegin(t *testing.T) {
	facade, _ := newTestFacade(t, okStatusHandler(t), StatusEndpointForm)

	if err := facade.Status().Confirm(context.Background(), ""); err == nil {
		t.Fatal("expected error without an open prompt")
	}
}

func TestConfirmJSONEndpointVariant(t *testing.T) {
	var gotPath string
	facade, _ := newTestFacade(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"success":true,"message":"status updated"}`)
	}), StatusEndpointJSON)
	controller := facade.Status()

	if _, err := controller.Begin(domain.ActionResolve); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := controller.Confirm(context.Background(), ""); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if gotPath != "/api/ticket/42/status" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestActionsFollowMirroredStatus(t *testing.T) {
	facade, _ := newTestFacade(t, okStatusHandler(t), StatusEndpointForm)
	controller := facade.Status()

	actions := controller.Actions()
	if len(actions) != 2 {
		t.Fatalf("actions = %v", actions)
	}

	if _, err := controller.Begin(domain.ActionResolve); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := controller.Confirm(context.Background(), ""); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	actions = controller.Actions()
	if len(actions) != 1 || actions[0] != domain.ActionReturnToWork {
		t.Fatalf("actions after resolve = %v", actions)
	}
}
