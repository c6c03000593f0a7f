package domain

import "testing"

func TestParseTicketStatus(t *testing.T) {
	cases := []struct {
		in   string
		want TicketStatus
		ok   bool
	}{
		{"new", TicketStatusOpen, true},
		{"open", TicketStatusOpen, true},
		{"in_progress", TicketStatusInProgress, true},
		{"resolved", TicketStatusResolved, true},
		{"irrelevant", TicketStatusIrrelevant, true},
		{"closed", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseTicketStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseTicketStatus(%q) = %q, %v", tc.in, got, ok)
		}
	}
}

func TestActionTargets(t *testing.T) {
	if ActionResolve.Target() != TicketStatusResolved {
		t.Fatal("resolve target")
	}
	if ActionMarkIrrelevant.Target() != TicketStatusIrrelevant {
		t.Fatal("mark-irrelevant target")
	}
	if ActionReturnToWork.Target() != TicketStatusInProgress {
		t.Fatal("return-to-work target")
	}
}

func TestActionAvailability(t *testing.T) {
	// Active tickets offer the two closing actions; completed tickets
	// offer only the reopen action.
	for _, status := range []TicketStatus{TicketStatusOpen, TicketStatusInProgress} {
		if !ActionAllowed(status, ActionResolve) || !ActionAllowed(status, ActionMarkIrrelevant) {
			t.Fatalf("closing actions missing for %q", status)
		}
		if ActionAllowed(status, ActionReturnToWork) {
			t.Fatalf("return-to-work must be hidden for %q", status)
		}
	}
	for _, status := range []TicketStatus{TicketStatusResolved, TicketStatusIrrelevant} {
		if !ActionAllowed(status, ActionReturnToWork) {
			t.Fatalf("return-to-work missing for %q", status)
		}
		if ActionAllowed(status, ActionResolve) {
			t.Fatalf("resolve must be hidden for %q", status)
		}
	}
}

func TestBadgeClass(t *testing.T) {
	if got := TicketStatusInProgress.BadgeClass(); got != "status-badge status-in_progress" {
		t.Fatalf("badge class = %q", got)
	}
}
