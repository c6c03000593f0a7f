package render

import (
	"fmt"

	"github.com/spec-kit/ticket-console/internal/domain"
)

// Locale bundles the user-facing strings of the communication layer. The
// server renders its own labels; these cover everything the client
// produces itself.
type Locale struct {
	// You is the first-person sender label used when a message was sent
	// by the current viewer.
	You string
	// SystemSender names the synthetic sender of status-change messages.
	SystemSender string
	// GenericFailure is shown for transport-level failures.
	GenericFailure string
	// EmptyMessage is shown when a send is attempted with nothing to send.
	EmptyMessage string

	StatusNames  map[domain.TicketStatus]string
	ActionLabels map[domain.StatusAction]string
}

// DefaultLocale returns the English strings.
func DefaultLocale() Locale {
	return Locale{
		You:            "You",
		SystemSender:   "System",
		GenericFailure: "Something went wrong. Please try again.",
		EmptyMessage:   "Enter a message or attach a file.",
		StatusNames: map[domain.TicketStatus]string{
			domain.TicketStatusOpen:       "Open",
			domain.TicketStatusInProgress: "In Progress",
			domain.TicketStatusResolved:   "Resolved",
			domain.TicketStatusIrrelevant: "Irrelevant",
		},
		ActionLabels: map[domain.StatusAction]string{
			domain.ActionResolve:        "Resolve ticket",
			domain.ActionMarkIrrelevant: "Mark as irrelevant",
			domain.ActionReturnToWork:   "Return to work",
		},
	}
}

// StatusName returns the localized display name of a status.
func (l Locale) StatusName(status domain.TicketStatus) string {
	if name, ok := l.StatusNames[status]; ok {
		return name
	}
	return string(status)
}

// ActionLabel returns the human-readable label of a transition action.
func (l Locale) ActionLabel(action domain.StatusAction) string {
	if label, ok := l.ActionLabels[action]; ok {
		return label
	}
	return string(action)
}

// StatusChangeMessage builds the content of the synthetic system message
// announcing a status change.
func (l Locale) StatusChangeMessage(status domain.TicketStatus, reason string) string {
	content := fmt.Sprintf("Status changed to '%s'", l.StatusName(status))
	if reason != "" {
		content += "\nReason: " + reason
	}
	return content
}
