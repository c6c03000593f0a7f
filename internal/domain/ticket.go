package domain

// TicketStatus enumerates the workflow states the client drives.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusIrrelevant TicketStatus = "irrelevant"
)

// ParseTicketStatus maps a server-provided status value onto the client
// enum. The server historically emits "new" for freshly created tickets;
// the client mirrors it as open.
func ParseTicketStatus(value string) (TicketStatus, bool) {
	switch value {
	case "new", "open":
		return TicketStatusOpen, true
	case "in_progress":
		return TicketStatusInProgress, true
	case "resolved":
		return TicketStatusResolved, true
	case "irrelevant":
		return TicketStatusIrrelevant, true
	}
	return "", false
}

// BadgeClass returns the stable CSS class pair for a status badge.
func (s TicketStatus) BadgeClass() string {
	return "status-badge status-" + string(s)
}

// StatusAction identifies a transition button in the workflow UI.
type StatusAction string

const (
	ActionResolve        StatusAction = "resolve"
	ActionMarkIrrelevant StatusAction = "mark-irrelevant"
	ActionReturnToWork   StatusAction = "return-to-work"
)

// Target returns the status an action transitions the ticket into.
func (a StatusAction) Target() TicketStatus {
	switch a {
	case ActionResolve:
		return TicketStatusResolved
	case ActionMarkIrrelevant:
		return TicketStatusIrrelevant
	case ActionReturnToWork:
		return TicketStatusInProgress
	}
	return ""
}

var availableActions = map[TicketStatus][]StatusAction{
	TicketStatusOpen:       {ActionResolve, ActionMarkIrrelevant},
	TicketStatusInProgress: {ActionResolve, ActionMarkIrrelevant},
	TicketStatusResolved:   {ActionReturnToWork},
	TicketStatusIrrelevant: {ActionReturnToWork},
}

// ActionsFor returns the transition actions visible for the current status.
func ActionsFor(status TicketStatus) []StatusAction {
	return availableActions[status]
}

// ActionAllowed reports whether the action's button is visible for the
// current status.
func ActionAllowed(status TicketStatus, action StatusAction) bool {
	for _, candidate := range availableActions[status] {
		if candidate == action {
			return true
		}
	}
	return false
}

// Ticket is the client-side read-mostly mirror of a ticket. It is mutated
// only after the server confirms a transition or field edit.
type Ticket struct {
	ID       int64
	Status   TicketStatus
	Category string
}
