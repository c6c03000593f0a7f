package service

import (
	"sync"

	"github.com/spec-kit/ticket-console/internal/domain"
)

// ticketMirror is the client's read-mostly copy of the ticket, shared by
// the facade and the status controller. It is mutated only after the
// server has confirmed a change.
type ticketMirror struct {
	mu     sync.Mutex
	ticket domain.Ticket
}

func newTicketMirror(ticket domain.Ticket) *ticketMirror {
	return &ticketMirror{ticket: ticket}
}

// Snapshot returns a copy of the mirrored ticket.
func (m *ticketMirror) Snapshot() domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticket
}

// Status returns the mirrored status.
func (m *ticketMirror) Status() domain.TicketStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticket.Status
}

// SetStatus records a server-confirmed status change.
func (m *ticketMirror) SetStatus(status domain.TicketStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket.Status = status
}

// SetCategory records a server-confirmed category change.
func (m *ticketMirror) SetCategory(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket.Category = category
}
