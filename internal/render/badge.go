package render

import (
	"fmt"
	"sync"

	"github.com/spec-kit/ticket-console/internal/domain"
)

// Badge is one element displaying the ticket's status.
type Badge struct {
	ElementID string
	Class     string
	Label     string
}

// BadgeSet tracks every status badge of one ticket, addressed by a stable
// per-ticket identity attribute rather than by scraping the current
// badge's CSS class.
type BadgeSet struct {
	mu       sync.Mutex
	ticketID int64
	locale   Locale
	badges   map[string]*Badge
	order    []string
}

// NewBadgeSet creates the badge registry for a ticket.
func NewBadgeSet(ticketID int64, locale Locale) *BadgeSet {
	return &BadgeSet{
		ticketID: ticketID,
		locale:   locale,
		badges:   make(map[string]*Badge),
	}
}

// Selector returns the stable attribute selector that addresses every
// badge of this ticket.
func (b *BadgeSet) Selector() string {
	return fmt.Sprintf(`[data-status-badge="%d"]`, b.ticketID)
}

// Register adds a badge element to the set. Registering an element twice
// is a no-op.
func (b *BadgeSet) Register(elementID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.badges[elementID]; ok {
		return
	}
	b.badges[elementID] = &Badge{ElementID: elementID}
	b.order = append(b.order, elementID)
}

// Apply updates every registered badge in place to the new status's class
// and localized label.
func (b *BadgeSet) Apply(status domain.TicketStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, badge := range b.badges {
		badge.Class = status.BadgeClass()
		badge.Label = b.locale.StatusName(status)
	}
}

// Badges returns the badges in registration order.
func (b *BadgeSet) Badges() []Badge {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Badge, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.badges[id])
	}
	return out
}
