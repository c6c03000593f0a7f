package render

import (
	"html/template"
	"strings"
	"sync"

	"github.com/spec-kit/ticket-console/internal/domain"
)

// Entry pairs a rendered fragment with the message it came from.
type Entry struct {
	Message  domain.ChatMessage
	Fragment template.HTML
}

// ChannelView models one channel's message container: an ordered,
// append-only sequence of rendered fragments plus a scroll position. The
// client keeps no replay buffer beyond what is in the view. Mutation is
// guarded so interleaving completions append atomically.
type ChannelView struct {
	mu        sync.Mutex
	channel   domain.Channel
	entries   []Entry
	scrollTop int
}

// NewChannelView creates the view for one channel.
func NewChannelView(channel domain.Channel) *ChannelView {
	return &ChannelView{channel: channel}
}

// Channel returns the channel identity this view renders.
func (v *ChannelView) Channel() domain.Channel {
	return v.channel
}

// Append inserts a rendered entry at the end of the container. It does
// not move the scroll position; callers scroll after the insertion has
// completed so the updated content height is used.
func (v *ChannelView) Append(entry Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, entry)
}

// ScrollToBottom forces the scroll position to the current maximum.
func (v *ChannelView) ScrollToBottom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollTop = v.contentHeightLocked()
}

// ScrollTop returns the current scroll position.
func (v *ChannelView) ScrollTop() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollTop
}

// ContentHeight returns the rendered height of the container in lines.
func (v *ChannelView) ContentHeight() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.contentHeightLocked()
}

func (v *ChannelView) contentHeightLocked() int {
	height := 0
	for _, entry := range v.entries {
		height += strings.Count(string(entry.Fragment), "\n") + 1
	}
	return height
}

// Entries returns a copy of the rendered entries in append order.
func (v *ChannelView) Entries() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Entry{}, v.entries...)
}

// Len returns the number of rendered entries.
func (v *ChannelView) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}
