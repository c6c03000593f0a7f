package events

import (
	"time"

	"github.com/spec-kit/ticket-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageSent        EventType = "message_sent"
	EventMessageRejected    EventType = "message_rejected"
	EventAttachmentRejected EventType = "attachment_rejected"
	EventStatusChanged      EventType = "status_changed"
	EventStatusChangeFailed EventType = "status_change_failed"
	EventCategoryChanged    EventType = "category_changed"
)

// Event represents a client-side event emitted by the communication layer.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MessageSentPayload payload.
type MessageSentPayload struct {
	MessageID     int64          `json:"message_id"`
	Channel       domain.Channel `json:"channel"`
	HasAttachment bool           `json:"has_attachment"`
}

// MessageRejectedPayload payload.
type MessageRejectedPayload struct {
	Channel domain.Channel `json:"channel"`
	Code    string         `json:"code"`
	Reason  string         `json:"reason"`
}

// AttachmentRejectedPayload payload.
type AttachmentRejectedPayload struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	Code     string `json:"code"`
	Reason   string `json:"reason"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}

// StatusChangeFailedPayload payload.
type StatusChangeFailedPayload struct {
	Target domain.TicketStatus `json:"target"`
	Reason string              `json:"reason"`
}

// CategoryChangedPayload payload.
type CategoryChangedPayload struct {
	CategoryID int64 `json:"category_id"`
}
