package domain

// Channel identifies one of the two message streams of a ticket.
type Channel string

const (
	ChannelPublic   Channel = "public"
	ChannelInternal Channel = "internal"
)

// Internal reports whether messages on this channel are staff-only.
func (c Channel) Internal() bool {
	return c == ChannelInternal
}

// ChannelFor returns the channel a message belongs to.
func ChannelFor(isInternal bool) Channel {
	if isInternal {
		return ChannelInternal
	}
	return ChannelPublic
}

// Attachment is server-created metadata for a sent file. IsImage is
// decided by the server, never inferred from the file extension here.
type Attachment struct {
	ID       int64
	FilePath string
	FileName string
	IsImage  bool
}

// ChatMessage is one entry in a ticket's message stream. ID is
// server-assigned and absent until the send completes. CreatedAt is the
// display-formatted timestamp string the server produced.
type ChatMessage struct {
	ID         int64
	Content    string
	SenderID   string
	SenderName string
	CreatedAt  string
	IsInternal bool
	Attachment *Attachment
	System     bool
}

// HasAttachment reports whether the message carries a file.
func (m ChatMessage) HasAttachment() bool {
	return m.Attachment != nil
}

// PendingAttachment holds a validated file selection before it is sent.
// It is discarded on send success or explicit removal.
type PendingAttachment struct {
	ID       string
	FileName string
	Size     int64
	MIMEType string
	Data     []byte
	// PreviewDataURL is a locally generated data: URL for image files,
	// empty for non-images (name-only preview).
	PreviewDataURL string
}

// IsImage reports whether the pending file previews as an image.
func (p *PendingAttachment) IsImage() bool {
	return p.PreviewDataURL != ""
}

// DisplayTimeFormat is the layout of display timestamps produced by the
// server (and by the client for synthetic system messages).
const DisplayTimeFormat = "02.01.2006 15:04"
