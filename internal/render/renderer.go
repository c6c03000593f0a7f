package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/spec-kit/ticket-console/internal/domain"
)

// LayoutVariant selects the fragment style for a page. Historically the
// two ticket pages carried separate renderers; the variant is chosen once
// at initialization instead of branching per event.
type LayoutVariant string

const (
	// VariantCompact renders plain "message" blocks without directionality.
	VariantCompact LayoutVariant = "compact"
	// VariantDetailed renders "chat-message" blocks with
	// incoming/outgoing/internal directionality classes.
	VariantDetailed LayoutVariant = "detailed"
)

// ParseVariant maps a configuration string onto a layout variant,
// defaulting to detailed.
func ParseVariant(value string) LayoutVariant {
	if value == string(VariantCompact) {
		return VariantCompact
	}
	return VariantDetailed
}

const fragmentTemplates = `
{{define "detailed" -}}
<div class="chat-message {{.Direction}}"{{if .ID}} data-message-id="{{.ID}}"{{end}}>
<div class="message-header"><span class="message-sender">{{.Sender}}</span><span class="message-time">{{.Time}}</span></div>
{{- if .Content}}
<div class="message-content">{{.Content}}</div>
{{- end}}
{{- if .Attachment}}
{{template "attachment" .Attachment}}
{{- end}}
</div>
{{- end}}

{{define "compact" -}}
<div class="message"{{if .ID}} data-message-id="{{.ID}}"{{end}}>
<div class="message-header"><strong>{{.Sender}}</strong> <small>{{.Time}}</small></div>
{{- if .Content}}
<div class="message-body">{{.Content}}</div>
{{- end}}
{{- if .Attachment}}
{{template "attachment" .Attachment}}
{{- end}}
</div>
{{- end}}

{{define "attachment" -}}
<div class="message-attachment">
{{- if .IsImage -}}
<img src="{{.FilePath}}" alt="{{.FileName}}" class="attachment-thumbnail" data-attachment-trigger="true" data-full-src="{{.FilePath}}">
{{- else -}}
<a href="{{.FilePath}}" download="{{.FileName}}" class="attachment-link">{{.FileName}}</a>
{{- end -}}
</div>
{{- end}}
`

// Renderer turns chat messages into DOM fragments for one channel style.
type Renderer struct {
	variant       LayoutVariant
	locale        Locale
	currentUserID string
	templates     *template.Template
}

// NewRenderer creates a renderer for the given layout variant. The
// current user id decides first-person sender labeling.
func NewRenderer(variant LayoutVariant, locale Locale, currentUserID string) *Renderer {
	return &Renderer{
		variant:       variant,
		locale:        locale,
		currentUserID: currentUserID,
		templates:     template.Must(template.New("fragments").Parse(fragmentTemplates)),
	}
}

type fragmentData struct {
	ID         int64
	Sender     string
	Time       string
	Content    string
	Direction  string
	Attachment *domain.Attachment
}

// Render produces the HTML fragment for one message. Content and
// attachment blocks are emitted only when present.
func (r *Renderer) Render(message domain.ChatMessage) (template.HTML, error) {
	data := fragmentData{
		ID:         message.ID,
		Sender:     r.senderLabel(message),
		Time:       message.CreatedAt,
		Content:    message.Content,
		Direction:  r.direction(message),
		Attachment: message.Attachment,
	}

	var out strings.Builder
	if err := r.templates.ExecuteTemplate(&out, string(r.variant), data); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return template.HTML(out.String()), nil
}

func (r *Renderer) senderLabel(message domain.ChatMessage) string {
	if message.System {
		return r.locale.SystemSender
	}
	if message.SenderID == r.currentUserID {
		return r.locale.You
	}
	return message.SenderName
}

// direction derives the chat-message directionality class: internal
// messages are styled as internal regardless of author; public messages
// split on whether the current viewer sent them.
func (r *Renderer) direction(message domain.ChatMessage) string {
	if message.IsInternal {
		return "internal"
	}
	if message.SenderID == r.currentUserID {
		return "outgoing"
	}
	return "incoming"
}
