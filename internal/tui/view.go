package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/internal/service"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	badgeStyles = map[domain.TicketStatus]lipgloss.Style{
		domain.TicketStatusOpen:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		domain.TicketStatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		domain.TicketStatusResolved:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		domain.TicketStatusIrrelevant: lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true),
	}

	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)

	senderStyle   = lipgloss.NewStyle().Bold(true)
	timeStyle     = lipgloss.NewStyle().Faint(true)
	systemStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	internalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)
)

// chromeHeight is the number of lines around the transcript: header,
// tab row, composer, pending line, status bar.
const chromeHeight = 5

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "loading..."
	}

	if model.focus == FocusConfirm {
		if prompt := model.facade.Status().Prompt(); prompt != nil {
			return model.renderConfirmModal(prompt)
		}
	}

	var view strings.Builder
	view.WriteString(model.renderHeader())
	view.WriteString("\n")
	view.WriteString(model.renderTabs())
	view.WriteString("\n")
	view.WriteString(model.viewports[model.activeChannel].View())
	view.WriteString("\n")
	view.WriteString(model.renderPendingLine())
	view.WriteString("\n")
	view.WriteString(model.renderInputLine())
	view.WriteString("\n")
	view.WriteString(model.renderStatusBar())
	return view.String()
}

func (model Model) renderHeader() string {
	ticket := model.facade.Ticket()
	status := ticket.Status
	badge, ok := badgeStyles[status]
	if !ok {
		badge = lipgloss.NewStyle().Bold(true)
	}
	label := model.facade.Locale().StatusName(status)
	return headerStyle.Render(fmt.Sprintf("Ticket #%d", ticket.ID)) + badge.Render(label)
}

func (model Model) renderTabs() string {
	var tabs []string
	for _, channel := range model.facade.Channels() {
		name := "Public"
		if channel.Channel().Internal() {
			name = "Internal"
		}
		style := tabInactiveStyle
		if channel.Channel() == model.activeChannel {
			style = tabActiveStyle
		}
		tabs = append(tabs, style.Render(name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderTranscript formats a channel's messages for the terminal. The
// HTML fragments stay the canonical representation; this is a parallel
// plain-text projection of the same entries.
func (model Model) renderTranscript(channel *service.ChatChannel) string {
	entries := channel.View().Entries()
	if len(entries) == 0 {
		return systemStyle.Render("No messages yet.")
	}

	var lines []string
	locale := model.facade.Locale()
	for _, entry := range entries {
		message := entry.Message
		if message.System {
			lines = append(lines, systemStyle.Render(message.Content))
			continue
		}
		sender := message.SenderName
		if message.SenderID == model.facade.CurrentUserID() {
			sender = locale.You
		}
		header := senderStyle.Render(sender) + " " + timeStyle.Render(message.CreatedAt)
		if message.IsInternal {
			header += " " + internalStyle.Render("[internal]")
		}
		lines = append(lines, header)
		if message.Content != "" {
			lines = append(lines, message.Content)
		}
		if message.HasAttachment() {
			lines = append(lines, timeStyle.Render("attachment: "+message.Attachment.FileName))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderPendingLine() string {
	channel, ok := model.facade.Channel(model.activeChannel)
	if !ok {
		return ""
	}
	pending := channel.Pending()
	if pending == nil {
		return ""
	}
	label := fmt.Sprintf("staged: %s (%d bytes)", pending.FileName, pending.Size)
	if pending.IsImage() {
		label += " [image]"
	}
	return timeStyle.Render(label)
}

func (model Model) renderInputLine() string {
	if model.focus == FocusAttachPrompt {
		return model.attachIn.View()
	}
	channel, ok := model.facade.Channel(model.activeChannel)
	if ok && channel.State() == service.ChannelSubmitting {
		return timeStyle.Render("sending...")
	}
	return model.composer.View()
}

func (model Model) renderStatusBar() string {
	if model.notice != "" {
		if model.noticeError {
			return errorStyle.Render(model.notice)
		}
		return noticeStyle.Render(model.notice)
	}

	var hints []string
	hints = append(hints, "Enter send", "C-o attach", "C-p/C-n channel")
	for _, action := range model.facade.Status().Actions() {
		switch action {
		case domain.ActionResolve:
			hints = append(hints, "C-r resolve")
		case domain.ActionMarkIrrelevant:
			hints = append(hints, "C-x irrelevant")
		case domain.ActionReturnToWork:
			hints = append(hints, "C-w reopen")
		}
	}
	hints = append(hints, "C-c quit")
	return timeStyle.Render(strings.Join(hints, " · "))
}

func (model Model) renderConfirmModal(prompt *service.ConfirmationPrompt) string {
	submitting := model.facade.Status().State() == service.TransitionSubmitting

	var body strings.Builder
	body.WriteString(senderStyle.Render(prompt.Label))
	body.WriteString("\n\n")
	body.WriteString(fmt.Sprintf("Ticket #%d → %s", prompt.TicketID,
		model.facade.Locale().StatusName(prompt.Target)))
	body.WriteString("\n\n")
	body.WriteString(model.reasonIn.View())
	body.WriteString("\n\n")
	if submitting {
		body.WriteString(timeStyle.Render("submitting..."))
	} else {
		body.WriteString(timeStyle.Render("Enter confirm · Esc cancel"))
	}

	modal := modalStyle.Render(body.String())
	return lipgloss.Place(model.width, model.height, lipgloss.Center, lipgloss.Center, modal)
}

func (model Model) transcriptSize() (width, height int) {
	width = model.width
	height = model.height - chromeHeight
	if height < 1 {
		height = 1
	}
	return width, height
}
