package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-console/internal/domain"
	"github.com/spec-kit/ticket-console/internal/service"
)

// FocusRegion identifies where keyboard input routes.
type FocusRegion int

const (
	// FocusComposer means keystrokes go to the message input.
	FocusComposer FocusRegion = iota
	// FocusAttachPrompt means keystrokes go to the file path input.
	FocusAttachPrompt
	// FocusConfirm means the status confirmation dialog is active and
	// keystrokes go to the reason input.
	FocusConfirm
)

// mutationTimeout bounds every request issued from the console.
const mutationTimeout = 15 * time.Second

// noticeFadeDelay is how long a status bar notice stays visible.
const noticeFadeDelay = 4 * time.Second

// sendResultMsg is sent when an asynchronous message submit completes.
type sendResultMsg struct {
	channel domain.Channel
	err     error
}

// statusResultMsg is sent when a status transition completes.
type statusResultMsg struct {
	err error
}

// attachResultMsg is sent when a file attach attempt completes.
type attachResultMsg struct {
	fileName string
	err      error
}

// noticeMsg displays transient text in the status bar. Notifier
// implementations inject these from outside the update loop.
type noticeMsg struct {
	text    string
	isError bool
}

// noticeFadeMsg clears the status bar notice.
type noticeFadeMsg struct{}

// Model is the bubbletea model for the ticket console.
type Model struct {
	facade *service.Facade
	logger *zap.Logger
	keys   KeyMap

	focus         FocusRegion
	activeChannel domain.Channel

	viewports map[domain.Channel]viewport.Model
	composer  textinput.Model
	attachIn  textinput.Model
	reasonIn  textinput.Model

	notice      string
	noticeError bool

	width  int
	height int
	ready  bool
}

// NewModel builds the console model over an assembled facade.
func NewModel(facade *service.Facade, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	composer := textinput.New()
	composer.Placeholder = "Write a message"
	composer.Prompt = "> "
	composer.Focus()

	attachIn := textinput.New()
	attachIn.Placeholder = "Path to file"
	attachIn.Prompt = "attach: "

	reasonIn := textinput.New()
	reasonIn.Placeholder = "Reason (optional)"
	reasonIn.Prompt = "reason: "

	viewports := make(map[domain.Channel]viewport.Model)
	active := domain.ChannelPublic
	channels := facade.Channels()
	if len(channels) > 0 {
		active = channels[0].Channel()
	}
	for _, channel := range channels {
		viewports[channel.Channel()] = viewport.New(0, 0)
	}

	return Model{
		facade:        facade,
		logger:        logger,
		keys:          DefaultKeyMap,
		focus:         FocusComposer,
		activeChannel: active,
		viewports:     viewports,
		composer:      composer,
		attachIn:      attachIn,
		reasonIn:      reasonIn,
	}
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.resizeViewports()
		model.refreshViewport(model.activeChannel, true)
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)

	case sendResultMsg:
		if message.err != nil {
			return model.showNotice(service.UserMessage(model.facade.Locale(), message.err), true)
		}
		if message.channel == model.activeChannel {
			model.composer.Reset()
		}
		model.refreshViewport(message.channel, true)
		return model.showNotice("Message sent", false)

	case statusResultMsg:
		if message.err != nil {
			// The dialog stays open; the controller is back in its
			// confirming state and the reason input keeps its text.
			return model.showNotice(service.UserMessage(model.facade.Locale(), message.err), true)
		}
		model.focus = FocusComposer
		model.composer.Focus()
		model.reasonIn.Reset()
		for channel := range model.viewports {
			model.refreshViewport(channel, true)
		}
		status := model.facade.Ticket().Status
		return model.showNotice(fmt.Sprintf("Status changed to '%s'", model.facade.Locale().StatusName(status)), false)

	case attachResultMsg:
		if message.err != nil {
			return model.showNotice(service.UserMessage(model.facade.Locale(), message.err), true)
		}
		model.focus = FocusComposer
		model.composer.Focus()
		model.attachIn.Reset()
		return model.showNotice(fmt.Sprintf("Attached %s", message.fileName), false)

	case noticeMsg:
		return model.showNotice(message.text, message.isError)

	case noticeFadeMsg:
		model.notice = ""
		return model, nil
	}

	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.Quit) {
		return model, tea.Quit
	}

	switch model.focus {
	case FocusConfirm:
		return model.handleConfirmKeys(message)
	case FocusAttachPrompt:
		return model.handleAttachKeys(message)
	}

	switch {
	case key.Matches(message, model.keys.ChannelPublic):
		return model.switchChannel(domain.ChannelPublic)
	case key.Matches(message, model.keys.ChannelInternal):
		return model.switchChannel(domain.ChannelInternal)
	case key.Matches(message, model.keys.Up):
		return model.scroll(-1)
	case key.Matches(message, model.keys.Down):
		return model.scroll(1)
	case key.Matches(message, model.keys.PageUp):
		return model.scrollPage(-1)
	case key.Matches(message, model.keys.PageDown):
		return model.scrollPage(1)
	case key.Matches(message, model.keys.End):
		vp := model.viewports[model.activeChannel]
		vp.GotoBottom()
		model.viewports[model.activeChannel] = vp
		return model, nil
	case key.Matches(message, model.keys.Attach):
		model.focus = FocusAttachPrompt
		model.composer.Blur()
		model.attachIn.Focus()
		return model, textinput.Blink
	case key.Matches(message, model.keys.Resolve):
		return model.beginStatus(domain.ActionResolve)
	case key.Matches(message, model.keys.MarkIrrelevant):
		return model.beginStatus(domain.ActionMarkIrrelevant)
	case key.Matches(message, model.keys.ReturnToWork):
		return model.beginStatus(domain.ActionReturnToWork)
	case key.Matches(message, model.keys.Submit):
		return model.submitMessage()
	}

	var cmd tea.Cmd
	model.composer, cmd = model.composer.Update(message)
	return model, cmd
}

func (model Model) handleConfirmKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Cancel):
		model.facade.Status().Cancel()
		if model.facade.Status().State() == service.TransitionIdle {
			model.focus = FocusComposer
			model.composer.Focus()
			model.reasonIn.Reset()
		}
		return model, nil
	case key.Matches(message, model.keys.Confirm):
		return model.confirmStatus()
	}

	var cmd tea.Cmd
	model.reasonIn, cmd = model.reasonIn.Update(message)
	return model, cmd
}

func (model Model) handleAttachKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Cancel):
		model.focus = FocusComposer
		model.composer.Focus()
		model.attachIn.Reset()
		return model, nil
	case key.Matches(message, model.keys.Submit):
		path := model.attachIn.Value()
		if path == "" {
			return model, nil
		}
		channel, ok := model.facade.Channel(model.activeChannel)
		if !ok {
			return model, nil
		}
		return model, attachFileCmd(channel, path)
	}

	var cmd tea.Cmd
	model.attachIn, cmd = model.attachIn.Update(message)
	return model, cmd
}

func (model Model) switchChannel(target domain.Channel) (tea.Model, tea.Cmd) {
	if _, ok := model.viewports[target]; !ok {
		return model, nil
	}
	model.activeChannel = target
	model.refreshViewport(target, false)
	return model, nil
}

func (model Model) scroll(lines int) (tea.Model, tea.Cmd) {
	vp := model.viewports[model.activeChannel]
	if lines < 0 {
		vp.LineUp(-lines)
	} else {
		vp.LineDown(lines)
	}
	model.viewports[model.activeChannel] = vp
	return model, nil
}

func (model Model) scrollPage(direction int) (tea.Model, tea.Cmd) {
	vp := model.viewports[model.activeChannel]
	if direction < 0 {
		vp.HalfViewUp()
	} else {
		vp.HalfViewDown()
	}
	model.viewports[model.activeChannel] = vp
	return model, nil
}

func (model Model) submitMessage() (tea.Model, tea.Cmd) {
	channel, ok := model.facade.Channel(model.activeChannel)
	if !ok {
		return model, nil
	}
	if channel.State() == service.ChannelSubmitting {
		return model, nil
	}
	channel.SetText(model.composer.Value())
	// The input clears only after the server confirms; on failure the
	// typed text stays in place for a retry.
	return model, submitMessageCmd(channel)
}

func (model Model) beginStatus(action domain.StatusAction) (tea.Model, tea.Cmd) {
	if _, err := model.facade.Status().Begin(action); err != nil {
		return model.showNotice(service.UserMessage(model.facade.Locale(), err), true)
	}
	model.focus = FocusConfirm
	model.composer.Blur()
	model.reasonIn.Focus()
	return model, textinput.Blink
}

func (model Model) confirmStatus() (tea.Model, tea.Cmd) {
	if model.facade.Status().State() == service.TransitionSubmitting {
		return model, nil
	}
	reason := model.reasonIn.Value()
	return model, confirmStatusCmd(model.facade.Status(), reason)
}

func (model Model) showNotice(text string, isError bool) (tea.Model, tea.Cmd) {
	model.notice = text
	model.noticeError = isError
	return model, scheduleNoticeFade()
}

// refreshViewport re-renders a channel into its viewport. followTail
// pins the viewport to the newest message, mirroring the channel
// view's own scroll anchor.
func (model *Model) refreshViewport(channel domain.Channel, followTail bool) {
	vp, ok := model.viewports[channel]
	if !ok {
		return
	}
	chatChannel, ok := model.facade.Channel(channel)
	if !ok {
		return
	}
	vp.SetContent(model.renderTranscript(chatChannel))
	if followTail {
		vp.GotoBottom()
	}
	model.viewports[channel] = vp
}

func (model *Model) resizeViewports() {
	width, height := model.transcriptSize()
	for channel, vp := range model.viewports {
		vp.Width = width
		vp.Height = height
		model.viewports[channel] = vp
	}
}

// submitMessageCmd runs the channel submit off the update loop.
func submitMessageCmd(channel *service.ChatChannel) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		_, err := channel.Submit(ctx)
		return sendResultMsg{channel: channel.Channel(), err: err}
	}
}

// confirmStatusCmd runs the status transition off the update loop.
func confirmStatusCmd(controller *service.StatusTransitionController, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return statusResultMsg{err: controller.Confirm(ctx, reason)}
	}
}

// attachFileCmd reads a local file and stages it on the channel.
func attachFileCmd(channel *service.ChatChannel, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return attachResultMsg{err: err}
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			return attachResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		fileName := filepath.Base(path)
		if _, err := channel.AttachFile(ctx, fileName, info.Size(), file); err != nil {
			return attachResultMsg{err: err}
		}
		return attachResultMsg{fileName: fileName}
	}
}

func scheduleNoticeFade() tea.Cmd {
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{}
	})
}
