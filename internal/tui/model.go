package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/streamchat/internal/chat"
	"github.com/diogo/streamchat/internal/config"
	"github.com/diogo/streamchat/internal/models"
	"github.com/diogo/streamchat/internal/render"
)

// ThinkingText is shown in place of an assistant message that has no content yet
const ThinkingText = "Thinking..."

// Message types for the TUI
type (
	// snapshotMsg carries the conversation state after a mutation
	snapshotMsg chat.Snapshot

	// streamDoneMsg is sent when a response stream reaches a terminal outcome
	streamDoneMsg struct {
		err error
	}

	copiedMsg struct {
		err error
	}

	// configMsg carries a configuration reloaded from disk
	configMsg config.Config
)

// Options configures the chat TUI
type Options struct {
	AssistantName string
	Endpoint      string
	Render        render.Options

	// ConfigChanges, when set, delivers reloaded configuration. Display
	// settings are applied live; the endpoint is fixed for the session.
	ConfigChanges <-chan config.Config
}

// OptionsFromConfig activates the configured theme and derives the display
// options from cfg. The markdown style follows the theme unless one is set.
func OptionsFromConfig(cfg config.Config) Options {
	renderOpts := render.OptionsFromConfig(cfg.Markdown)
	if render.SetTUITheme(cfg.TUITheme) {
		UpdateTheme()
		if cfg.Markdown.Style == "" && os.Getenv(render.EnvStyle) == "" {
			renderOpts.Style = render.GetTUITheme().MarkdownStyle
		}
	}

	return Options{
		AssistantName: cfg.AssistantName,
		Endpoint:      cfg.Endpoint,
		Render:        renderOpts,
	}
}

// Model represents the TUI state
type Model struct {
	ctx     context.Context
	session *chat.Session
	conv    *chat.Conversation
	updates *snapshotBuffer
	opts    Options

	// copyText writes to the system clipboard
	copyText func(string) error

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	snapshot chat.Snapshot
	ready    bool
	err      error
	status   string

	width  int
	height int
}

// snapshotBuffer hands the latest conversation snapshot to the UI loop.
// Only the newest snapshot is kept so a slow UI never blocks the stream.
type snapshotBuffer struct {
	ch chan chat.Snapshot
}

func newSnapshotBuffer() *snapshotBuffer {
	return &snapshotBuffer{ch: make(chan chat.Snapshot, 1)}
}

// push is called from conversation observers, which are already serialized.
func (b *snapshotBuffer) push(s chat.Snapshot) {
	select {
	case <-b.ch:
	default:
	}
	select {
	case b.ch <- s:
	default:
	}
}

// NewChatModel creates a chat model bound to session's conversation
func NewChatModel(ctx context.Context, session *chat.Session, opts Options) Model {
	if opts.AssistantName == "" {
		opts.AssistantName = "Assistant"
	}
	if opts.Render.Width == 0 {
		opts.Render = render.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()
	styleTextarea(&ta)

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	conv := session.Conversation()
	updates := newSnapshotBuffer()
	conv.Subscribe(updates.push)

	return Model{
		ctx:      ctx,
		session:  session,
		conv:     conv,
		updates:  updates,
		opts:     opts,
		copyText: clipboard.WriteAll,
		textarea: ta,
		spinner:  s,
		snapshot: conv.Snapshot(),
	}
}

func styleTextarea(ta *textarea.Model) {
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.waitForSnapshot(),
		m.waitForConfig(),
	)
}

// waitForConfig blocks until the configuration file changes
func (m Model) waitForConfig() tea.Cmd {
	changes := m.opts.ConfigChanges
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-changes
		if !ok {
			return nil
		}
		return configMsg(cfg)
	}
}

// applyConfig switches theme, markdown style and assistant name in place
func (m *Model) applyConfig(cfg config.Config) {
	next := OptionsFromConfig(cfg)
	m.opts.AssistantName = next.AssistantName
	if m.opts.AssistantName == "" {
		m.opts.AssistantName = "Assistant"
	}
	m.opts.Render = next.Render

	styleTextarea(&m.textarea)
	m.spinner.Style = loadingStyle
	m.status = "Configuration reloaded"
	m.updateViewport()
}

// waitForSnapshot blocks until the conversation changes
func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.updates.ch)
	}
}

// streamResponse runs the request for history to completion
func (m Model) streamResponse(history []models.Message) tea.Cmd {
	return func() tea.Msg {
		return streamDoneMsg{err: m.session.Stream(m.ctx, history)}
	}
}

func (m Model) copyLastAnswer() tea.Cmd {
	var text string
	for i := len(m.snapshot.Messages) - 1; i >= 0; i-- {
		if msg := m.snapshot.Messages[i]; msg.IsAssistant() && msg.Content != "" {
			text = msg.Content
			break
		}
	}
	if text == "" {
		return nil
	}
	copyText := m.copyText
	return func() tea.Msg {
		return copiedMsg{err: copyText(text)}
	}
}

// scrollKeys are the keys forwarded to the viewport; the rest belong to the input
var scrollKeys = map[string]bool{
	"up":     true,
	"down":   true,
	"pgup":   true,
	"pgdown": true,
}

func isExitCommand(input string) bool {
	switch strings.TrimSpace(input) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 5
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			// A stream cannot be cancelled; esc only quits when idle
			if !m.snapshot.Loading {
				return m, tea.Quit
			}
			return m, nil

		case "ctrl+y":
			return m, m.copyLastAnswer()

		case "enter":
			if m.session.Busy() {
				return m, nil
			}
			if isExitCommand(m.textarea.Value()) {
				return m, tea.Quit
			}
			m.conv.SetInput(m.textarea.Value())
			history, ok := m.session.Begin()
			if !ok {
				return m, nil
			}
			m.textarea.Reset()
			m.err = nil
			m.status = ""
			m.snapshot = m.conv.Snapshot()
			m.updateViewport()
			return m, tea.Batch(m.streamResponse(history), m.spinner.Tick)
		}

		// Keystrokes are ignored while a response streams
		if !m.snapshot.Loading {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
			m.conv.SetInput(m.textarea.Value())
		}

	case snapshotMsg:
		prev := m.snapshot
		m.snapshot = chat.Snapshot(msg)
		// Keystrokes only touch the input buffer
		if contentChanged(prev, m.snapshot) {
			m.updateViewport()
		}
		cmds = append(cmds, m.waitForSnapshot())

	case streamDoneMsg:
		m.err = msg.err
		m.snapshot = m.conv.Snapshot()
		m.updateViewport()

	case configMsg:
		m.applyConfig(config.Config(msg))
		cmds = append(cmds, m.waitForConfig())

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied last answer to clipboard"
		}

	case spinner.TickMsg:
		if m.snapshot.Loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			if last, ok := m.snapshot.Last(); ok && last.Content == "" {
				m.updateViewport()
			}
		}
	}

	if key, ok := msg.(tea.KeyMsg); !ok || scrollKeys[key.String()] {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	var sections []string

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ streamchat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.Endpoint),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(header))

	messages := m.viewport.View()
	if len(m.snapshot.Messages) == 0 {
		messages = m.renderWelcome()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messages))

	var input string
	if m.snapshot.Loading {
		input = lipgloss.JoinHorizontal(lipgloss.Left,
			m.spinner.View(),
			loadingStyle.Render(" "+m.opts.AssistantName+" is responding"),
		)
	} else {
		input = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(input))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	content := lipgloss.JoinVertical(lipgloss.Center,
		welcomeTitleStyle.Width(width).Render("✦ streamchat"),
		"",
		welcomeStyle.Width(width).Render("Start a conversation by typing a message below"),
	)

	top := (m.viewport.Height - lipgloss.Height(content)) / 2
	if top < 0 {
		top = 0
	}
	return strings.Repeat("\n", top) + content
}

func (m Model) renderStatusBar(width int) string {
	if m.status != "" {
		return statusBarStyle.Width(width).Align(lipgloss.Center).Render(m.status)
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+Y", "Copy answer"},
		{"↑↓", "Scroll"},
		{"Esc", "Quit"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport re-renders the message list and keeps the newest content in view
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages(m.viewport.Width - 6))
	m.viewport.GotoBottom()
}

// contentChanged reports whether the message list or loading flag differ
func contentChanged(prev, next chat.Snapshot) bool {
	if prev.Loading != next.Loading || len(prev.Messages) != len(next.Messages) {
		return true
	}
	for i := range next.Messages {
		if prev.Messages[i] != next.Messages[i] {
			return true
		}
	}
	return false
}

// renderMessages renders every message in order, one labelled bubble each
func (m Model) renderMessages(bubbleWidth int) string {
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	opts := m.opts.Render.WithWidth(bubbleWidth - 4)

	var content strings.Builder
	last := len(m.snapshot.Messages) - 1
	for i, msg := range m.snapshot.Messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.IsUser() {
			content.WriteString(userLabelStyle.Render("⬤ You") + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		} else {
			content.WriteString(assistantLabelStyle.Render("✦ "+m.opts.AssistantName) + "\n")

			var body string
			switch {
			case msg.Content == "" && i == last && m.snapshot.Loading:
				body = m.spinner.View() + thinkingStyle.Render(" "+ThinkingText)
			case msg.Content == "":
				body = hintStyle.Render("(no response)")
			default:
				body = render.MessageContent(msg.Content, opts)
			}
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(body))
		}
		content.WriteString("\n")
	}

	return content.String()
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(ctx context.Context, session *chat.Session, opts Options) error {
	p := tea.NewProgram(
		NewChatModel(ctx, session, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	return nil
}
