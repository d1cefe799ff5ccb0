package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/streamchat/internal/api"
	"github.com/diogo/streamchat/internal/chat"
	"github.com/diogo/streamchat/internal/config"
	"github.com/diogo/streamchat/internal/models"
	"github.com/diogo/streamchat/internal/render"
)

func newTestModel(t *testing.T, client *api.MockChatClient) Model {
	t.Helper()

	session := chat.NewSession(chat.NewConversation(), client)
	m := NewChatModel(context.Background(), session, Options{
		AssistantName: "Bot",
		Endpoint:      "http://localhost:8080/api/chat",
		Render:        render.DefaultOptions().WithStyle(render.StyleNoTTY),
	})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func pressEnter(m Model) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

// submit types text, presses enter and returns the history sent to the backend
func submit(t *testing.T, m Model, text string) (Model, []models.Message) {
	t.Helper()
	m = typeText(t, m, text)
	m, _ = pressEnter(m)

	msgs := m.conv.Messages()
	if len(msgs) == 0 {
		t.Fatal("expected messages after submit")
	}
	return m, msgs[:len(msgs)-1]
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestViewBeforeReady(t *testing.T) {
	session := chat.NewSession(chat.NewConversation(), api.NewMockChatClient())
	m := NewChatModel(context.Background(), session, Options{})

	if !strings.Contains(m.View(), "Initializing") {
		t.Errorf("expected initializing view, got %q", m.View())
	}
	if m.opts.AssistantName != "Assistant" {
		t.Errorf("AssistantName = %q, want default", m.opts.AssistantName)
	}
}

func TestWelcomeView(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())

	view := m.View()
	if !strings.Contains(view, "Start a conversation") {
		t.Error("empty conversation should show the welcome text")
	}
	if !strings.Contains(view, "http://localhost:8080/api/chat") {
		t.Error("header should show the endpoint")
	}
}

func TestTypingUpdatesInputBuffer(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())
	m = typeText(t, m, "Hi")

	if got := m.conv.Input(); got != "Hi" {
		t.Errorf("Input() = %q, want Hi", got)
	}
}

func TestSubmitShowsThinkingThenAnswer(t *testing.T) {
	client := api.NewMockChatClient("data: Hello\n\n", "data: World\n\n")
	m := newTestModel(t, client)

	m, history := submit(t, m, "Hi")

	if !m.snapshot.Loading {
		t.Fatal("expected loading after submit")
	}
	if m.conv.Input() != "" {
		t.Errorf("input should be cleared, got %q", m.conv.Input())
	}
	if m.textarea.Value() != "" {
		t.Errorf("textarea should be cleared, got %q", m.textarea.Value())
	}
	if !strings.Contains(m.viewport.View(), ThinkingText) {
		t.Error("expected thinking indicator while the answer is empty")
	}
	if len(history) != 1 || history[0].Content != "Hi" {
		t.Fatalf("unexpected history: %+v", history)
	}

	done := m.streamResponse(history)()
	m = update(t, m, done)

	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if m.snapshot.Loading {
		t.Error("loading should be cleared after the stream ends")
	}
	view := m.viewport.View()
	if !strings.Contains(view, "HelloWorld") {
		t.Errorf("expected streamed answer in view, got:\n%s", view)
	}
	if strings.Contains(view, ThinkingText) {
		t.Error("thinking indicator should be gone")
	}
	if !strings.Contains(view, "Bot") {
		t.Error("assistant label should use the configured name")
	}
}

func TestSnapshotMessagesUpdateView(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())
	m, _ = submit(t, m, "Hi")

	m.conv.ReplaceLastMessage("partial answer")

	msg := m.waitForSnapshot()()
	snap, ok := msg.(snapshotMsg)
	if !ok {
		t.Fatalf("expected snapshotMsg, got %T", msg)
	}
	if last, _ := chat.Snapshot(snap).Last(); last.Content != "partial answer" {
		t.Fatalf("buffer should hold the newest snapshot, got %q", last.Content)
	}

	m = update(t, m, snap)
	if !strings.Contains(m.viewport.View(), "partial answer") {
		t.Error("view should show the partial answer")
	}
}

func TestEnterIgnoredWhileLoading(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())
	m, _ = submit(t, m, "Hi")

	m = typeText(t, m, "again")
	if m.textarea.Value() != "" {
		t.Error("keystrokes should be ignored while loading")
	}

	m, cmd := pressEnter(m)
	if cmd != nil {
		t.Error("enter while loading should do nothing")
	}
	if n := len(m.conv.Messages()); n != 2 {
		t.Errorf("expected 2 messages, got %d", n)
	}
}

func TestBlankInputNotSubmitted(t *testing.T) {
	client := api.NewMockChatClient()
	m := newTestModel(t, client)

	m = typeText(t, m, "   ")
	m, cmd := pressEnter(m)

	if cmd != nil {
		t.Error("blank input should not start a request")
	}
	if len(m.conv.Messages()) != 0 {
		t.Error("blank input should not add messages")
	}
}

func TestStreamFailureShowsError(t *testing.T) {
	client := api.NewMockChatClient()
	client.StreamErr = errors.New("connection refused")
	m := newTestModel(t, client)

	m, history := submit(t, m, "Hi")
	m = update(t, m, m.streamResponse(history)())

	if m.err == nil {
		t.Fatal("expected error to be kept for display")
	}
	if !strings.Contains(m.viewport.View(), models.ErrorMessageText) {
		t.Error("expected the error message in the conversation")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Error("expected error detail below the input")
	}
	if m.snapshot.Loading {
		t.Error("loading should be cleared after failure")
	}
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, api.NewMockChatClient())
			_, cmd := m.Update(tt.msg)
			if !isQuit(cmd) {
				t.Errorf("%s should quit", tt.name)
			}
		})
	}
}

func TestEscWhileLoadingDoesNotQuit(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())
	m, _ = submit(t, m, "Hi")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if isQuit(cmd) {
		t.Error("esc should not quit while a response streams")
	}
}

func TestExitCommands(t *testing.T) {
	for _, input := range []string{"exit", "quit", "/exit", "/quit"} {
		t.Run(input, func(t *testing.T) {
			client := api.NewMockChatClient()
			m := newTestModel(t, client)

			m = typeText(t, m, input)
			_, cmd := pressEnter(m)

			if !isQuit(cmd) {
				t.Errorf("%q should quit", input)
			}
			if client.StreamCalls != 0 {
				t.Error("exit command should not be sent")
			}
		})
	}
}

func TestCopyLastAnswer(t *testing.T) {
	client := api.NewMockChatClient("data: answer\n\n")
	m := newTestModel(t, client)

	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY}); cmd != nil {
		t.Error("nothing to copy before any answer")
	}

	m, history := submit(t, m, "Hi")
	m = update(t, m, m.streamResponse(history)())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd == nil {
		t.Fatal("expected copy command")
	}
	m = update(t, next.(Model), cmd())

	if copied != "answer" {
		t.Errorf("copied %q, want answer", copied)
	}
	if !strings.Contains(m.View(), "Copied") {
		t.Error("status bar should confirm the copy")
	}
}

func TestCopyFailureShown(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())
	m = update(t, m, copiedMsg{err: errors.New("no clipboard utility")})

	if !strings.Contains(m.View(), "Copy failed") {
		t.Error("status bar should report the failure")
	}
}

func TestSnapshotBufferKeepsNewest(t *testing.T) {
	b := newSnapshotBuffer()
	b.push(chat.Snapshot{Input: "a"})
	b.push(chat.Snapshot{Input: "b"})
	b.push(chat.Snapshot{Input: "c"})

	if got := <-b.ch; got.Input != "c" {
		t.Errorf("got %q, want newest snapshot", got.Input)
	}
	select {
	case s := <-b.ch:
		t.Errorf("buffer should be empty, got %+v", s)
	default:
	}
}

func TestRenderMessagesEmptyAnswerAfterLoading(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())
	m.snapshot = chat.Snapshot{
		Messages: []models.Message{
			{Role: models.RoleUser, Content: "Hi"},
			{Role: models.RoleAssistant, Content: ""},
		},
	}

	out := m.renderMessages(80)
	if strings.Contains(out, ThinkingText) {
		t.Error("thinking indicator only shows while loading")
	}
	if !strings.Contains(out, "(no response)") {
		t.Error("empty finished answer should be marked")
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil) != "" {
		t.Error("nil error should format empty")
	}
	if out := FormatError(errors.New("boom")); !strings.Contains(out, "boom") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestConfigReloadAppliesDisplaySettings(t *testing.T) {
	t.Setenv(render.EnvStyle, "")
	t.Cleanup(func() {
		render.SetTUITheme("tokyonight")
		UpdateTheme()
	})

	changes := make(chan config.Config, 1)
	session := chat.NewSession(chat.NewConversation(), api.NewMockChatClient())
	m := NewChatModel(context.Background(), session, Options{
		Endpoint:      "http://localhost:8080/api/chat",
		ConfigChanges: changes,
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	cfg := config.DefaultConfig()
	cfg.AssistantName = "Helper"
	cfg.TUITheme = "nord"
	cfg.Markdown.Style = render.StyleNoTTY
	cfg.Endpoint = "http://elsewhere:9/chat"
	changes <- cfg

	msg := m.waitForConfig()()
	if _, ok := msg.(configMsg); !ok {
		t.Fatalf("expected configMsg, got %T", msg)
	}
	next, cmd := m.Update(msg)
	m = next.(Model)

	if cmd == nil {
		t.Error("model should keep waiting for further changes")
	}
	if m.opts.AssistantName != "Helper" {
		t.Errorf("AssistantName = %q, want Helper", m.opts.AssistantName)
	}
	if m.opts.Render.Style != render.StyleNoTTY {
		t.Errorf("Style = %q, want %q", m.opts.Render.Style, render.StyleNoTTY)
	}
	if m.opts.Endpoint != "http://localhost:8080/api/chat" {
		t.Error("endpoint should not change during a session")
	}
	if render.GetTUITheme().Name != "nord" {
		t.Errorf("theme = %q, want nord", render.GetTUITheme().Name)
	}
	if !strings.Contains(m.View(), "Configuration reloaded") {
		t.Error("status bar should confirm the reload")
	}
}

func TestWaitForConfigWithoutWatcher(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())
	if m.waitForConfig() != nil {
		t.Error("no command expected without a change channel")
	}
}

func TestTypingKeepsScrollPosition(t *testing.T) {
	m := newTestModel(t, api.NewMockChatClient())
	for i := 0; i < 30; i++ {
		m.conv.AppendUserMessage(fmt.Sprintf("question %d", i))
		m.conv.AppendAssistantMessage(fmt.Sprintf("answer %d", i))
	}
	m = update(t, m, m.waitForSnapshot()())
	if !m.viewport.AtBottom() {
		t.Fatal("new messages should scroll to the bottom")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	offset := m.viewport.YOffset
	if m.viewport.AtBottom() {
		t.Fatal("pgup should leave the bottom")
	}

	m = typeText(t, m, "x")
	m = update(t, m, m.waitForSnapshot()())

	if m.conv.Input() != "x" {
		t.Errorf("Input() = %q, want x", m.conv.Input())
	}
	if m.viewport.YOffset != offset {
		t.Errorf("typing moved the viewport from %d to %d", offset, m.viewport.YOffset)
	}
}

func TestContentChanged(t *testing.T) {
	base := chat.Snapshot{Messages: []models.Message{{Role: models.RoleUser, Content: "Hi"}}}

	tests := []struct {
		name string
		next chat.Snapshot
		want bool
	}{
		{"input only", chat.Snapshot{Messages: base.Messages, Input: "typed"}, false},
		{"loading", chat.Snapshot{Messages: base.Messages, Loading: true}, true},
		{"new message", chat.Snapshot{Messages: append([]models.Message{}, base.Messages[0], models.Message{Role: models.RoleAssistant})}, true},
		{"edited content", chat.Snapshot{Messages: []models.Message{{Role: models.RoleUser, Content: "Hello"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentChanged(base, tt.next); got != tt.want {
				t.Errorf("contentChanged() = %v, want %v", got, tt.want)
			}
		})
	}
}
