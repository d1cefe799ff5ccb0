package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/streamchat/internal/chat"
	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/render"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#5f27cd"),
	lipgloss.Color("#00d2d3"),
	lipgloss.Color("#1dd1a1"),
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorPrimary  = lipgloss.Color("#7aa2f7")
	colorError    = lipgloss.Color("#f7768e")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)
)

// spinner draws an animated progress line on w until stopped
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.w, "\033[?25l")

		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// setMessage changes the text shown next to the animation
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dots.WriteString(lipgloss.NewStyle().Foreground(gradientColors[(s.frame+i)%len(gradientColors)]).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.w, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	fmt.Fprintf(s.w, "%s %s\n", checkmark, lipgloss.NewStyle().Foreground(colorSuccess).Render(message))
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// queryOptions controls one-shot output
type queryOptions struct {
	// raw streams the answer text to stdout as it arrives
	raw    bool
	output string
}

// rawWriter prints the growth of the streamed answer as it arrives.
// The answer is the message at index answerAt; later messages are ignored.
type rawWriter struct {
	w        io.Writer
	answerAt int
	printed  int
}

func (r *rawWriter) observe(s chat.Snapshot) {
	if len(s.Messages) <= r.answerAt {
		return
	}
	content := s.Messages[r.answerAt].Content
	if len(content) > r.printed {
		fmt.Fprint(r.w, content[r.printed:])
		r.printed = len(content)
	}
}

// runQuery sends a single prompt and prints the answer
func runQuery(ctx context.Context, deps *Dependencies, env *environment, prompt string, opts queryOptions) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return apierrors.ErrEmptyPrompt
	}

	session, client, err := deps.newSession(env)
	if err != nil {
		return err
	}
	defer client.Close()

	conv := session.Conversation()

	// The user message lands at index 0 and the streamed answer at index 1
	var spin *spinner
	if opts.raw && opts.output == "" {
		conv.Subscribe((&rawWriter{w: deps.Stdout, answerAt: 1}).observe)
	} else if !opts.raw {
		spin = newSpinner(deps.Stderr, "Waiting for "+env.cfg.AssistantName)
		conv.Subscribe(func(s chat.Snapshot) {
			if len(s.Messages) > 1 && s.Messages[1].Content != "" {
				spin.setMessage(env.cfg.AssistantName + " is responding")
			}
		})
		spin.start()
	}

	startTime := time.Now()
	_, err = session.SubmitText(ctx, prompt)
	env.log.Debug("query finished", "duration", time.Since(startTime), "error", err)

	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return fmt.Errorf("request failed: %w", err)
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}

	var text string
	if msgs := conv.Messages(); len(msgs) > 1 {
		text = msgs[1].Content
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !opts.raw {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Answer saved to %s", opts.output),
			))
		}
	}

	if env.cfg.CopyToClipboard {
		copyAnswer(deps, text, opts.raw)
	}

	if opts.output != "" {
		return nil
	}
	if opts.raw {
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(deps.Stdout)
		}
		return nil
	}

	bubbleWidth := deps.TerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	renderOpts := render.OptionsFromConfig(env.cfg.Markdown).WithWidth(bubbleWidth - 4)
	fmt.Fprintln(deps.Stdout, assistantLabelStyle.Render("✦ "+env.cfg.AssistantName))
	fmt.Fprintln(deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(render.MessageContent(text, renderOpts)))

	return nil
}

func copyAnswer(deps *Dependencies, text string, quiet bool) {
	err := deps.CopyText(text)
	if quiet {
		return
	}
	if err != nil {
		fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorError).Render(
			fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
		))
		return
	}
	fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the chat backend is running and the endpoint is right"))
	case apierrors.IsStreamError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The connection dropped while the answer was streaming"))
	}

	return sb.String()
}
