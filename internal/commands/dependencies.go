package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/streamchat/internal/api"
	"github.com/diogo/streamchat/internal/chat"
	"github.com/diogo/streamchat/internal/config"
	"github.com/diogo/streamchat/internal/logger"
	"github.com/diogo/streamchat/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// Tests replace them to run commands without a terminal or a backend.
type Dependencies struct {
	// LoadConfig reads the user configuration.
	LoadConfig func() (config.Config, error)

	// NewClient builds the chat client for a resolved configuration.
	NewClient func(cfg config.Config, log *slog.Logger) (api.ChatClientInterface, error)

	// RunChat runs the interactive chat until the user quits.
	RunChat func(ctx context.Context, session *chat.Session, opts tui.Options) error

	// CopyText writes to the system clipboard.
	CopyText func(text string) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinIsPipe reports whether a prompt is being piped in.
	StdinIsPipe func() bool

	// StdoutIsTTY reports whether decorated output should be used.
	StdoutIsTTY func() bool

	// TerminalWidth returns the width used for rendered answers.
	TerminalWidth func() int

	// WatchConfig enables live reload of the config file during chat.
	WatchConfig bool
}

// NewDependencies creates Dependencies wired to the real terminal and network.
func NewDependencies() *Dependencies {
	return &Dependencies{
		LoadConfig:    config.LoadConfig,
		NewClient:     newClientFromConfig,
		RunChat:       tui.RunChat,
		CopyText:      clipboard.WriteAll,
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		StdinIsPipe:   stdinIsPipe,
		StdoutIsTTY:   isStdoutTTY,
		TerminalWidth: getTerminalWidth,
		WatchConfig:   true,
	}
}

// newClientFromConfig builds the HTTP chat client described by cfg
func newClientFromConfig(cfg config.Config, log *slog.Logger) (api.ChatClientInterface, error) {
	opts := []api.ClientOption{
		api.WithEndpoint(cfg.Endpoint),
		api.WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		api.WithLogger(log),
	}

	if cfg.ClientProfile != "" {
		profile, ok := api.ProfileFromName(cfg.ClientProfile)
		if !ok {
			return nil, fmt.Errorf("unknown client profile %q", cfg.ClientProfile)
		}
		opts = append(opts, api.WithClientProfile(profile))
	}

	client, err := api.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// environment is the per-invocation state resolved from config and flags
type environment struct {
	cfg    config.Config
	log    *slog.Logger
	closer io.Closer
}

func (e *environment) Close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

// resolve loads config and applies environment and flag overrides
func (d *Dependencies) resolve(flags *globalFlags) (*environment, error) {
	cfg, err := d.LoadConfig()
	if err != nil {
		fmt.Fprintf(d.Stderr, "Warning: %v (using defaults)\n", err)
	}
	cfg = config.ApplyEnvOverrides(cfg)

	if flags.endpoint != "" {
		cfg.Endpoint = flags.endpoint
	}
	if flags.verbose {
		cfg.Verbose = true
	}

	logPath, err := config.GetLogPath(cfg)
	if err != nil {
		return nil, err
	}
	log, closer, err := logger.Open(logPath, cfg.Verbose)
	if err != nil {
		fmt.Fprintf(d.Stderr, "Warning: %v\n", err)
	}

	return &environment{cfg: cfg, log: log, closer: closer}, nil
}

func (d *Dependencies) newSession(env *environment) (*chat.Session, api.ChatClientInterface, error) {
	client, err := d.NewClient(env.cfg, env.log)
	if err != nil {
		return nil, nil, err
	}
	session := chat.NewSession(chat.NewConversation(), client, chat.WithLogger(env.log))
	return session, client, nil
}

func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
