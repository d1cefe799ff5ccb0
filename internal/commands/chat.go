package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/streamchat/internal/config"
	"github.com/diogo/streamchat/internal/render"
	"github.com/diogo/streamchat/internal/tui"
)

// configDebounce coalesces the burst of events editors emit on save
const configDebounce = 200 * time.Millisecond

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Every message is sent together with the whole conversation so far and the
answer is shown as it streams in. Type 'exit', 'quit', or press Ctrl+C to
end the session.

Theme, markdown and assistant name changes saved to the config file are
applied while the session is running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := deps.resolve(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			session, client, err := deps.newSession(env)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			opts := chatOptions(env)

			if deps.WatchConfig {
				watcher, err := startConfigWatcher(env)
				if err != nil {
					env.log.Warn("config reload disabled", "error", err)
				} else {
					defer watcher.Close()
					go watcher.Run(ctx)
					opts.ConfigChanges = watcher.Changes()
				}
			}

			return deps.RunChat(ctx, session, opts)
		},
	}
}

func startConfigWatcher(env *environment) (*config.Watcher, error) {
	path, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	return config.NewWatcher(path, configDebounce, env.log)
}

// chatOptions derives the TUI options from the resolved configuration and
// activates the configured theme
func chatOptions(env *environment) tui.Options {
	opts := tui.OptionsFromConfig(env.cfg)
	if env.cfg.TUITheme != "" && !knownTheme(env.cfg.TUITheme) {
		env.log.Warn("unknown tui theme, keeping default", "theme", env.cfg.TUITheme)
	}
	return opts
}

func knownTheme(name string) bool {
	_, ok := render.GetTUIThemeByName(name)
	return ok
}
