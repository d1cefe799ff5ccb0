// Package commands provides CLI commands for streamchat.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	endpoint string
	verbose  bool
}

// NewRootCmd creates the streamchat command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	flags := &globalFlags{}
	var (
		fileFlag   string
		outputFlag string
		rawFlag    bool
	)

	rootCmd := &cobra.Command{
		Use:   "streamchat [prompt]",
		Short: "Terminal client for a streaming chat backend",
		Long: `streamchat sends a conversation to a chat endpoint and shows the answer
as it streams back.

Examples:
  streamchat chat                       Start interactive chat
  streamchat "What is Go?"              Send a single prompt
  streamchat -f prompt.md               Read prompt from file
  cat prompt.md | streamchat            Read prompt from stdin
  streamchat "Hello" -o answer.md       Save the answer to file
  streamchat config set endpoint http://localhost:8080/api/chat`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "streamchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(deps, fileFlag, args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}

			env, err := deps.resolve(flags)
			if err != nil {
				return err
			}
			defer env.Close()

			return runQuery(cmd.Context(), deps, env, prompt, queryOptions{
				raw:    rawFlag || !deps.StdoutIsTTY(),
				output: outputFlag,
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.endpoint, "endpoint", "e", "", "Chat endpoint URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Write debug logs to the log file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save answer to file")
	rootCmd.Flags().BoolVar(&rawFlag, "raw", false, "Stream the raw answer without decoration")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(NewChatCmd(deps, flags))
	rootCmd.AddCommand(NewConfigCmd(deps))

	rootCmd.SetIn(deps.Stdin)
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	return rootCmd
}

// readPrompt picks the prompt from --file, piped stdin or the first argument
func readPrompt(deps *Dependencies, file string, args []string) (string, bool, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	if deps.StdinIsPipe() {
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	}

	return "", false, nil
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := NewDependencies()
	if err := NewRootCmd(deps).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Error"))
		stop()
		os.Exit(1)
	}
}
