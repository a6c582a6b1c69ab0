package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/gymreps/internal/logging"
)

type rootOptions struct {
	apiURL   string
	apiToken string
	timeout  time.Duration
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "repcount",
		Short:         "Count exercise repetitions from recorded pose landmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.LoggerSetupParams{
				LogLevel: opts.logLevel,
			})
			// logs go to stderr, stdout is kept for summaries
			log.SetOutput(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", "", "base URL of the gymreps service")
	rootCmd.PersistentFlags().StringVar(&opts.apiToken, "token", os.Getenv("REPS_API_SECRET"), "API secret sent in the X-REPS-TOKEN header")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "API request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level [trace | debug | info | warn | error]")

	rootCmd.AddCommand(newReplayCmd(opts))
	rootCmd.AddCommand(newSessionsCmd(opts))

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
