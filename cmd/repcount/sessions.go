package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions/client"
)

func newSessionsCmd(root *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the stored sessions of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.apiURL == "" {
				return errors.New("--api is required")
			}

			apiClient := client.New(root.apiURL, root.apiToken, root.timeout)
			list, err := apiClient.List(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintf(out, "No sessions stored for %s.\n", username)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "STARTED\tDURATION\tREPS\tEXERCISES")
			fmt.Fprintln(w, "-------\t--------\t----\t---------")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", startedAt(s), s.Duration, s.TotalReps(), countsColumn(s))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "user to list the sessions of")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func startedAt(s reps.SessionSummary) string {
	if s.StartedAt.IsZero() {
		return "-"
	}
	return s.StartedAt.Local().Format("2006-01-02 15:04")
}

func countsColumn(s reps.SessionSummary) string {
	parts := make([]string, 0, len(s.Exercises))
	for _, e := range s.Exercises {
		parts = append(parts, fmt.Sprintf("%s: %d", e, s.Counts[e].Reps))
	}
	return strings.Join(parts, ", ")
}
