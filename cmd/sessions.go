package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/jsxlive/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, show and delete saved chat sessions",
	Long: `Manage the chat sessions kept by the session store. Only the sqlite
driver persists sessions between runs.

Examples:
  jsxlive sessions list
  jsxlive sessions show 9b2c... -o json
  jsxlive sessions delete 9b2c...`,
	PersistentPreRunE: bindFlagsPreRun(map[string]string{
		"session-driver": "session.driver",
		"session-path":   "session.path",
	}),
}

var sessionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions, most recently updated first",
	Args:    cobra.NoArgs,
	RunE: withStore(func(cmd *cobra.Command, store session.Store, _ []string) error {
		summaries, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		if format, _ := cmd.Flags().GetString("format"); format != "table" {
			return writeOutput(cmd, summaries)
		}

		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions")

			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMESSAGES\tUPDATED")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Messages, s.UpdatedAt.Local().Format(time.DateTime))
		}

		return w.Flush()
	}),
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session's transcript and component",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store session.Store, args []string) error {
		s, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return writeOutput(cmd, s)
	}),
}

var sessionsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session",
	Args:    cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store session.Store, args []string) error {
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Deleted", args[0])

		return nil
	}),
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd)

	sessionsCmd.PersistentFlags().String("session-driver", "", "Session store (memory, sqlite)")
	sessionsCmd.PersistentFlags().String("session-path", "", "Path of the sqlite session database")

	sessionsListCmd.Flags().StringP("format", "o", "table", "Output format (table, yaml, json)")
	addFormatFlag(sessionsShowCmd, "json")
}

// withStore opens the configured session store around fn.
func withStore(fn func(*cobra.Command, session.Store, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		store, err := session.Open(cmd.Context(), cfg.Session.Driver, cfg.Session.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		return fn(cmd, store, args)
	}
}
