package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var sessionJSON bool

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect past search sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

func init() {
	sessionShowCmd.Flags().BoolVar(&sessionJSON, "json", false, "output the session as JSON")
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	sessions, err := searchService.ListSessions(context.Background())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		cmd.Println("No sessions stored.")
		return nil
	}

	cmd.Printf("%-38s %-20s %-10s %-8s %s\n", "ID", "CREATED", "STATUS", "SOURCES", "DOCS")
	for _, s := range sessions {
		cmd.Printf("%-38s %-20s %-10s %d/%-6d %d\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Status,
			s.Counts.SourcesSucceeded, s.Counts.SourcesAttempted, s.Counts.Documents)
	}
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	session, err := searchService.GetSession(context.Background(), args[0])
	if err != nil {
		return err
	}

	if sessionJSON {
		return outputSessionJSON(cmd, session)
	}
	outputSessionSummary(cmd, session)
	return nil
}
