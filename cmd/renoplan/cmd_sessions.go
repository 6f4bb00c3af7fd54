package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"renoplan/internal/config"
)

var (
	sessionsLimit int
	configForce   bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect saved sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, most recent first",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show the conversation of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show model token usage for this workspace",
	RunE:  runUsage,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage renoplan configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE:  runConfigInit,
}

func init() {
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")
	sessionsShowCmd.Flags().IntVar(&sessionsLimit, "limit", 100, "Maximum turns to show")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	a, err := newOfflineApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	infos, err := a.history.ListSessions(ctx, sessionsLimit)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tTURNS\tLAST ACTIVE")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%s\n", info.ID, info.Turns, humanize.Time(info.UpdatedAt))
	}
	return w.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	a, err := newOfflineApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	turns, err := a.history.GetSessionHistory(ctx, args[0], sessionsLimit)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("session %s not found", args[0])
	}

	out := cmd.OutOrStdout()
	for _, t := range turns {
		fmt.Fprintf(out, "#%d [%s] %s\n> %s\n%s\n\n", t.Number, t.Destination, humanize.Time(t.CreatedAt), t.UserInput, t.Response)
	}
	return nil
}

func runUsage(cmd *cobra.Command, args []string) error {
	a, err := newOfflineApp(cmdContext(cmd))
	if err != nil {
		return err
	}
	defer a.Close()
	fmt.Fprintln(cmd.OutOrStdout(), a.tracker.Summary())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	path := configPath
	if path == "" {
		path = config.DefaultPath(ws)
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
