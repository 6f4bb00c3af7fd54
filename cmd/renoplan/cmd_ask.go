package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"renoplan/internal/assets"
	"renoplan/internal/shards"
)

var (
	askImages  []string
	askSession string
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message and print the reply",
	Long: `Runs a single turn through the router and the chosen specialist.

Attach photos with --image path[:category], where category is
current_room (default), inspiration or reference.

Examples:
  renoplan ask "Help me renovate my kitchen" --image kitchen.jpg --image inspo.png:inspiration
  renoplan ask --session sess_1234 "make the cabinets cream"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVar(&askImages, "image", nil, "Attach an image (path[:category]), repeatable")
	askCmd.Flags().StringVar(&askSession, "session", "", "Continue a saved session")
}

// parseImageArg splits "path[:category]". A suffix that is not a category
// is treated as part of the path.
func parseImageArg(arg string) (string, assets.Category) {
	if i := strings.LastIndex(arg, ":"); i > 0 {
		if cat, err := assets.ParseCategory(arg[i+1:]); err == nil {
			return arg[:i], cat
		}
	}
	return arg, assets.CategoryCurrentRoom
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmdContext(cmd), timeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx = a.withUsage(ctx)

	sess, err := a.openSession(ctx, askSession)
	if err != nil {
		return err
	}
	for _, arg := range askImages {
		path, cat := parseImageArg(arg)
		if _, err := a.importer.Import(ctx, sess, path, cat); err != nil {
			return err
		}
	}

	resp := a.dispatcher.Process(ctx, sess, strings.Join(args, " "))
	printResponse(cmd, resp)
	fmt.Fprintf(cmd.OutOrStdout(), "\nsession: %s\n", sess.ID)
	return resp.Err
}

func printResponse(cmd *cobra.Command, resp *shards.Response) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s\n", resp.Destination, resp.Text)
	if r := resp.Rendering; r != nil && r.Path != "" {
		fmt.Fprintf(out, "\nrendering: %s\n", r.Path)
	}
	for _, src := range resp.Sources {
		fmt.Fprintf(out, "source: %s\n", src)
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
