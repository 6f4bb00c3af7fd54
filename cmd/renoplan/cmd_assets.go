package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"renoplan/internal/assets"
)

var (
	assetSession  string
	imageCategory string
)

var renderingsCmd = &cobra.Command{
	Use:   "renderings",
	Short: "List the renderings of a session",
	Long: `Lists every rendering asset with its version count and latest file.
Without --session the most recently active session is shown.`,
	RunE: runRenderings,
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage uploaded reference images",
}

var imagesAddCmd = &cobra.Command{
	Use:   "add [path...]",
	Short: "Upload images into a session",
	Long: `Copies images into the uploads directory, saves them to artifact
storage and registers them with the session. Without --session a new
session is created.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImagesAdd,
}

var imagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reference images of a session",
	RunE:  runImagesList,
}

func init() {
	renderingsCmd.Flags().StringVar(&assetSession, "session", "", "Session id (default: latest)")
	imagesListCmd.Flags().StringVar(&assetSession, "session", "", "Session id (default: latest)")
	imagesAddCmd.Flags().StringVar(&assetSession, "session", "", "Session id (default: new session)")
	imagesAddCmd.Flags().StringVarP(&imageCategory, "category", "c", string(assets.CategoryCurrentRoom), "current_room, inspiration or reference")

	imagesCmd.AddCommand(imagesAddCmd)
	imagesCmd.AddCommand(imagesListCmd)
}

func runRenderings(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	a, err := newOfflineApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.latestSession(ctx, assetSession)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Fprintln(cmd.OutOrStdout(), assets.NewVersionStore().Describe())
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "session %s\n%s\n", sess.ID, sess.Versions.Describe())
	return nil
}

func runImagesAdd(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	cat, err := assets.ParseCategory(imageCategory)
	if err != nil {
		return err
	}

	a, err := newOfflineApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.openSession(ctx, assetSession)
	if err != nil {
		return err
	}
	for _, path := range args {
		ref, err := a.importer.Import(ctx, sess, path, cat)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", ref.Filename, ref.Category)
	}
	a.saveSession(ctx, sess)
	fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", sess.ID)
	return nil
}

func runImagesList(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	a, err := newOfflineApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.latestSession(ctx, assetSession)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Fprintln(cmd.OutOrStdout(), assets.NewRegistry().Describe())
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "session %s\n%s\n", sess.ID, sess.References.Describe())
	return nil
}
