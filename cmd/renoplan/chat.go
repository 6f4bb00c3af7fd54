package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"renoplan/cmd/renoplan/chat"
	"renoplan/internal/assets"
	"renoplan/internal/session"
	"renoplan/internal/shards"
	"renoplan/internal/uploads"
)

var resumeID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat (default)",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&resumeID, "resume", "", "Resume a saved session")
}

// chatBackend binds the app to one session for the TUI.
type chatBackend struct {
	app  *app
	sess *session.Session
}

func (b *chatBackend) Process(ctx context.Context, text string) *shards.Response {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return b.app.dispatcher.Process(ctx, b.sess, text)
}

func (b *chatBackend) Upload(ctx context.Context, path string, category assets.Category) (assets.Reference, error) {
	ref, err := b.app.importer.Import(ctx, b.sess, path, category)
	if err != nil {
		return ref, err
	}
	b.app.saveSession(ctx, b.sess)
	return ref, nil
}

func (b *chatBackend) Renderings() string { return b.sess.Versions.Describe() }
func (b *chatBackend) Images() string     { return b.sess.References.Describe() }
func (b *chatBackend) SetAttach(on bool)  { b.sess.SetAttachReferences(on) }
func (b *chatBackend) SessionID() string  { return b.sess.ID }

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmdContext(cmd))
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx = a.withUsage(ctx)

	sess, err := a.openSession(ctx, resumeID)
	if err != nil {
		return err
	}

	if a.cfg.Uploads.Watch {
		w, err := uploads.NewWatcher(a.importer.Dir(), a.importer.Handler(sess))
		if err != nil {
			logger.Warn("upload watcher disabled", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			logger.Warn("upload watcher disabled", zap.Error(err))
			w.Stop()
		} else {
			defer w.Stop()
		}
	}

	p := tea.NewProgram(chat.New(ctx, &chatBackend{app: a, sess: sess}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	a.saveSession(ctx, sess)
	fmt.Fprintf(cmd.OutOrStdout(), "Session saved. Resume with: renoplan chat --resume %s\n", sess.ID)
	return nil
}
