package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"renoplan/internal/artifacts"
	"renoplan/internal/config"
	"renoplan/internal/logging"
	"renoplan/internal/perception"
	"renoplan/internal/rendering"
	"renoplan/internal/session"
	"renoplan/internal/shards"
	"renoplan/internal/store"
	"renoplan/internal/uploads"
	"renoplan/internal/usage"
)

// app holds the wired components for one CLI invocation.
type app struct {
	cfg       *config.Config
	workspace string

	history    *store.LocalStore
	snapshots  store.SnapshotStore
	closeSnaps func() error
	artifacts  artifacts.Store
	avail      artifacts.Availability
	local      *artifacts.LocalFiles
	importer   *uploads.Importer
	tracker    *usage.Tracker

	// Set by withModels.
	renderer   *rendering.Service
	dispatcher *shards.Dispatcher
}

func resolveWorkspace() (string, error) {
	ws := workspace
	if ws == "" {
		var err error
		if ws, err = os.Getwd(); err != nil {
			return "", err
		}
	}
	return filepath.Abs(ws)
}

func loadConfig() (*config.Config, string, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, "", err
	}
	path := configPath
	if path == "" {
		path = config.DefaultPath(ws)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, ws, nil
}

// newOfflineApp opens storage only. Commands that never call a model use it.
func newOfflineApp(ctx context.Context) (*app, error) {
	cfg, ws, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logDir := config.Resolve(ws, cfg.Logging.Dir)
	if err := logging.Initialize(logDir, logging.Options{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.JSONFormat,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		logger.Warn("file logging disabled", zap.Error(err))
	}

	a := &app{cfg: cfg, workspace: ws}

	a.history, err = store.NewLocalStoreWithDriver(cfg.GetSessionsDriver(), config.Resolve(ws, cfg.Sessions.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	a.snapshots, a.closeSnaps = store.OpenSnapshots(ctx, cfg.Sessions, cfg.GetSessionTTL(), a.history)

	a.artifacts, a.avail = artifacts.Open(ctx, cfg.Artifacts, ws)
	logger.Debug("artifact storage", zap.String("availability", a.avail.String()))

	if a.local, err = artifacts.NewLocalFiles(config.Resolve(ws, cfg.Artifacts.LocalDir)); err != nil {
		a.Close()
		return nil, err
	}
	if a.importer, err = uploads.NewImporter(config.Resolve(ws, cfg.Uploads.Dir), a.artifacts); err != nil {
		a.Close()
		return nil, err
	}
	if a.tracker, err = usage.NewTracker(filepath.Join(ws, config.DataDir)); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newApp opens storage and connects the Gemini models.
func newApp(ctx context.Context) (*app, error) {
	a, err := newOfflineApp(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.withModels(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) withModels(ctx context.Context) error {
	cfg := a.cfg
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	retry := perception.RetryPolicy{MaxRetries: cfg.LLM.MaxRetries, Delay: cfg.GetRetryDelay()}

	textCfg := perception.DefaultGeminiConfig(cfg.LLM.APIKey)
	textCfg.Model = cfg.LLM.TextModel
	textCfg.Timeout = cfg.GetLLMTimeout()
	textCfg.Retry = retry
	llm, err := perception.NewGeminiClient(ctx, textCfg)
	if err != nil {
		return err
	}

	imageModel, err := rendering.NewGeminiImageModel(ctx, rendering.ImageModelConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.ImageModel,
		Timeout: cfg.GetLLMTimeout(),
		Retry:   retry,
	})
	if err != nil {
		return err
	}

	a.renderer = rendering.NewService(rendering.Options{
		Model:        imageModel,
		Rewriter:     &rendering.PromptRewriter{LLM: llm},
		Store:        a.artifacts,
		Availability: a.avail,
		Local:        a.local,
		UploadsDir:   a.importer.Dir(),
	})

	deps := shards.Deps{LLM: llm, Renderer: a.renderer}
	if cfg.Search.Enabled {
		deps.Search = llm.WithGoogleSearch()
	}
	manager := shards.NewManager(deps)
	shards.RegisterAllShards(manager)

	var router perception.Router = perception.NewHeuristicRouter()
	if cfg.LLM.Routing == "llm" {
		router = perception.NewLLMRouter(llm)
	}

	a.dispatcher = shards.NewDispatcher(router, manager,
		shards.WithTurnRecorder(a.history),
		shards.WithSnapshots(a.snapshots),
	)
	logging.Boot("models ready: text=%s image=%s routing=%s search=%t",
		textCfg.Model, cfg.LLM.ImageModel, cfg.LLM.Routing, cfg.Search.Enabled)
	return nil
}

// withUsage attaches the usage tracker.
func (a *app) withUsage(ctx context.Context) context.Context {
	return usage.NewContext(ctx, a.tracker)
}

// openSession resumes id, or starts a new session when id is empty.
func (a *app) openSession(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		sess := session.New()
		logging.Session("new session %s", sess.ID)
		return sess, nil
	}
	sess, err := session.Load(ctx, a.snapshots, id)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", id, err)
	}
	return sess, nil
}

// latestSession resumes id, or the most recently active session.
func (a *app) latestSession(ctx context.Context, id string) (*session.Session, error) {
	if id != "" {
		return a.openSession(ctx, id)
	}
	infos, err := a.history.ListSessions(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, nil
	}
	return a.openSession(ctx, infos[0].ID)
}

func (a *app) saveSession(ctx context.Context, sess *session.Session) {
	if err := session.Save(ctx, a.snapshots, sess); err != nil {
		logger.Warn("failed to save session", zap.String("session", sess.ID), zap.Error(err))
	}
}

func (a *app) Close() {
	if a.tracker != nil {
		if err := a.tracker.Save(); err != nil {
			logger.Warn("failed to save usage", zap.Error(err))
		}
	}
	if a.artifacts != nil {
		_ = a.artifacts.Close()
	}
	if a.closeSnaps != nil {
		_ = a.closeSnaps()
	}
	if a.history != nil {
		_ = a.history.Close()
	}
	logging.CloseAll()
}
