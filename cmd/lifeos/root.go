package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/lifeos/internal/cloud"
	"github.com/sandeepkv93/lifeos/internal/config"
	"github.com/sandeepkv93/lifeos/internal/logging"
	"github.com/sandeepkv93/lifeos/internal/model"
	"github.com/sandeepkv93/lifeos/internal/state"
	"github.com/sandeepkv93/lifeos/internal/storage"
	"github.com/sandeepkv93/lifeos/internal/syncer"
	"github.com/sandeepkv93/lifeos/internal/update"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lifeos",
		Short:         "Personal dashboard for focus, tasks, reading and links",
		Long:          "lifeos is a terminal dashboard that keeps its state on disk and optionally mirrors it to a JSON document store.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $LIFEOS_CONFIG or ~/.lifeos/config.yaml)")
	root.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	root.AddCommand(
		newExportCmd(),
		newImportCmd(),
		newPushCmd(),
		newPullCmd(),
		newStatusCmd(),
		newConnectCmd(),
		newDisconnectCmd(),
	)
	return root
}

type app struct {
	cfg    config.Runtime
	logger *log.Logger
	local  *storage.LocalStore
	store  *state.Store
	sync   *syncer.Orchestrator
	closer io.Closer
}

type openOptions struct {
	headless  bool
	exportDir string
}

// openApp loads config, opens the local store and restores persisted state.
// Headless commands log to stderr; the dashboard logs to the rotated file.
func openApp(ctx context.Context, opts openOptions) (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.exportDir != "" {
		cfg.ExportDir = opts.exportDir
	}

	logger, closer := logging.New(logging.Options{
		File:       cfg.LogFile,
		Level:      cfg.LogLevel,
		Debug:      cfg.Debug,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Stderr:     opts.headless,
	})

	kv, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		// Without a store the dashboard still runs; nothing survives a restart.
		logger.WithError(err).WithField("backend", cfg.StoreBackend).Warn("local store unavailable, state will not persist")
		kv = nil
	}
	local := storage.NewLocalStore(kv, logger.WithField("component", "storage"))

	store := state.New(local.LoadSnapshot(ctx), local.LoadTrackers(ctx))
	orch := syncer.New(store, local, syncer.Options{
		SaveRevert:   cfg.SaveRevert,
		Debounce:     cfg.AutoSyncDebounce,
		ImportRevert: cfg.ImportRevert,
		TimerBuffer:  cfg.TimerBuffer,
		ExportDir:    cfg.ExportDir,
		WatchDir:     watchDir(cfg, opts.headless),
		NewRemote: func(c model.CloudConfig) (cloud.Remote, error) {
			return cloud.NewClient(c, cloud.Options{BaseURL: cfg.CloudBaseURL, Timeout: cfg.CloudTimeout})
		},
		Logger: logger.WithField("component", "syncer"),
	})

	return &app{cfg: cfg, logger: logger, local: local, store: store, sync: orch, closer: closer}, nil
}

func watchDir(cfg config.Runtime, headless bool) string {
	if headless {
		return ""
	}
	return cfg.WatchDir
}

func (a *app) Close() {
	a.sync.Stop()
	if err := a.local.Close(); err != nil {
		a.logger.WithError(err).Warn("error closing local store")
	}
	_ = a.closer.Close()
}

func runDashboard(ctx context.Context) error {
	a, err := openApp(ctx, openOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sync.Start(); err != nil {
		return fmt.Errorf("start sync: %w", err)
	}
	a.logger.WithField("backend", a.cfg.StoreBackend).Info("dashboard started")

	program := tea.NewProgram(update.NewModel(a.store, a.sync), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), a.cfg.CloudTimeout)
	defer cancel()
	if err := a.sync.Flush(flushCtx); err != nil {
		a.logger.WithError(err).Warn("error pushing pending changes on exit")
	}
	return nil
}
