// Package syncer keeps local storage and the cloud document in step with the
// dashboard state and exposes the resulting status to the UI.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/lifeos/internal/cloud"
	"github.com/sandeepkv93/lifeos/internal/model"
	"github.com/sandeepkv93/lifeos/internal/scheduler"
	"github.com/sandeepkv93/lifeos/internal/state"
	"github.com/sandeepkv93/lifeos/internal/storage"
	"github.com/sandeepkv93/lifeos/internal/transfer"
)

var ErrNotConnected = errors.New("syncer: cloud sync is not configured")

type Status string

const (
	StatusReady    Status = "READY"
	StatusSaving   Status = "SAVING"
	StatusSyncing  Status = "SYNCING"
	StatusError    Status = "ERROR"
	StatusImported Status = "IMPORTED"
)

const (
	keySaveRevert   scheduler.Key = "save-revert"
	keyImportRevert scheduler.Key = "import-revert"
	keyAutoSync     scheduler.Key = "autosync"
)

// Info is the status line shown to the user.
type Info struct {
	Status     Status
	LastSynced time.Time
	Connected  bool
	AutoSync   bool
	BinID      string
	MaskedKey  string
	Err        string
}

// RemoteFactory builds a cloud client for a connected config.
type RemoteFactory func(model.CloudConfig) (cloud.Remote, error)

type Options struct {
	SaveRevert   time.Duration
	Debounce     time.Duration
	ImportRevert time.Duration
	TimerBuffer  int
	ExportDir    string
	WatchDir     string
	NewRemote    RemoteFactory
	Logger       *log.Entry
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.SaveRevert <= 0 {
		o.SaveRevert = 500 * time.Millisecond
	}
	if o.Debounce <= 0 {
		o.Debounce = 5 * time.Second
	}
	if o.ImportRevert <= 0 {
		o.ImportRevert = 2 * time.Second
	}
	if o.TimerBuffer <= 0 {
		o.TimerBuffer = 16
	}
	if o.ExportDir == "" {
		o.ExportDir = "."
	}
	if o.NewRemote == nil {
		o.NewRemote = func(cfg model.CloudConfig) (cloud.Remote, error) {
			return cloud.NewClient(cfg, cloud.Options{})
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewEntry(log.StandardLogger())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Orchestrator struct {
	store  *state.Store
	local  *storage.LocalStore
	engine *scheduler.Engine
	opts   Options
	logger *log.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	status     Status
	lastSynced time.Time
	lastErr    error
	cloudCfg   model.CloudConfig
	remote     cloud.Remote
	started    bool
	stopped    bool
	watcher    *transfer.Watcher

	updates     chan Info
	unsubscribe func()
}

// New wires the orchestrator to store. Mutations are persisted from this
// point on; timers and the initial cloud pull begin with Start.
func New(store *state.Store, local *storage.LocalStore, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		store:   store,
		local:   local,
		engine:  scheduler.NewEngine(opts.TimerBuffer),
		opts:    opts,
		logger:  opts.Logger.WithField("component", "syncer"),
		ctx:     ctx,
		cancel:  cancel,
		status:  StatusReady,
		updates: make(chan Info, 16),
	}
	if err := o.setCloudConfig(local.LoadCloudConfig(ctx)); err != nil {
		o.logger.WithError(err).Warn("error restoring cloud config, staying local")
	}
	o.unsubscribe = store.Subscribe(o.onChange)
	return o
}

func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.started || o.stopped {
		o.mu.Unlock()
		return nil
	}
	o.started = true
	connected := o.remote != nil
	o.mu.Unlock()

	o.engine.Start()
	o.wg.Add(1)
	go o.timerLoop()

	if o.opts.WatchDir != "" {
		if err := o.startWatcher(); err != nil {
			return err
		}
	}
	if connected {
		o.goAsync(func(ctx context.Context) { _ = o.pull(ctx) })
	}
	return nil
}

// Stop cancels timers and in-flight cloud calls and detaches from the store.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	watcher := o.watcher
	o.mu.Unlock()

	o.unsubscribe()
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			o.logger.WithError(err).Warn("error stopping import watcher")
		}
	}
	o.cancel()
	o.engine.Stop()
	o.wg.Wait()
}

func (o *Orchestrator) Updates() <-chan Info {
	return o.updates
}

func (o *Orchestrator) Info() Info {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.infoLocked()
}

func (o *Orchestrator) infoLocked() Info {
	info := Info{
		Status:     o.status,
		LastSynced: o.lastSynced,
		Connected:  o.remote != nil,
		AutoSync:   o.cloudCfg.AutoSync,
		BinID:      o.cloudCfg.BinID,
		MaskedKey:  o.cloudCfg.MaskedKey(),
	}
	if o.lastErr != nil {
		info.Err = o.lastErr.Error()
	}
	return info
}

func (o *Orchestrator) CloudConfig() model.CloudConfig {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cloudCfg
}

func (o *Orchestrator) onChange(change state.Change) {
	ctx := o.ctx
	if change.Has(state.SliceTrackers) {
		if err := o.local.SaveTrackers(ctx, o.store.Trackers()); err != nil && !errors.Is(err, storage.ErrUnavailable) {
			o.fail(fmt.Errorf("save trackers: %w", err))
			return
		}
	}
	if !touchesSnapshot(change) {
		if change.Origin == state.OriginLocal {
			o.transition(StatusSaving, nil)
		}
		return
	}

	if change.Origin == state.OriginLocal {
		o.transition(StatusSaving, nil)
	}
	if err := o.local.SaveSnapshot(ctx, o.store.Snapshot()); err != nil && !errors.Is(err, storage.ErrUnavailable) {
		o.fail(fmt.Errorf("save snapshot: %w", err))
		return
	}
	if change.Origin != state.OriginRemote {
		o.armAutoSync()
	}
}

func touchesSnapshot(change state.Change) bool {
	for _, s := range change.Slices {
		if s != state.SliceTrackers {
			return true
		}
	}
	return false
}

func (o *Orchestrator) armAutoSync() {
	o.mu.Lock()
	enabled := o.remote != nil && o.cloudCfg.AutoSync
	o.mu.Unlock()
	if !enabled {
		return
	}
	if _, err := o.engine.Arm(keyAutoSync, o.opts.Debounce); err != nil {
		o.logger.WithError(err).Debug("autosync not armed")
		return
	}
	o.logger.WithField("delay", o.opts.Debounce).Debug("autosync armed")
}

func (o *Orchestrator) timerLoop() {
	defer o.wg.Done()
	for {
		select {
		case <-o.ctx.Done():
			return
		case ev := <-o.engine.C():
			if !o.engine.Current(ev) {
				o.logger.WithField("timer", ev.Key).Debug("discarding stale timer")
				continue
			}
			switch ev.Key {
			case keySaveRevert:
				o.revert(StatusSaving)
			case keyImportRevert:
				o.revert(StatusImported)
			case keyAutoSync:
				o.logger.Debug("autosync fired")
				o.goAsync(func(ctx context.Context) { _ = o.push(ctx) })
			}
		}
	}
}

// goAsync runs fn on its own goroutine bound to the orchestrator lifetime.
func (o *Orchestrator) goAsync(fn func(context.Context)) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn(o.ctx)
	}()
}

// ForceSave pushes the current snapshot immediately, independent of the
// autosync debounce.
func (o *Orchestrator) ForceSave(ctx context.Context) error {
	return o.push(ctx)
}

// ForceLoad pulls the remote document immediately.
func (o *Orchestrator) ForceLoad(ctx context.Context) error {
	return o.pull(ctx)
}

// Flush runs a pending autosync push now. Headless commands call it before
// exiting so debounced changes are not lost.
func (o *Orchestrator) Flush(ctx context.Context) error {
	if !o.engine.Pending(keyAutoSync) {
		return nil
	}
	o.engine.Cancel(keyAutoSync)
	return o.push(ctx)
}

func (o *Orchestrator) push(ctx context.Context) error {
	remote := o.currentRemote()
	if remote == nil {
		return ErrNotConnected
	}
	o.transition(StatusSyncing, nil)
	if err := remote.Push(ctx, o.store.Snapshot()); err != nil {
		o.fail(fmt.Errorf("push: %w", err))
		return err
	}
	o.synced()
	o.logger.Info("pushed snapshot to cloud")
	return nil
}

func (o *Orchestrator) pull(ctx context.Context) error {
	remote := o.currentRemote()
	if remote == nil {
		return ErrNotConnected
	}
	o.transition(StatusSyncing, nil)
	patch, ok, err := remote.Pull(ctx)
	if err != nil {
		o.fail(fmt.Errorf("pull: %w", err))
		return err
	}
	if ok {
		o.store.Apply(patch, state.OriginRemote)
		o.logger.Info("applied snapshot from cloud")
	} else {
		o.logger.Info("cloud bin is empty, keeping local state")
	}
	o.synced()
	return nil
}

func (o *Orchestrator) currentRemote() cloud.Remote {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remote
}

// ImportFile reads a backup document from disk and merges it into the state.
func (o *Orchestrator) ImportFile(path string) error {
	patch, err := transfer.ReadFile(path)
	if err != nil {
		o.fail(fmt.Errorf("import %s: %w", path, err))
		return err
	}
	o.applyImport(patch, path)
	return nil
}

func (o *Orchestrator) ImportDocument(data []byte) error {
	patch, err := transfer.Import(data)
	if err != nil {
		o.fail(fmt.Errorf("import: %w", err))
		return err
	}
	o.applyImport(patch, "")
	return nil
}

func (o *Orchestrator) applyImport(patch model.Patch, source string) {
	o.store.Apply(patch, state.OriginImport)
	o.transition(StatusImported, nil)
	o.logger.WithField("source", source).Info("imported backup")
}

// Export writes the current snapshot as a dated backup file.
func (o *Orchestrator) Export() (string, error) {
	path, err := transfer.WriteFile(o.opts.ExportDir, o.store.Snapshot(), o.opts.Now())
	if err != nil {
		o.logger.WithError(err).Warn("error exporting backup")
		return "", err
	}
	o.logger.WithField("path", path).Info("exported backup")
	return path, nil
}

// SetCloudConfig saves cfg and reconnects. A config missing the bin id or key
// disconnects. When the bin id changes the remote document is pulled once.
func (o *Orchestrator) SetCloudConfig(ctx context.Context, cfg model.CloudConfig) error {
	cfg = cfg.Normalized()
	if !cfg.Enabled() {
		return o.Disconnect(ctx)
	}
	if err := o.local.SaveCloudConfig(ctx, cfg); err != nil && !errors.Is(err, storage.ErrUnavailable) {
		o.logger.WithError(err).Warn("error saving cloud config")
	}

	o.mu.Lock()
	previous := o.cloudCfg
	o.mu.Unlock()
	if err := o.setCloudConfig(cfg); err != nil {
		o.fail(fmt.Errorf("connect: %w", err))
		return err
	}
	if !cfg.AutoSync {
		o.engine.Cancel(keyAutoSync)
	}
	o.logger.WithFields(log.Fields{"bin": cfg.BinID, "autosync": cfg.AutoSync}).Info("cloud config saved")
	if previous.BinID != cfg.BinID {
		return o.pull(ctx)
	}
	o.emit()
	return nil
}

// Disconnect forgets the cloud config and returns to local-only operation.
func (o *Orchestrator) Disconnect(ctx context.Context) error {
	o.engine.Cancel(keyAutoSync)
	_ = o.setCloudConfig(model.CloudConfig{})
	o.mu.Lock()
	o.lastSynced = time.Time{}
	o.mu.Unlock()
	o.transition(StatusReady, nil)
	if err := o.local.SaveCloudConfig(ctx, model.CloudConfig{}); err != nil && !errors.Is(err, storage.ErrUnavailable) {
		o.logger.WithError(err).Warn("error saving cloud config")
		return err
	}
	o.logger.Info("cloud sync disconnected")
	return nil
}

func (o *Orchestrator) setCloudConfig(cfg model.CloudConfig) error {
	var remote cloud.Remote
	if cfg.Enabled() {
		r, err := o.opts.NewRemote(cfg)
		if err != nil {
			return err
		}
		remote = r
	}
	o.mu.Lock()
	o.cloudCfg = cfg
	o.remote = remote
	o.mu.Unlock()
	return nil
}

// transition sets the status and supersedes any pending revert. SAVING and
// IMPORTED schedule their own return to READY.
func (o *Orchestrator) transition(next Status, err error) {
	o.engine.Cancel(keySaveRevert)
	o.engine.Cancel(keyImportRevert)

	o.mu.Lock()
	o.status = next
	o.lastErr = err
	o.mu.Unlock()

	switch next {
	case StatusSaving:
		o.armRevert(keySaveRevert, o.opts.SaveRevert)
	case StatusImported:
		o.armRevert(keyImportRevert, o.opts.ImportRevert)
	}
	o.emit()
}

func (o *Orchestrator) armRevert(key scheduler.Key, delay time.Duration) {
	if _, err := o.engine.Arm(key, delay); err != nil {
		o.logger.WithError(err).WithField("timer", key).Debug("revert not armed")
	}
}

func (o *Orchestrator) revert(from Status) {
	o.mu.Lock()
	if o.status != from {
		o.mu.Unlock()
		return
	}
	o.status = StatusReady
	o.mu.Unlock()
	o.emit()
}

func (o *Orchestrator) synced() {
	o.mu.Lock()
	o.lastSynced = o.opts.Now()
	o.mu.Unlock()
	o.transition(StatusReady, nil)
}

func (o *Orchestrator) fail(err error) {
	o.logger.WithError(err).Warn("sync error")
	o.transition(StatusError, err)
}

// emit publishes the latest info without blocking; a full channel loses its
// oldest entry.
func (o *Orchestrator) emit() {
	info := o.Info()
	for {
		select {
		case o.updates <- info:
			return
		default:
		}
		select {
		case <-o.updates:
		default:
		}
	}
}
