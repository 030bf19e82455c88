package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sandeepkv93/lifeos/internal/cloud"
	"github.com/sandeepkv93/lifeos/internal/model"
	"github.com/sandeepkv93/lifeos/internal/state"
	"github.com/sandeepkv93/lifeos/internal/storage"
	"github.com/sandeepkv93/lifeos/internal/transfer"
)

type fakeRemote struct {
	mu      sync.Mutex
	pushes  []model.Snapshot
	pulls   int
	pushErr error
	pullErr error
	patch   model.Patch
	found   bool
}

func (f *fakeRemote) Push(_ context.Context, snap model.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, snap)
	return nil
}

func (f *fakeRemote) Pull(context.Context) (model.Patch, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	return f.patch, f.found, f.pullErr
}

func (f *fakeRemote) setPushErr(err error) {
	f.mu.Lock()
	f.pushErr = err
	f.mu.Unlock()
}

func (f *fakeRemote) counts() (pushes, pulls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes), f.pulls
}

func (f *fakeRemote) lastPush() model.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes[len(f.pushes)-1]
}

type harness struct {
	store  *state.Store
	local  *storage.LocalStore
	kv     *storage.MemoryKV
	remote *fakeRemote
	orch   *Orchestrator
	hook   *test.Hook
}

func newHarness(t *testing.T, cfg model.CloudConfig, mutate func(*Options)) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	entry := log.NewEntry(logger)

	kv := storage.NewMemoryKV()
	local := storage.NewLocalStore(kv, entry)
	if cfg.Enabled() {
		if err := local.SaveCloudConfig(context.Background(), cfg); err != nil {
			t.Fatalf("seed cloud config: %v", err)
		}
	}
	remote := &fakeRemote{}
	opts := Options{
		SaveRevert:   20 * time.Millisecond,
		Debounce:     80 * time.Millisecond,
		ImportRevert: 40 * time.Millisecond,
		ExportDir:    t.TempDir(),
		Logger:       entry,
		NewRemote: func(model.CloudConfig) (cloud.Remote, error) {
			return remote, nil
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	store := state.New(local.LoadSnapshot(context.Background()), local.LoadTrackers(context.Background()))
	orch := New(store, local, opts)
	t.Cleanup(orch.Stop)
	return &harness{store: store, local: local, kv: kv, remote: remote, orch: orch, hook: hook}
}

func waitStatus(t *testing.T, o *Orchestrator, want Status, timeout time.Duration) Info {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if info := o.Info(); info.Status == want {
			return info
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %s, last=%+v", want, o.Info())
	return Info{}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func startConnected(t *testing.T, h *harness) {
	t.Helper()
	if err := h.orch.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, time.Second, func() bool { _, pulls := h.remote.counts(); return pulls == 1 })
	waitStatus(t, h.orch, StatusReady, time.Second)
}

func TestLocalMutationSavesThenReverts(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	if err := h.orch.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	task, err := h.store.AddTask("Write paper", model.TagStudy, "09:00")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if got := h.orch.Info().Status; got != StatusSaving {
		t.Fatalf("expected SAVING right after mutation, got %s", got)
	}
	persisted := h.local.LoadSnapshot(context.Background())
	if len(persisted.Tasks) != 1 || persisted.Tasks[0].ID != task.ID {
		t.Fatalf("expected task persisted synchronously, got %+v", persisted.Tasks)
	}
	for _, key := range []string{storage.KeyFocus, storage.KeyTasks, storage.KeyBook, storage.KeyLinks} {
		if _, err := h.kv.Get(context.Background(), key); err != nil {
			t.Fatalf("expected %s written: %v", key, err)
		}
	}
	waitStatus(t, h.orch, StatusReady, time.Second)
	if pushes, _ := h.remote.counts(); pushes != 0 {
		t.Fatalf("expected no push without cloud config, got %d", pushes)
	}
}

func TestRepeatedSavingKeepsRevertPending(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, func(o *Options) { o.SaveRevert = 60 * time.Millisecond })
	if err := h.orch.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 4; i++ {
		h.store.SetFocus(string(rune('a' + i)))
		time.Sleep(30 * time.Millisecond)
		if got := h.orch.Info().Status; got != StatusSaving {
			t.Fatalf("expected SAVING while mutations continue, got %s", got)
		}
	}
	waitStatus(t, h.orch, StatusReady, time.Second)
}

func TestAutoSyncDebouncesToOnePushWithLatestState(t *testing.T) {
	h := newHarness(t, model.CloudConfig{BinID: "bin", APIKey: "key", AutoSync: true}, nil)
	startConnected(t, h)

	for _, title := range []string{"a", "b", "c"} {
		if _, err := h.store.AddTask(title, model.TagWork, ""); err != nil {
			t.Fatalf("add: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	waitFor(t, time.Second, func() bool { pushes, _ := h.remote.counts(); return pushes == 1 })
	time.Sleep(150 * time.Millisecond)
	if pushes, _ := h.remote.counts(); pushes != 1 {
		t.Fatalf("expected a single debounced push, got %d", pushes)
	}
	if got := h.remote.lastPush(); len(got.Tasks) != 3 || got.Tasks[0].Title != "c" {
		t.Fatalf("expected latest snapshot pushed, got %+v", got.Tasks)
	}
	info := waitStatus(t, h.orch, StatusReady, time.Second)
	if info.LastSynced.IsZero() {
		t.Fatal("expected last synced timestamp after push")
	}
}

func TestAutoSyncDisabledNeverPushes(t *testing.T) {
	h := newHarness(t, model.CloudConfig{BinID: "bin", APIKey: "key"}, nil)
	startConnected(t, h)
	h.store.SetFocus("quiet")
	time.Sleep(200 * time.Millisecond)
	if pushes, _ := h.remote.counts(); pushes != 0 {
		t.Fatalf("expected no push with autosync off, got %d", pushes)
	}
}

func TestPushFailureThenForceSaveRecovers(t *testing.T) {
	h := newHarness(t, model.CloudConfig{BinID: "bin", APIKey: "key", AutoSync: true}, nil)
	h.remote.setPushErr(&cloud.StatusError{Op: "push", Status: 500})
	startConnected(t, h)
	before := h.orch.Info().LastSynced

	h.store.SetFocus("deep work")
	info := waitStatus(t, h.orch, StatusError, time.Second)
	if info.Err == "" {
		t.Fatal("expected error detail recorded")
	}
	if entry := h.hook.LastEntry(); entry == nil || entry.Level != log.WarnLevel {
		t.Fatalf("expected warning logged, got %+v", entry)
	}

	h.remote.setPushErr(nil)
	time.Sleep(5 * time.Millisecond)
	if err := h.orch.ForceSave(context.Background()); err != nil {
		t.Fatalf("force save: %v", err)
	}
	info = h.orch.Info()
	if info.Status != StatusReady || !info.LastSynced.After(before) || info.Err != "" {
		t.Fatalf("expected READY with fresh timestamp, got %+v", info)
	}
	if got := h.remote.lastPush(); got.DailyFocus != "deep work" {
		t.Fatalf("expected current snapshot pushed, got %+v", got)
	}
}

func TestPullNullRecordLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	task, _ := h.store.AddTask("keep me", model.TagLife, "")
	if err := h.store.UpdateBook(&model.Book{Title: "Dune", TotalPages: 100, CurrentPage: 10}); err != nil {
		t.Fatalf("update book: %v", err)
	}
	before := h.store.Snapshot()

	if err := h.orch.SetCloudConfig(context.Background(), model.CloudConfig{BinID: "bin", APIKey: "key"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, pulls := h.remote.counts(); pulls != 1 {
		t.Fatalf("expected one pull on first connect, got %d", pulls)
	}
	after := h.store.Snapshot()
	if len(after.Tasks) != 1 || after.Tasks[0].ID != task.ID || after.Book == nil || after.Book.CurrentPage != before.Book.CurrentPage {
		t.Fatalf("expected untouched state, got %+v", after)
	}
	info := h.orch.Info()
	if info.Status != StatusReady || info.LastSynced.IsZero() {
		t.Fatalf("expected READY with timestamp after no-op pull, got %+v", info)
	}
}

func TestPullAppliesRemoteWithoutEchoPush(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	if err := h.orch.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.store.SetFocus("local")
	waitStatus(t, h.orch, StatusReady, time.Second)

	h.remote.patch = model.Patch{Tasks: []model.Task{}, HasTasks: true, Book: nil, HasBook: true}
	h.remote.found = true
	focus := "remote"
	h.remote.patch.DailyFocus = &focus

	if err := h.orch.SetCloudConfig(context.Background(), model.CloudConfig{BinID: "bin", APIKey: "key", AutoSync: true}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := h.store.Snapshot().DailyFocus; got != "remote" {
		t.Fatalf("expected remote focus applied, got %q", got)
	}
	if got := h.local.LoadSnapshot(context.Background()).DailyFocus; got != "remote" {
		t.Fatalf("expected pulled state persisted locally, got %q", got)
	}
	time.Sleep(200 * time.Millisecond)
	if pushes, _ := h.remote.counts(); pushes != 0 {
		t.Fatalf("expected pulled state not to be pushed back, got %d pushes", pushes)
	}
}

func TestPullFailureSetsError(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	h.remote.pullErr = cloud.ErrSync
	err := h.orch.SetCloudConfig(context.Background(), model.CloudConfig{BinID: "bin", APIKey: "key"})
	if !errors.Is(err, cloud.ErrSync) {
		t.Fatalf("expected ErrSync, got %v", err)
	}
	if got := h.orch.Info().Status; got != StatusError {
		t.Fatalf("expected ERROR, got %s", got)
	}
}

func TestAutoSyncToggleDoesNotPull(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	ctx := context.Background()
	if err := h.orch.SetCloudConfig(ctx, model.CloudConfig{BinID: "bin", APIKey: "key"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := h.orch.SetCloudConfig(ctx, model.CloudConfig{BinID: "bin", APIKey: "key", AutoSync: true}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, pulls := h.remote.counts(); pulls != 1 {
		t.Fatalf("expected autosync toggle to skip pull, got %d pulls", pulls)
	}
	if err := h.orch.SetCloudConfig(ctx, model.CloudConfig{BinID: "other", APIKey: "key", AutoSync: true}); err != nil {
		t.Fatalf("switch bin: %v", err)
	}
	if _, pulls := h.remote.counts(); pulls != 2 {
		t.Fatalf("expected bin change to pull, got %d pulls", pulls)
	}
	if got := h.local.LoadCloudConfig(ctx); got.BinID != "other" || !got.AutoSync {
		t.Fatalf("expected config persisted, got %+v", got)
	}
}

func TestDisconnectClearsConfigAndStopsAutoSync(t *testing.T) {
	h := newHarness(t, model.CloudConfig{BinID: "bin", APIKey: "key", AutoSync: true}, nil)
	startConnected(t, h)

	h.store.SetFocus("pending push")
	if err := h.orch.Disconnect(context.Background()); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if pushes, _ := h.remote.counts(); pushes != 0 {
		t.Fatalf("expected pending autosync cancelled, got %d pushes", pushes)
	}
	if got := h.local.LoadCloudConfig(context.Background()); got.Enabled() {
		t.Fatalf("expected empty config persisted, got %+v", got)
	}
	if err := h.orch.ForceSave(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if info := h.orch.Info(); info.Connected || !info.LastSynced.IsZero() {
		t.Fatalf("expected local-only info, got %+v", info)
	}

	if err := h.orch.SetCloudConfig(context.Background(), model.CloudConfig{BinID: "bin"}); err != nil {
		t.Fatalf("partial config: %v", err)
	}
	if h.orch.Info().Connected {
		t.Fatal("expected partial config to behave as disconnect")
	}
}

func TestImportSetsImportedThenReady(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	if err := h.orch.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.store.SetFocus("existing focus")
	waitStatus(t, h.orch, StatusReady, time.Second)

	doc := []byte(`{"tasks":[{"id":"1","title":"Imported","completed":false,"tag":"Work"}]}`)
	if err := h.orch.ImportDocument(doc); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := h.orch.Info().Status; got != StatusImported {
		t.Fatalf("expected IMPORTED, got %s", got)
	}
	snap := h.store.Snapshot()
	if snap.DailyFocus != "existing focus" || len(snap.Tasks) != 1 || snap.Tasks[0].Title != "Imported" {
		t.Fatalf("expected partial merge, got %+v", snap)
	}
	if got := h.local.LoadSnapshot(context.Background()); len(got.Tasks) != 1 {
		t.Fatalf("expected import persisted, got %+v", got)
	}
	waitStatus(t, h.orch, StatusReady, time.Second)
}

func TestMalformedImportStaysInError(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	if err := h.orch.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := h.store.Snapshot()
	if err := h.orch.ImportDocument([]byte("{broken")); !errors.Is(err, transfer.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := h.orch.Info().Status; got != StatusError {
		t.Fatalf("expected ERROR to persist, got %s", got)
	}
	if after := h.store.Snapshot(); after.DailyFocus != before.DailyFocus || len(after.Tasks) != len(before.Tasks) {
		t.Fatalf("expected state unchanged, got %+v", after)
	}
}

func TestNullDocumentImportIsRejected(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	if err := h.orch.ImportDocument([]byte("null")); !errors.Is(err, transfer.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
	if got := h.orch.Info().Status; got != StatusError {
		t.Fatalf("expected ERROR, got %s", got)
	}
}

func TestImportArmsAutoSync(t *testing.T) {
	h := newHarness(t, model.CloudConfig{BinID: "bin", APIKey: "key", AutoSync: true}, nil)
	startConnected(t, h)
	if err := h.orch.ImportDocument([]byte(`{"dailyFocus":"from file"}`)); err != nil {
		t.Fatalf("import: %v", err)
	}
	waitFor(t, time.Second, func() bool { pushes, _ := h.remote.counts(); return pushes == 1 })
	if got := h.remote.lastPush(); got.DailyFocus != "from file" {
		t.Fatalf("expected imported state pushed, got %+v", got)
	}
}

func TestExportAndImportFile(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, model.CloudConfig{}, func(o *Options) {
		o.ExportDir = dir
		o.Now = func() time.Time { return time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC) }
	})
	_, _ = h.store.AddLink("Docs", "https://go.dev", model.IconCode)
	path, err := h.orch.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if path != filepath.Join(dir, "lifeos-backup-2026-02-09.json") {
		t.Fatalf("unexpected export path %q", path)
	}

	other := newHarness(t, model.CloudConfig{}, nil)
	if err := other.orch.ImportFile(path); err != nil {
		t.Fatalf("import file: %v", err)
	}
	if got := other.store.Snapshot().Links; len(got) != 1 || got[0].Label != "Docs" {
		t.Fatalf("expected links imported, got %+v", got)
	}
}

func TestWatchDirImportsDroppedBackup(t *testing.T) {
	watch := filepath.Join(t.TempDir(), "inbox")
	h := newHarness(t, model.CloudConfig{}, func(o *Options) { o.WatchDir = watch })
	if err := h.orch.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	doc := []byte(`{"dailyFocus":"dropped"}`)
	if err := os.WriteFile(filepath.Join(watch, "backup.json"), doc, 0o644); err != nil {
		t.Fatalf("drop file: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return h.store.Snapshot().DailyFocus == "dropped" })
}

type brokenKV struct {
	*storage.MemoryKV
}

func (brokenKV) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestLocalSaveFailureSetsError(t *testing.T) {
	logger, _ := test.NewNullLogger()
	local := storage.NewLocalStore(brokenKV{storage.NewMemoryKV()}, log.NewEntry(logger))
	store := state.New(model.Snapshot{}, model.Trackers{})
	orch := New(store, local, Options{Logger: log.NewEntry(logger)})
	t.Cleanup(orch.Stop)

	store.SetFocus("will not persist")
	if got := orch.Info().Status; got != StatusError {
		t.Fatalf("expected ERROR after failed local save, got %s", got)
	}
}

func TestTrackerChangesPersistLocally(t *testing.T) {
	h := newHarness(t, model.CloudConfig{BinID: "bin", APIKey: "key", AutoSync: true}, nil)
	if _, err := h.store.AddHabit("Read", "teal"); err != nil {
		t.Fatalf("add habit: %v", err)
	}
	if got := h.local.LoadTrackers(context.Background()).Habits; len(got) != 1 || got[0].Name != "Read" {
		t.Fatalf("expected habit persisted, got %+v", got)
	}
	if err := h.orch.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if pushes, _ := h.remote.counts(); pushes != 0 {
		t.Fatalf("expected tracker-only change not to sync, got %d pushes", pushes)
	}
}

func TestUpdatesChannelCarriesLatestInfo(t *testing.T) {
	h := newHarness(t, model.CloudConfig{}, nil)
	for i := 0; i < 40; i++ {
		h.store.SetFocus(string(rune('a'+i%26)) + string(rune('0'+i%10)))
	}
	var last Info
	for {
		select {
		case info := <-h.orch.Updates():
			last = info
			continue
		default:
		}
		break
	}
	if last.Status != StatusSaving {
		t.Fatalf("expected latest info to be SAVING, got %+v", last)
	}
}
