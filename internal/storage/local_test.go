package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sandeepkv93/lifeos/internal/model"
)

type failingKV struct {
	*MemoryKV
}

func (failingKV) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestLoadFallsBackWhenUnavailable(t *testing.T) {
	var store *LocalStore
	if got := Load(context.Background(), store, KeyFocus, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback from nil store, got %q", got)
	}

	store = NewLocalStore(nil, nil)
	if got := Load(context.Background(), store, KeyFocus, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback without backend, got %q", got)
	}
	if err := store.Save(context.Background(), KeyFocus, "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLoadWarnsOnCorruptValue(t *testing.T) {
	logger, hook := test.NewNullLogger()
	kv := NewMemoryKV()
	ctx := context.Background()
	_ = kv.Set(ctx, KeyTasks, []byte(`{not json`))

	store := NewLocalStore(kv, log.NewEntry(logger))
	got := Load(ctx, store, KeyTasks, []model.Task{})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty fallback, got %#v", got)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.WarnLevel {
		t.Fatalf("expected warning log entry, got %+v", entry)
	}
	if entry.Data["key"] != KeyTasks {
		t.Fatalf("expected key field in log entry, got %+v", entry.Data)
	}

	if _, err := Read[[]model.Task](ctx, store, KeyTasks); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse from Read, got %v", err)
	}
}

func TestLoadMissingKeyIsSilent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	store := NewLocalStore(NewMemoryKV(), log.NewEntry(logger))
	if got := Load(context.Background(), store, KeyFocus, "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("expected no log entries, got %d", len(hook.AllEntries()))
	}
}

func TestSnapshotRoundTripThroughStore(t *testing.T) {
	store := NewLocalStore(NewMemoryKV(), nil)
	ctx := context.Background()
	snap := model.Snapshot{
		DailyFocus: "finish chapter 3",
		Tasks: []model.Task{
			{ID: "2", Title: "Gym", Tag: model.TagHealth, Time: "18:00"},
			{ID: "1", Title: "Read", Tag: model.TagStudy, Completed: true},
		},
		Book:  &model.Book{Title: "SICP", Author: "Abelson", CurrentPage: 40, TotalPages: 600},
		Links: []model.QuickLink{{ID: "9", Label: "Notion", URL: "https://notion.so", Icon: model.IconNotion}},
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	got := store.LoadSnapshot(ctx)
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("snapshot mismatch:\n got %+v\nwant %+v", got, snap)
	}
}

func TestLoadSnapshotDefaultsAndClamp(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	_ = kv.Set(ctx, KeyBook, []byte(`{"title":"Dune","author":"Herbert","currentPage":900,"totalPages":500}`))
	store := NewLocalStore(kv, nil)

	got := store.LoadSnapshot(ctx)
	if got.Tasks == nil || got.Links == nil || got.DailyFocus != "" {
		t.Fatalf("expected empty defaults, got %+v", got)
	}
	if got.Book == nil || got.Book.CurrentPage != 500 {
		t.Fatalf("expected clamped book, got %+v", got.Book)
	}
}

func TestSaveSnapshotAttemptsEveryKey(t *testing.T) {
	store := NewLocalStore(failingKV{NewMemoryKV()}, nil)
	err := store.SaveSnapshot(context.Background(), model.Snapshot{})
	if err == nil {
		t.Fatal("expected joined error")
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 4 {
		t.Fatalf("expected four wrapped errors, got %v", err)
	}
}

func TestCloudConfigPersistence(t *testing.T) {
	store := NewLocalStore(NewMemoryKV(), nil)
	ctx := context.Background()
	if got := store.LoadCloudConfig(ctx); got.Enabled() {
		t.Fatalf("expected disabled config by default, got %+v", got)
	}
	cfg := model.CloudConfig{BinID: "65e8a", APIKey: "$2a$10$key", AutoSync: true}
	if err := store.SaveCloudConfig(ctx, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if got := store.LoadCloudConfig(ctx); got != cfg {
		t.Fatalf("unexpected config: %+v", got)
	}
}
