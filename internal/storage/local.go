package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/lifeos/internal/model"
)

const (
	KeyFocus        = "lifeos_focus"
	KeyTasks        = "lifeos_tasks"
	KeyBook         = "lifeos_book"
	KeyLinks        = "lifeos_links"
	KeyCloud        = "lifeos_cloud"
	KeyHabits       = "lifeos_habits"
	KeyProjects     = "lifeos_projects"
	KeyApplications = "lifeos_applications"
)

// LocalStore is the best-effort cache of application state. Reads never fail:
// a missing backend, missing key or corrupt value yields the fallback.
type LocalStore struct {
	kv     KV
	logger *log.Entry
}

func NewLocalStore(kv KV, logger *log.Entry) *LocalStore {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &LocalStore{kv: kv, logger: logger.WithField("component", "localstore")}
}

func (s *LocalStore) Available() bool {
	return s != nil && s.kv != nil
}

// Read decodes key into T, reporting ErrUnavailable, ErrNotFound or ErrParse.
func Read[T any](ctx context.Context, s *LocalStore, key string) (T, error) {
	var out T
	if !s.Available() {
		return out, ErrUnavailable
	}
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %s: %v", ErrParse, key, err)
	}
	return out, nil
}

// Load is Read with a default-on-failure policy. Parse and backend failures
// are logged as warnings; absence is silent.
func Load[T any](ctx context.Context, s *LocalStore, key string, fallback T) T {
	v, err := Read[T](ctx, s, key)
	if err == nil {
		return v
	}
	if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnavailable) {
		s.logger.WithError(err).WithField("key", key).Warn("error loading stored value, using default")
	}
	return fallback
}

func (s *LocalStore) Save(ctx context.Context, key string, value any) error {
	if !s.Available() {
		return ErrUnavailable
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("error saving value")
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) LoadSnapshot(ctx context.Context) model.Snapshot {
	snap := model.Snapshot{
		DailyFocus: Load(ctx, s, KeyFocus, ""),
		Tasks:      Load(ctx, s, KeyTasks, []model.Task{}),
		Book:       Load[*model.Book](ctx, s, KeyBook, nil),
		Links:      Load(ctx, s, KeyLinks, []model.QuickLink{}),
	}
	if snap.Book != nil {
		b := snap.Book.Clamped()
		snap.Book = &b
	}
	return snap.Normalized()
}

// SaveSnapshot writes each slice under its own key. Every key is attempted
// even when an earlier one fails.
func (s *LocalStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	snap = snap.Normalized()
	return errors.Join(
		s.Save(ctx, KeyFocus, snap.DailyFocus),
		s.Save(ctx, KeyTasks, snap.Tasks),
		s.Save(ctx, KeyBook, snap.Book),
		s.Save(ctx, KeyLinks, snap.Links),
	)
}

func (s *LocalStore) LoadTrackers(ctx context.Context) model.Trackers {
	return model.Trackers{
		Habits:       Load(ctx, s, KeyHabits, []model.Habit{}),
		Projects:     Load(ctx, s, KeyProjects, []model.Project{}),
		Applications: Load(ctx, s, KeyApplications, []model.Application{}),
	}
}

func (s *LocalStore) SaveTrackers(ctx context.Context, t model.Trackers) error {
	t = t.Clone()
	return errors.Join(
		s.Save(ctx, KeyHabits, t.Habits),
		s.Save(ctx, KeyProjects, t.Projects),
		s.Save(ctx, KeyApplications, t.Applications),
	)
}

func (s *LocalStore) LoadCloudConfig(ctx context.Context) model.CloudConfig {
	return Load(ctx, s, KeyCloud, model.CloudConfig{}).Normalized()
}

func (s *LocalStore) SaveCloudConfig(ctx context.Context, cfg model.CloudConfig) error {
	return s.Save(ctx, KeyCloud, cfg.Normalized())
}

func (s *LocalStore) Close() error {
	if !s.Available() {
		return nil
	}
	return s.kv.Close()
}
