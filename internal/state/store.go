// Package state owns the dashboard's mutable collections. Every mutation goes
// through Store, which notifies subscribers after the change is committed.
package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/lifeos/internal/model"
)

var ErrValidation = errors.New("state: validation rejected")

type Slice string

const (
	SliceFocus    Slice = "focus"
	SliceTasks    Slice = "tasks"
	SliceBook     Slice = "book"
	SliceLinks    Slice = "links"
	SliceTrackers Slice = "trackers"
)

// Origin tells subscribers where a change came from so they can pick the
// right persistence policy.
type Origin int

const (
	OriginLocal Origin = iota
	OriginImport
	OriginRemote
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginImport:
		return "import"
	case OriginRemote:
		return "remote"
	default:
		return "unknown"
	}
}

type Change struct {
	Slices []Slice
	Origin Origin
}

func (c Change) Has(slice Slice) bool {
	for _, s := range c.Slices {
		if s == slice {
			return true
		}
	}
	return false
}

type Listener func(Change)

type Store struct {
	mu        sync.RWMutex
	snap      model.Snapshot
	trackers  model.Trackers
	listeners map[int]Listener
	nextSub   int
	lastID    int64
	now       func() time.Time
	newID     func() string
}

func New(initial model.Snapshot, trackers model.Trackers) *Store {
	return &Store{
		snap:      initial.Normalized().Clone(),
		trackers:  trackers.Clone(),
		listeners: make(map[int]Listener),
		now:       time.Now,
		newID:     newTrackerID,
	}
}

// Subscribe registers fn for every committed change. Listeners run on the
// mutating goroutine after the store lock is released.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

func (s *Store) Trackers() model.Trackers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trackers.Clone()
}

// Apply merges a partial snapshot, e.g. from a backup file or the cloud.
func (s *Store) Apply(p model.Patch, origin Origin) {
	if p.IsEmpty() {
		return
	}
	s.mutate(origin, func() []Slice {
		s.snap = p.Apply(s.snap)
		var changed []Slice
		if p.DailyFocus != nil {
			changed = append(changed, SliceFocus)
		}
		if p.HasTasks {
			changed = append(changed, SliceTasks)
		}
		if p.HasBook {
			changed = append(changed, SliceBook)
		}
		if p.HasLinks {
			changed = append(changed, SliceLinks)
		}
		return changed
	})
}

func (s *Store) SetFocus(text string) {
	s.mutate(OriginLocal, func() []Slice {
		if s.snap.DailyFocus == text {
			return nil
		}
		s.snap.DailyFocus = text
		return []Slice{SliceFocus}
	})
}

// mutate runs fn under the write lock and, when fn reports changed slices,
// notifies listeners once the lock is released.
func (s *Store) mutate(origin Origin, fn func() []Slice) {
	s.mu.Lock()
	changed := fn()
	var listeners []Listener
	if len(changed) > 0 {
		listeners = make([]Listener, 0, len(s.listeners))
		for _, l := range s.listeners {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	change := Change{Slices: changed, Origin: origin}
	for _, l := range listeners {
		l(change)
	}
}

// nextTimestampID returns the creation time in milliseconds, bumped until it
// is strictly increasing and unused by any task or link. Caller holds mu.
func (s *Store) nextTimestampID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	for s.idTaken(strconv.FormatInt(id, 10)) {
		id++
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *Store) idTaken(id string) bool {
	for _, t := range s.snap.Tasks {
		if t.ID == id {
			return true
		}
	}
	for _, l := range s.snap.Links {
		if l.ID == id {
			return true
		}
	}
	return false
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func required(v string) bool {
	return strings.TrimSpace(v) != ""
}
