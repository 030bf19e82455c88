package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotObject   = errors.New("model: document must be a JSON object")
	ErrDuplicateID = errors.New("model: duplicate id")
)

// Snapshot is the aggregate exchanged with local storage, backup files and
// the cloud document store.
type Snapshot struct {
	DailyFocus string      `json:"dailyFocus"`
	Tasks      []Task      `json:"tasks"`
	Book       *Book       `json:"book"`
	Links      []QuickLink `json:"links"`
}

// Normalized replaces nil collections with empty ones so they encode as [].
func (s Snapshot) Normalized() Snapshot {
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.Links == nil {
		s.Links = []QuickLink{}
	}
	return s
}

func (s Snapshot) Clone() Snapshot {
	out := Snapshot{DailyFocus: s.DailyFocus}
	out.Tasks = append([]Task{}, s.Tasks...)
	out.Links = append([]QuickLink{}, s.Links...)
	if s.Book != nil {
		b := *s.Book
		out.Book = &b
	}
	return out
}

// Patch is a partially populated snapshot. A field is present when its key
// exists in the source document; an explicit null book means "no book".
type Patch struct {
	DailyFocus *string
	Tasks      []Task
	HasTasks   bool
	Book       *Book
	HasBook    bool
	Links      []QuickLink
	HasLinks   bool
}

func (p Patch) IsEmpty() bool {
	return p.DailyFocus == nil && !p.HasTasks && !p.HasBook && !p.HasLinks
}

// Apply merges the present fields of p over s and leaves the rest untouched.
func (p Patch) Apply(s Snapshot) Snapshot {
	out := s.Clone()
	if p.DailyFocus != nil {
		out.DailyFocus = *p.DailyFocus
	}
	if p.HasTasks {
		out.Tasks = append([]Task{}, p.Tasks...)
	}
	if p.HasBook {
		out.Book = nil
		if p.Book != nil {
			b := p.Book.Clamped()
			out.Book = &b
		}
	}
	if p.HasLinks {
		out.Links = append([]QuickLink{}, p.Links...)
	}
	return out
}

// Validate checks every present entity the same way the store's own
// mutations do. Ids must be unique within a list.
func (p Patch) Validate() error {
	taskIDs := make(map[string]struct{}, len(p.Tasks))
	for i, task := range p.Tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
		if _, dup := taskIDs[task.ID]; dup {
			return fmt.Errorf("tasks[%d]: %w %q", i, ErrDuplicateID, task.ID)
		}
		taskIDs[task.ID] = struct{}{}
	}
	if p.Book != nil {
		if err := p.Book.Validate(); err != nil {
			return fmt.Errorf("book: %w", err)
		}
	}
	linkIDs := make(map[string]struct{}, len(p.Links))
	for i, link := range p.Links {
		if err := link.Validate(); err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
		if _, dup := linkIDs[link.ID]; dup {
			return fmt.Errorf("links[%d]: %w %q", i, ErrDuplicateID, link.ID)
		}
		linkIDs[link.ID] = struct{}{}
	}
	return nil
}

func (p *Patch) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return ErrNotObject
	}
	out := Patch{}
	if raw, ok := fields["dailyFocus"]; ok && !isNull(raw) {
		var focus string
		if err := json.Unmarshal(raw, &focus); err != nil {
			return fmt.Errorf("dailyFocus: %w", err)
		}
		out.DailyFocus = &focus
	}
	if raw, ok := fields["tasks"]; ok && !isNull(raw) {
		tasks := []Task{}
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return fmt.Errorf("tasks: %w", err)
		}
		out.Tasks, out.HasTasks = tasks, true
	}
	if raw, ok := fields["book"]; ok {
		out.HasBook = true
		if !isNull(raw) {
			var book Book
			if err := json.Unmarshal(raw, &book); err != nil {
				return fmt.Errorf("book: %w", err)
			}
			out.Book = &book
		}
	}
	if raw, ok := fields["links"]; ok && !isNull(raw) {
		links := []QuickLink{}
		if err := json.Unmarshal(raw, &links); err != nil {
			return fmt.Errorf("links: %w", err)
		}
		out.Links, out.HasLinks = links, true
	}
	*p = out
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
