package state

import (
	"strings"

	"github.com/sandeepkv93/lifeos/internal/model"
)

// AddTask prepends a new task. An empty tag defaults to Study.
func (s *Store) AddTask(title string, tag model.Tag, at string) (model.Task, error) {
	if !required(title) {
		return model.Task{}, validationError("task title is required")
	}
	if tag == "" {
		tag = model.TagStudy
	}
	if !tag.IsValid() {
		return model.Task{}, validationError("invalid tag %q", tag)
	}
	var created model.Task
	s.mutate(OriginLocal, func() []Slice {
		created = model.Task{
			ID:    s.nextTimestampID(),
			Title: strings.TrimSpace(title),
			Tag:   tag,
			Time:  strings.TrimSpace(at),
		}
		s.snap.Tasks = append([]model.Task{created}, s.snap.Tasks...)
		return []Slice{SliceTasks}
	})
	return created, nil
}

func (s *Store) ToggleTask(id string) bool {
	found := false
	s.mutate(OriginLocal, func() []Slice {
		for i := range s.snap.Tasks {
			if s.snap.Tasks[i].ID == id {
				s.snap.Tasks[i].Completed = !s.snap.Tasks[i].Completed
				found = true
				return []Slice{SliceTasks}
			}
		}
		return nil
	})
	return found
}

func (s *Store) DeleteTask(id string) bool {
	found := false
	s.mutate(OriginLocal, func() []Slice {
		out := make([]model.Task, 0, len(s.snap.Tasks))
		for _, t := range s.snap.Tasks {
			if t.ID == id {
				found = true
				continue
			}
			out = append(out, t)
		}
		if !found {
			return nil
		}
		s.snap.Tasks = out
		return []Slice{SliceTasks}
	})
	return found
}

// ReorderTasks removes the task at from and reinserts it at to. Either index
// out of range makes it a no-op.
func (s *Store) ReorderTasks(from, to int) bool {
	moved := false
	s.mutate(OriginLocal, func() []Slice {
		n := len(s.snap.Tasks)
		if from < 0 || from >= n || to < 0 || to >= n || from == to {
			return nil
		}
		tasks := append([]model.Task{}, s.snap.Tasks...)
		task := tasks[from]
		tasks = append(tasks[:from], tasks[from+1:]...)
		tasks = append(tasks[:to], append([]model.Task{task}, tasks[to:]...)...)
		s.snap.Tasks = tasks
		moved = true
		return []Slice{SliceTasks}
	})
	return moved
}

func (s *Store) MoveTaskUp(index int) bool {
	if index <= 0 {
		return false
	}
	return s.ReorderTasks(index, index-1)
}

func (s *Store) MoveTaskDown(index int) bool {
	return s.ReorderTasks(index, index+1)
}

func (s *Store) TaskStats() (done, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.snap.Tasks {
		if t.Completed {
			done++
		}
	}
	return done, len(s.snap.Tasks)
}

// TaskAt resolves a list position (as shown to the user) to a task.
func (s *Store) TaskAt(index int) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.snap.Tasks) {
		return model.Task{}, false
	}
	return s.snap.Tasks[index], true
}
