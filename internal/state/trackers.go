package state

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sandeepkv93/lifeos/internal/model"
)

// Tracker ids never travel in backup documents, so they use random UUIDs
// instead of the timestamp scheme shared with tasks and links.
func newTrackerID() string {
	return uuid.NewString()
}

func (s *Store) AddHabit(name, color string) (model.Habit, error) {
	if !required(name) {
		return model.Habit{}, validationError("habit name is required")
	}
	var created model.Habit
	s.mutate(OriginLocal, func() []Slice {
		created = model.Habit{ID: s.newID(), Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
		s.trackers.Habits = append(s.trackers.Habits, created)
		return []Slice{SliceTrackers}
	})
	return created, nil
}

func (s *Store) SetHabitValue(id string, value int) bool {
	return s.updateTracker(func() bool {
		for i := range s.trackers.Habits {
			if s.trackers.Habits[i].ID == id {
				s.trackers.Habits[i].Value = model.ClampPercent(value)
				return true
			}
		}
		return false
	})
}

func (s *Store) DeleteHabit(id string) bool {
	return s.updateTracker(func() bool {
		for i, h := range s.trackers.Habits {
			if h.ID == id {
				s.trackers.Habits = append(s.trackers.Habits[:i:i], s.trackers.Habits[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (s *Store) AddProject(title string) (model.Project, error) {
	if !required(title) {
		return model.Project{}, validationError("project title is required")
	}
	var created model.Project
	s.mutate(OriginLocal, func() []Slice {
		created = model.Project{ID: s.newID(), Title: strings.TrimSpace(title), Status: model.ProjectActive}
		s.trackers.Projects = append(s.trackers.Projects, created)
		return []Slice{SliceTrackers}
	})
	return created, nil
}

func (s *Store) SetProjectProgress(id string, progress int) bool {
	return s.updateTracker(func() bool {
		for i := range s.trackers.Projects {
			if s.trackers.Projects[i].ID == id {
				s.trackers.Projects[i].Progress = model.ClampPercent(progress)
				return true
			}
		}
		return false
	})
}

func (s *Store) SetProjectStatus(id string, status model.ProjectStatus) error {
	if !status.IsValid() {
		return validationError("invalid project status %q", status)
	}
	s.updateTracker(func() bool {
		for i := range s.trackers.Projects {
			if s.trackers.Projects[i].ID == id {
				s.trackers.Projects[i].Status = status
				return true
			}
		}
		return false
	})
	return nil
}

func (s *Store) DeleteProject(id string) bool {
	return s.updateTracker(func() bool {
		for i, p := range s.trackers.Projects {
			if p.ID == id {
				s.trackers.Projects = append(s.trackers.Projects[:i:i], s.trackers.Projects[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (s *Store) AddApplication(university string, kind model.ApplicationType, deadline string) (model.Application, error) {
	app := model.Application{
		University: strings.TrimSpace(university),
		Type:       kind,
		Deadline:   strings.TrimSpace(deadline),
		Status:     model.ApplicationNotStarted,
	}
	if err := app.Validate(); err != nil {
		return model.Application{}, validationError("%v", err)
	}
	s.mutate(OriginLocal, func() []Slice {
		app.ID = s.newID()
		s.trackers.Applications = append(s.trackers.Applications, app)
		return []Slice{SliceTrackers}
	})
	return app, nil
}

func (s *Store) SetApplicationStatus(id string, status model.ApplicationStatus) error {
	if !status.IsValid() {
		return validationError("invalid application status %q", status)
	}
	s.updateTracker(func() bool {
		for i := range s.trackers.Applications {
			if s.trackers.Applications[i].ID == id {
				s.trackers.Applications[i].Status = status
				return true
			}
		}
		return false
	})
	return nil
}

func (s *Store) DeleteApplication(id string) bool {
	return s.updateTracker(func() bool {
		for i, a := range s.trackers.Applications {
			if a.ID == id {
				s.trackers.Applications = append(s.trackers.Applications[:i:i], s.trackers.Applications[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (s *Store) updateTracker(fn func() bool) bool {
	found := false
	s.mutate(OriginLocal, func() []Slice {
		if found = fn(); !found {
			return nil
		}
		return []Slice{SliceTrackers}
	})
	return found
}
