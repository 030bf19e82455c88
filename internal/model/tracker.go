package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidProjectStatus     = errors.New("model: invalid project status")
	ErrInvalidApplicationType   = errors.New("model: invalid application type")
	ErrInvalidApplicationStatus = errors.New("model: invalid application status")
)

type Habit struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

type ProjectStatus string

const (
	ProjectActive ProjectStatus = "Active"
	ProjectPaused ProjectStatus = "Paused"
	ProjectDone   ProjectStatus = "Done"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectActive, ProjectPaused, ProjectDone:
		return true
	default:
		return false
	}
}

type Project struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Status   ProjectStatus `json:"status"`
	Progress int           `json:"progress"`
}

type ApplicationType string

const (
	ApplicationReach  ApplicationType = "Reach"
	ApplicationTarget ApplicationType = "Target"
	ApplicationSafety ApplicationType = "Safety"
)

func (t ApplicationType) IsValid() bool {
	switch t {
	case ApplicationReach, ApplicationTarget, ApplicationSafety:
		return true
	default:
		return false
	}
}

type ApplicationStatus string

const (
	ApplicationNotStarted ApplicationStatus = "Not Started"
	ApplicationInProgress ApplicationStatus = "In Progress"
	ApplicationSubmitted  ApplicationStatus = "Submitted"
	ApplicationAccepted   ApplicationStatus = "Accepted"
)

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationNotStarted, ApplicationInProgress, ApplicationSubmitted, ApplicationAccepted:
		return true
	default:
		return false
	}
}

type Application struct {
	ID         string            `json:"id"`
	University string            `json:"university"`
	Type       ApplicationType   `json:"type"`
	Deadline   string            `json:"deadline"`
	Status     ApplicationStatus `json:"status"`
}

func (a Application) Validate() error {
	if strings.TrimSpace(a.University) == "" {
		return errors.New("model: application university is required")
	}
	if !a.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidApplicationType, a.Type)
	}
	if !a.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidApplicationStatus, a.Status)
	}
	return nil
}

// Trackers groups the later dashboard widgets. They are persisted locally but
// are not part of the exchanged Snapshot.
type Trackers struct {
	Habits       []Habit       `json:"habits"`
	Projects     []Project     `json:"projects"`
	Applications []Application `json:"applications"`
}

func (t Trackers) Clone() Trackers {
	return Trackers{
		Habits:       append([]Habit{}, t.Habits...),
		Projects:     append([]Project{}, t.Projects...),
		Applications: append([]Application{}, t.Applications...),
	}
}
