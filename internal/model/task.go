package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTag  = errors.New("model: invalid task tag")
	ErrInvalidIcon = errors.New("model: invalid link icon")
)

type Tag string

const (
	TagStudy  Tag = "Study"
	TagHealth Tag = "Health"
	TagLife   Tag = "Life"
	TagWork   Tag = "Work"
)

func (t Tag) IsValid() bool {
	switch t {
	case TagStudy, TagHealth, TagLife, TagWork:
		return true
	default:
		return false
	}
}

// ParseTag matches case-insensitively, so "study" and "STUDY" both yield TagStudy.
func ParseTag(raw string) (Tag, error) {
	for _, tag := range []Tag{TagStudy, TagHealth, TagLife, TagWork} {
		if strings.EqualFold(strings.TrimSpace(raw), string(tag)) {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTag, raw)
}

type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Tag       Tag    `json:"tag"`
	Time      string `json:"time,omitempty"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Tag.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTag, t.Tag)
	}
	return nil
}

type IconType string

const (
	IconLink    IconType = "Link"
	IconNotion  IconType = "Notion"
	IconGoogle  IconType = "Google"
	IconYouTube IconType = "YouTube"
	IconFigma   IconType = "Figma"
	IconCode    IconType = "Code"
)

func (i IconType) IsValid() bool {
	switch i {
	case IconLink, IconNotion, IconGoogle, IconYouTube, IconFigma, IconCode:
		return true
	default:
		return false
	}
}

func ParseIcon(raw string) (IconType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return IconLink, nil
	}
	for _, icon := range []IconType{IconLink, IconNotion, IconGoogle, IconYouTube, IconFigma, IconCode} {
		if strings.EqualFold(trimmed, string(icon)) {
			return icon, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIcon, raw)
}

type QuickLink struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	URL   string   `json:"url"`
	Icon  IconType `json:"icon"`
}

func (l QuickLink) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("model: link id is required")
	}
	if strings.TrimSpace(l.Label) == "" || strings.TrimSpace(l.URL) == "" {
		return errors.New("model: link label and url are required")
	}
	if !l.Icon.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidIcon, l.Icon)
	}
	return nil
}
