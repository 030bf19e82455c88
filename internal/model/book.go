package model

import (
	"errors"
	"math"
	"strings"
)

type Book struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	CoverURL    string `json:"coverUrl,omitempty"`
}

func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return errors.New("model: book title is required")
	}
	if b.TotalPages <= 0 {
		return errors.New("model: book total pages must be positive")
	}
	return nil
}

// Clamped returns a copy with both page counts non-negative and
// CurrentPage no larger than TotalPages.
func (b Book) Clamped() Book {
	if b.TotalPages < 0 {
		b.TotalPages = 0
	}
	b.CurrentPage = clamp(b.CurrentPage, 0, b.TotalPages)
	return b
}

// Advance moves the current page by delta, staying within [0, TotalPages].
func (b Book) Advance(delta int) Book {
	b = b.Clamped()
	// Saturate before adding so huge deltas cannot overflow.
	switch {
	case delta > b.TotalPages:
		delta = b.TotalPages
	case delta < -b.TotalPages:
		delta = -b.TotalPages
	}
	b.CurrentPage = clamp(b.CurrentPage+delta, 0, b.TotalPages)
	return b
}

// Progress is the read percentage in [0, 100].
func (b Book) Progress() int {
	if b.TotalPages <= 0 {
		return 0
	}
	pct := int(math.Round(float64(b.CurrentPage) / float64(b.TotalPages) * 100))
	return clamp(pct, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampPercent bounds tracker values such as habit scores and project progress.
func ClampPercent(v int) int {
	return clamp(v, 0, 100)
}
