package state

import (
	"strings"

	"github.com/sandeepkv93/lifeos/internal/model"
)

// AddLink appends a quick link. An empty icon defaults to Link.
func (s *Store) AddLink(label, url string, icon model.IconType) (model.QuickLink, error) {
	if !required(label) || !required(url) {
		return model.QuickLink{}, validationError("link label and url are required")
	}
	if icon == "" {
		icon = model.IconLink
	}
	if !icon.IsValid() {
		return model.QuickLink{}, validationError("invalid icon %q", icon)
	}
	var created model.QuickLink
	s.mutate(OriginLocal, func() []Slice {
		created = model.QuickLink{
			ID:    s.nextTimestampID(),
			Label: strings.TrimSpace(label),
			URL:   strings.TrimSpace(url),
			Icon:  icon,
		}
		s.snap.Links = append(s.snap.Links, created)
		return []Slice{SliceLinks}
	})
	return created, nil
}

func (s *Store) DeleteLink(id string) bool {
	found := false
	s.mutate(OriginLocal, func() []Slice {
		out := make([]model.QuickLink, 0, len(s.snap.Links))
		for _, l := range s.snap.Links {
			if l.ID == id {
				found = true
				continue
			}
			out = append(out, l)
		}
		if !found {
			return nil
		}
		s.snap.Links = out
		return []Slice{SliceLinks}
	})
	return found
}

func (s *Store) LinkAt(index int) (model.QuickLink, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.snap.Links) {
		return model.QuickLink{}, false
	}
	return s.snap.Links[index], true
}

// UpdateBook replaces the active book wholesale; nil clears it. The edit form
// requires a title and a positive page count, and the current page is clamped.
func (s *Store) UpdateBook(book *model.Book) error {
	if book == nil {
		s.ClearBook()
		return nil
	}
	if err := book.Validate(); err != nil {
		return validationError("%v", err)
	}
	next := book.Clamped()
	s.mutate(OriginLocal, func() []Slice {
		s.snap.Book = &next
		return []Slice{SliceBook}
	})
	return nil
}

func (s *Store) ClearBook() {
	s.mutate(OriginLocal, func() []Slice {
		if s.snap.Book == nil {
			return nil
		}
		s.snap.Book = nil
		return []Slice{SliceBook}
	})
}

// UpdatePage advances the current page by delta within [0, totalPages].
// It reports false when there is no active book.
func (s *Store) UpdatePage(delta int) bool {
	ok := false
	s.mutate(OriginLocal, func() []Slice {
		if s.snap.Book == nil {
			return nil
		}
		ok = true
		next := s.snap.Book.Advance(delta)
		if next == *s.snap.Book {
			return nil
		}
		s.snap.Book = &next
		return []Slice{SliceBook}
	})
	return ok
}
