// Package transfer converts snapshots to and from portable backup documents.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandeepkv93/lifeos/internal/model"
)

var ErrMalformedDocument = errors.New("transfer: malformed document")

const fileNamePrefix = "lifeos-backup-"

// Document is the exported backup layout: the snapshot plus its export time.
type Document struct {
	DailyFocus string            `json:"dailyFocus"`
	Tasks      []model.Task      `json:"tasks"`
	Book       *model.Book       `json:"book"`
	Links      []model.QuickLink `json:"links"`
	Timestamp  time.Time         `json:"timestamp"`
}

func Export(snap model.Snapshot, now time.Time) ([]byte, error) {
	snap = snap.Normalized()
	doc := Document{
		DailyFocus: snap.DailyFocus,
		Tasks:      snap.Tasks,
		Book:       snap.Book,
		Links:      snap.Links,
		Timestamp:  now.UTC(),
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("transfer: encode backup: %w", err)
	}
	return append(payload, '\n'), nil
}

// Import parses a backup document. Only the keys present in the document are
// set on the returned patch; "timestamp" is informational and ignored.
func Import(data []byte) (model.Patch, error) {
	if strings.TrimSpace(string(data)) == "" {
		return model.Patch{}, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}
	var patch model.Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		return model.Patch{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := patch.Validate(); err != nil {
		return model.Patch{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return patch, nil
}

func FileName(now time.Time) string {
	return fileNamePrefix + now.Format("2006-01-02") + ".json"
}

// WriteFile exports snap into dir under the dated backup name and returns
// the written path. The file is replaced atomically.
func WriteFile(dir string, snap model.Snapshot, now time.Time) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("transfer: create export dir: %w", err)
	}
	payload, err := Export(snap, now)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(now))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("transfer: write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("transfer: write backup: %w", err)
	}
	return path, nil
}

func ReadFile(path string) (model.Patch, error) {
	raw, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return model.Patch{}, fmt.Errorf("transfer: read backup: %w", err)
	}
	return Import(raw)
}
