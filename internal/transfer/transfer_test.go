package transfer

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/lifeos/internal/model"
)

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		DailyFocus: "Ship the sync layer",
		Tasks: []model.Task{
			{ID: "1770638400001", Title: "Write paper", Tag: model.TagStudy, Time: "09:00"},
			{ID: "1770638400000", Title: "Gym", Completed: true, Tag: model.TagHealth},
		},
		Book: &model.Book{Title: "Dune", Author: "Frank Herbert", CurrentPage: 120, TotalPages: 412},
		Links: []model.QuickLink{
			{ID: "1770638400002", Label: "Docs", URL: "https://go.dev", Icon: model.IconCode},
		},
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	now := time.Date(2026, 2, 9, 8, 30, 0, 0, time.UTC)
	doc, err := Export(snap, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(doc), `"timestamp": "2026-02-09T08:30:00Z"`) {
		t.Fatalf("expected ISO timestamp in document:\n%s", doc)
	}
	patch, err := Import(doc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	got := patch.Apply(model.Snapshot{DailyFocus: "old"})
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, snap)
	}
}

func TestImportPartialDocumentKeepsOtherFields(t *testing.T) {
	current := sampleSnapshot()
	patch, err := Import([]byte(`{"tasks":[{"id":"9","title":"Only task","completed":false,"tag":"Work"}]}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	got := patch.Apply(current)
	if len(got.Tasks) != 1 || got.Tasks[0].Title != "Only task" {
		t.Fatalf("expected tasks replaced, got %+v", got.Tasks)
	}
	if got.DailyFocus != current.DailyFocus || !reflect.DeepEqual(got.Book, current.Book) || !reflect.DeepEqual(got.Links, current.Links) {
		t.Fatalf("expected focus/book/links unchanged, got %+v", got)
	}
}

func TestImportEmptyCollectionsAndNullBook(t *testing.T) {
	patch, err := Import([]byte(`{"tasks":[],"book":null}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	got := patch.Apply(sampleSnapshot())
	if len(got.Tasks) != 0 || got.Book != nil {
		t.Fatalf("expected empty tasks and cleared book, got %+v", got)
	}
	if len(got.Links) != 1 {
		t.Fatalf("expected links kept, got %+v", got.Links)
	}
}

func TestImportMalformed(t *testing.T) {
	cases := []string{
		``,
		`not json`,
		`[1,2,3]`,
		`null`,
		`  null  `,
		`"text"`,
		`{"book":{"title":"","totalPages":0,"currentPage":5}}`,
		`{"tasks":[{"id":"1","title":"a","tag":"Work"},{"id":"1","title":"b","tag":"Life"}]}`,
		`{"links":[{"id":"7","label":"a","url":"https://a","icon":"Link"},{"id":"7","label":"b","url":"https://b","icon":"Link"}]}`,
		`{"tasks":"nope"}`,
		`{"book":{"title":7}}`,
		`{"tasks":[{"id":"1","title":"x","tag":"Chores"}]}`,
	}
	for _, tc := range cases {
		if _, err := Import([]byte(tc)); !errors.Is(err, ErrMalformedDocument) {
			t.Fatalf("expected ErrMalformedDocument for %q, got %v", tc, err)
		}
	}
}

func TestWriteAndReadFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	path, err := WriteFile(dir, sampleSnapshot(), now)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "lifeos-backup-2026-03-01.json" {
		t.Fatalf("unexpected file name %q", path)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err=%v", err)
	}
	patch, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(patch.Apply(model.Snapshot{}), sampleSnapshot()) {
		t.Fatalf("unexpected patch %+v", patch)
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.json")); err == nil || errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("expected plain read error for missing file, got %v", err)
	}
}
