package reader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/statfold/statfold/pkg/record"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "records.jsonl",
		`{"region":"midwest","revenue":10}
{"region":"northeast","revenue":40}
`)

	recs, offset, err := New(nil).ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if v, _ := record.Get(recs[0], "region"); v != "midwest" {
		t.Errorf("first record region = %v", v)
	}
	if v, _ := record.Get(recs[1], "revenue"); v.(json.Number).String() != "40" {
		t.Errorf("second record revenue = %v", v)
	}

	info, _ := os.Stat(path)
	if offset != info.Size() {
		t.Errorf("offset = %d, want file size %d", offset, info.Size())
	}
}

func TestReadFile_SkipsMalformedAndBlank(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "messy.jsonl",
		`{"ok":1}

not json at all
{"ok":2}
`)

	recs, _, err := New(nil).ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2 (bad lines skipped)", len(recs))
	}
}

func TestReadFile_Incremental(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "grow.jsonl", `{"n":1}`+"\n")

	r := New(nil)
	first, offset, err := r.ReadFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("first read = %d records, want 1", len(first))
	}

	// Append and resume from the stored offset: only the new line
	// arrives.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"n":2}` + "\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	second, newOffset, err := r.ReadFile(path, offset)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 {
		t.Fatalf("incremental read = %d records, want 1", len(second))
	}
	if v, _ := record.Get(second[0], "n"); v.(json.Number).String() != "2" {
		t.Errorf("incremental record = %v", second[0])
	}
	if newOffset <= offset {
		t.Errorf("offset did not advance: %d -> %d", offset, newOffset)
	}
}

func TestReadFile_NoTrailingNewline(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "tail.jsonl", `{"n":1}`)

	r := New(nil)
	recs, offset, err := r.ReadFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	// Re-reading from the returned offset yields nothing new.
	again, _, err := r.ReadFile(path, offset)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("re-read produced %d duplicate records", len(again))
	}
}

func TestReadFile_TruncationRestarts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "rotate.jsonl", `{"n":1}`+"\n"+`{"n":2}`+"\n")

	r := New(nil)
	_, offset, err := r.ReadFile(path, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Rotate: replace with a shorter file. An offset past EOF restarts.
	writeFile(t, dir, "rotate.jsonl", `{"n":3}`+"\n")

	recs, _, err := r.ReadFile(path, offset)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records after rotation, want 1", len(recs))
	}
}

func TestReadAll_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.jsonl", `{"n":1}`+"\n")
	writeFile(t, dir, "b.jsonl", `{"n":2}`+"\n")
	writeFile(t, dir, "ignored.txt", "not records")

	recs, err := New(nil).ReadAll([]string{dir})
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}
}

func TestMemoryPositionStore(t *testing.T) {
	t.Parallel()

	s := NewMemoryPositionStore()

	got, err := s.GetPosition("/x")
	if err != nil || got != 0 {
		t.Fatalf("GetPosition(unset) = %d, %v, want 0, nil", got, err)
	}

	if err := s.SetPosition("/x", 42); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetPosition("/x")
	if err != nil || got != 42 {
		t.Fatalf("GetPosition() = %d, %v, want 42, nil", got, err)
	}
}

func TestBoltPositionStore(t *testing.T) {
	t.Parallel()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "pos.db"), 0o600, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = db.Close()
	}()

	s, err := NewBoltPositionStore(db)
	if err != nil {
		t.Fatalf("NewBoltPositionStore() error = %v", err)
	}

	if err := s.SetPosition("/data/a.jsonl", 1024); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPosition("/data/a.jsonl")
	if err != nil || got != 1024 {
		t.Fatalf("GetPosition() = %d, %v, want 1024, nil", got, err)
	}

	got, err = s.GetPosition("/data/other.jsonl")
	if err != nil || got != 0 {
		t.Fatalf("GetPosition(unset) = %d, %v, want 0, nil", got, err)
	}
}
