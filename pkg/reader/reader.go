package reader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/statfold/statfold/pkg/logger"
	"github.com/statfold/statfold/pkg/record"
)

const (
	// MaxFileSize is the maximum allowed JSONL file size (256MB).
	MaxFileSize = 256 * 1024 * 1024

	// MaxLineLength is the maximum allowed line length (4MB).
	MaxLineLength = 4 * 1024 * 1024
)

// jsonlReader implements the Reader interface.
type jsonlReader struct {
	logger logger.Logger
}

// New creates a new Reader. A nil logger defaults to the no-op logger.
func New(log logger.Logger) Reader {
	if log == nil {
		log = logger.Nop()
	}
	return &jsonlReader{logger: log}
}

// ReadFile implements Reader.ReadFile.
func (r *jsonlReader) ReadFile(path string, offset int64) ([]record.Record, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, 0, fmt.Errorf("%w: size=%d, max=%d", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	// A truncated or rotated file restarts from the top.
	if offset > info.Size() {
		offset = 0
	}

	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if offset > 0 {
		if _, seekErr := f.Seek(offset, io.SeekStart); seekErr != nil {
			return nil, 0, fmt.Errorf("failed to seek to offset %d: %w", offset, seekErr)
		}
	}

	records := make([]record.Record, 0, 128)
	skipped := 0

	// Byte-exact position tracking: the returned offset must point at
	// the first unread byte so incremental reads never replay a line.
	br := bufio.NewReaderSize(f, 64*1024)
	pos := offset
	for {
		line, readErr := br.ReadString('\n')
		if len(line) > 0 {
			pos += int64(len(line))

			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
			case len(line) > MaxLineLength:
				skipped++
				r.logger.Warn("skipping oversized line",
					"path", path, "offset", pos, "bytes", len(line))
			default:
				rec, err := parseLine(trimmed)
				if err != nil {
					skipped++
					r.logger.Warn("skipping malformed line",
						"path", path, "offset", pos, "error", err)
				} else {
					records = append(records, rec)
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, 0, fmt.Errorf("failed to read %s: %w", path, readErr)
		}
	}

	if skipped > 0 {
		r.logger.Info("file read with skips",
			"path", path, "records", len(records), "skipped", skipped)
	}

	return records, pos, nil
}

// ReadAll implements Reader.ReadAll.
func (r *jsonlReader) ReadAll(paths []string) ([]record.Record, error) {
	var all []record.Record

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		files := []string{path}
		if info.IsDir() {
			files, err = listJSONL(path)
			if err != nil {
				return nil, err
			}
		}

		for _, file := range files {
			recs, _, err := r.ReadFile(file, 0)
			if err != nil {
				return nil, err
			}
			all = append(all, recs...)
		}
	}

	return all, nil
}

// parseLine decodes one JSONL line into a record, preserving numeric
// precision via json.Number.
func parseLine(line string) (record.Record, error) {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()

	var rec record.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	return rec, nil
}

// listJSONL returns the .jsonl files directly under dir, sorted by
// name.
func listJSONL(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
