package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/statfold/statfold/pkg/config"
	"github.com/statfold/statfold/pkg/display"
	"github.com/statfold/statfold/pkg/engine"
	"github.com/statfold/statfold/pkg/logger"
	"github.com/statfold/statfold/pkg/reader"
	"github.com/statfold/statfold/pkg/record"
	"github.com/statfold/statfold/pkg/store"
	"github.com/statfold/statfold/pkg/watcher"
)

// watchCommand re-aggregates continuously as record files change.
//
// Each pass folds only the lines appended since the previous pass: the
// prior grouped output re-enters the engine alongside the fresh raw
// records, and its metadata lets the counts merge instead of restart.
type watchCommand struct {
	jobPath    string
	inputs     []string
	format     string
	compact    bool
	configPath string
	out        io.Writer
}

// watchState is the mutable state of one watch session.
type watchState struct {
	log       logger.Logger
	eng       engine.Engine
	reader    reader.Reader
	positions reader.PositionStore
	snapshots store.SnapshotStore
	formatter display.Formatter
	job       *config.JobSpec
	out       io.Writer

	// grouped is the previous pass's output, folded into the next one.
	grouped []record.Record
}

// Execute runs the watch command.
func (c *watchCommand) Execute() error {
	if c.jobPath == "" {
		return fmt.Errorf("watch requires -job")
	}

	a, err := openApp(c.configPath, true)
	if err != nil {
		return err
	}
	defer a.close()

	job, err := config.LoadJobSpec(c.jobPath)
	if err != nil {
		return err
	}
	if job.Name == "" {
		return fmt.Errorf("watch requires a job name in the job spec")
	}
	if job.OmitMetadata {
		return fmt.Errorf("watch needs aggregation metadata; remove omit_metadata from the job spec")
	}

	f, err := a.formatter(c.format, c.compact, false)
	if err != nil {
		return err
	}

	positions, err := reader.NewBoltPositionStore(a.db)
	if err != nil {
		return err
	}
	snapshots, err := store.NewBoltSnapshotStore(a.db)
	if err != nil {
		return err
	}

	log := a.log.With("run_id", uuid.NewString(), "job", job.Name)

	st := &watchState{
		log:       log,
		eng:       engine.New(engine.Config{Logger: log}),
		reader:    reader.New(log),
		positions: positions,
		snapshots: snapshots,
		formatter: f,
		job:       job,
		out:       c.out,
	}

	// Resume from the stored snapshot when one exists.
	if snap, loadErr := snapshots.Load(job.Name); loadErr == nil {
		st.grouped = snap.Records
		log.Info("resuming from snapshot", "id", snap.ID, "groups", len(snap.Records))
	}

	paths := c.inputs
	if len(paths) == 0 {
		paths = a.cfg.InputDirs
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w, err := watcher.New(watcher.Config{
		DebounceInterval: a.cfg.Watch.DebounceInterval,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Close()
	}()

	if err := w.Start(ctx, paths); err != nil {
		return err
	}

	// Initial pass over everything already on disk.
	if err := st.foldExisting(paths); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil

		case ev := <-w.Events():
			if err := st.handleEvent(ev); err != nil {
				log.Error("failed to handle change", "path", ev.Path, "error", err)
			}

		case watchErr := <-w.Errors():
			log.Error("watch error", "error", watchErr)
		}
	}
}

// foldExisting reads every record file from its stored offset and runs
// one aggregation pass.
func (s *watchState) foldExisting(paths []string) error {
	files, err := listRecordFiles(paths)
	if err != nil {
		return err
	}

	var fresh []record.Record
	for _, path := range files {
		recs, err := s.readNew(path)
		if err != nil {
			s.log.Warn("failed to read file, skipping", "path", path, "error", err)
			continue
		}
		fresh = append(fresh, recs...)
	}

	return s.fold(fresh)
}

// handleEvent folds the lines appended to one changed file.
func (s *watchState) handleEvent(ev watcher.Event) error {
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		// The counts already folded stay; only the read position resets
		// so a recreated file starts from the top.
		return s.positions.SetPosition(ev.Path, 0)
	}

	recs, err := s.readNew(ev.Path)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	s.log.Debug("change detected", "path", ev.Path, "records", len(recs))
	return s.fold(recs)
}

// readNew reads a file from its stored offset and advances it.
func (s *watchState) readNew(path string) ([]record.Record, error) {
	offset, err := s.positions.GetPosition(path)
	if err != nil {
		return nil, err
	}

	recs, newOffset, err := s.reader.ReadFile(path, offset)
	if err != nil {
		return nil, err
	}

	if err := s.positions.SetPosition(path, newOffset); err != nil {
		return nil, err
	}
	return recs, nil
}

// fold runs one aggregation pass over the prior grouped output plus the
// fresh records, prints the result, and snapshots it.
func (s *watchState) fold(fresh []record.Record) error {
	records := make([]record.Record, 0, len(s.grouped)+len(fresh))
	records = append(records, s.grouped...)
	records = append(records, fresh...)

	res, err := s.eng.Aggregate(s.job.Request(records))
	if err != nil {
		return err
	}
	s.grouped = res.GroupedRecords

	fmt.Fprintf(s.out, "--- %s ---\n", time.Now().Format("2006-01-02 15:04:05"))
	if err := s.formatter.FormatResult(s.out, res); err != nil {
		return err
	}

	if _, err := s.snapshots.Save(s.job.Name, res.GroupedRecords); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// listRecordFiles expands paths into the .jsonl files below them.
func listRecordFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(sub string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(sub, ".jsonl") {
				files = append(files, sub)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
