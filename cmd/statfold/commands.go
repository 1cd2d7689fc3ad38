package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/statfold/statfold/pkg/config"
	"github.com/statfold/statfold/pkg/display"
	"github.com/statfold/statfold/pkg/engine"
	"github.com/statfold/statfold/pkg/logger"
	"github.com/statfold/statfold/pkg/reader"
	"github.com/statfold/statfold/pkg/record"
	"github.com/statfold/statfold/pkg/store"
)

// app bundles the pieces every command starts from.
type app struct {
	cfg *config.Config
	log logger.Logger
	db  *bolt.DB
}

// openApp loads configuration and builds the logger. The database is
// opened only when asked for, so read-only invocations never touch it.
func openApp(configPath string, needDB bool) (*app, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})

	a := &app{cfg: cfg, log: log}
	if needDB {
		if err := a.openDB(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openDB() error {
	if a.db != nil {
		return nil
	}

	path := a.cfg.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", path, err)
	}
	a.db = db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("failed to close database", "error", err)
		}
	}
}

// formatter builds the display formatter for a command, falling back to
// the configured default format.
func (a *app) formatter(format string, compact, showMetadata bool) (display.Formatter, error) {
	f := display.Format(format)
	if format == "" {
		f = display.Format(a.cfg.Display.DefaultFormat)
	}
	if !f.Valid() {
		return nil, fmt.Errorf("unknown format: %s", f)
	}

	return display.New(display.Config{
		Format:       f,
		Compact:      compact,
		ShowMetadata: showMetadata,
	}), nil
}

// runCommand aggregates records once and prints the result.
type runCommand struct {
	jobPath      string
	inputs       []string
	format       string
	compact      bool
	showMetadata bool
	save         bool
	configPath   string
	out          io.Writer
}

// Execute runs the run command.
func (c *runCommand) Execute() error {
	if c.jobPath == "" {
		return fmt.Errorf("run requires -job")
	}

	a, err := openApp(c.configPath, c.save)
	if err != nil {
		return err
	}
	defer a.close()

	job, err := config.LoadJobSpec(c.jobPath)
	if err != nil {
		return err
	}

	paths := c.inputs
	if len(paths) == 0 {
		paths = a.cfg.InputDirs
	}

	records, err := reader.New(a.log).ReadAll(paths)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}
	a.log.Info("records loaded", "count", len(records), "paths", paths)

	res, err := engine.New(engine.Config{Logger: a.log}).Aggregate(job.Request(records))
	if err != nil {
		return err
	}

	f, err := a.formatter(c.format, c.compact, c.showMetadata)
	if err != nil {
		return err
	}
	if err := f.FormatResult(c.out, res); err != nil {
		return err
	}

	if c.save {
		return saveSnapshot(a, job, res, c.out)
	}
	return nil
}

// mergeCommand re-aggregates stored snapshots and record files together.
type mergeCommand struct {
	jobPath    string
	from       []string
	inputs     []string
	format     string
	compact    bool
	save       bool
	configPath string
	out        io.Writer
}

// Execute runs the merge command.
func (c *mergeCommand) Execute() error {
	if c.jobPath == "" {
		return fmt.Errorf("merge requires -job")
	}
	if len(c.from) == 0 && len(c.inputs) == 0 {
		return fmt.Errorf("merge requires -from or input paths")
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

	snapshots, err := store.NewBoltSnapshotStore(a.db)
	if err != nil {
		return err
	}

	var records []record.Record
	for _, name := range c.from {
		snap, loadErr := snapshots.Load(name)
		if loadErr != nil {
			return loadErr
		}
		a.log.Info("snapshot loaded",
			"job", name,
			"id", snap.ID,
			"records", len(snap.Records))
		records = append(records, snap.Records...)
	}

	if len(c.inputs) > 0 {
		raw, readErr := reader.New(a.log).ReadAll(c.inputs)
		if readErr != nil {
			return fmt.Errorf("failed to read records: %w", readErr)
		}
		records = append(records, raw...)
	}

	res, err := engine.New(engine.Config{Logger: a.log}).Aggregate(job.Request(records))
	if err != nil {
		return err
	}

	f, err := a.formatter(c.format, c.compact, false)
	if err != nil {
		return err
	}
	if err := f.FormatResult(c.out, res); err != nil {
		return err
	}

	if c.save {
		return saveSnapshot(a, job, res, c.out)
	}
	return nil
}

// snapshotsCommand manages stored snapshots.
type snapshotsCommand struct {
	configPath string
	out        io.Writer
}

// Execute runs the snapshots command.
func (c *snapshotsCommand) Execute(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("snapshots requires a subcommand: list, show, delete")
	}

	a, err := openApp(c.configPath, true)
	if err != nil {
		return err
	}
	defer a.close()

	snapshots, err := store.NewBoltSnapshotStore(a.db)
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		jobs, listErr := snapshots.List()
		if listErr != nil {
			return listErr
		}
		if len(jobs) == 0 {
			fmt.Fprintln(c.out, "No snapshots")
			return nil
		}
		for _, job := range jobs {
			fmt.Fprintln(c.out, job)
		}
		return nil

	case "show":
		if len(args) < 2 {
			return fmt.Errorf("snapshots show requires a job name")
		}
		snap, loadErr := snapshots.Load(args[1])
		if loadErr != nil {
			return loadErr
		}
		payload, marshalErr := json.MarshalIndent(snap, "", "  ")
		if marshalErr != nil {
			return marshalErr
		}
		fmt.Fprintln(c.out, string(payload))
		return nil

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("snapshots delete requires a job name")
		}
		if delErr := snapshots.Delete(args[1]); delErr != nil {
			return delErr
		}
		fmt.Fprintf(c.out, "Deleted snapshot for %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown snapshots subcommand: %s", args[0])
	}
}

// saveSnapshot persists the grouped output under the job's name.
func saveSnapshot(a *app, job *config.JobSpec, res *engine.Result, out io.Writer) error {
	if job.Name == "" {
		return fmt.Errorf("saving a snapshot requires a job name in the job spec")
	}
	if err := a.openDB(); err != nil {
		return err
	}

	snapshots, err := store.NewBoltSnapshotStore(a.db)
	if err != nil {
		return err
	}

	id, err := snapshots.Save(job.Name, res.GroupedRecords)
	if err != nil {
		return err
	}

	a.log.Info("snapshot saved", "job", job.Name, "id", id)
	fmt.Fprintf(out, "Saved snapshot %s for %s\n", id, job.Name)
	return nil
}

// splitList splits a comma-separated flag value.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
