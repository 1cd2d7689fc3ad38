// Package main provides the statfold CLI application.
//
// Statfold aggregates loosely structured JSONL records into grouped
// statistics. Aggregated output carries self-describing metadata, so
// results can be merged with other results or augmented with newly
// arrived records without recounting from scratch.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run(argv []string) error {
	fs := flag.NewFlagSet("statfold", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	showVersion := fs.Bool("version", false, "show version information")

	if err := fs.Parse(argv); err != nil {
		return err
	}

	if *showVersion {
		fmt.Printf("statfold %s\n", version)
		return nil
	}

	args := fs.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "run":
		return runRunCommand(*configPath, args[1:])
	case "watch":
		return runWatchCommand(*configPath, args[1:])
	case "merge":
		return runMergeCommand(*configPath, args[1:])
	case "snapshots":
		return runSnapshotsCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runRunCommand runs the run command.
func runRunCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	jobPath := fs.String("job", "", "path to the job specification (required)")
	format := fs.String("format", "", "output format (table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")
	showMetadata := fs.Bool("show-metadata", false, "include aggregation metadata in table and simple output")
	save := fs.Bool("save", false, "save the grouped output as the job's snapshot")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &runCommand{
		jobPath:      *jobPath,
		inputs:       fs.Args(),
		format:       *format,
		compact:      *compact,
		showMetadata: *showMetadata,
		save:         *save,
		configPath:   configPath,
		out:          os.Stdout,
	}

	return cmd.Execute()
}

// runMergeCommand runs the merge command.
func runMergeCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	jobPath := fs.String("job", "", "path to the job specification (required)")
	from := fs.String("from", "", "comma-separated snapshot job names to merge")
	format := fs.String("format", "", "output format (table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")
	save := fs.Bool("save", false, "save the merged output as the job's snapshot")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &mergeCommand{
		jobPath:    *jobPath,
		from:       splitList(*from),
		inputs:     fs.Args(),
		format:     *format,
		compact:    *compact,
		save:       *save,
		configPath: configPath,
		out:        os.Stdout,
	}

	return cmd.Execute()
}

// runWatchCommand runs the watch command.
func runWatchCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	jobPath := fs.String("job", "", "path to the job specification (required)")
	format := fs.String("format", "", "output format (table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &watchCommand{
		jobPath:    *jobPath,
		inputs:     fs.Args(),
		format:     *format,
		compact:    *compact,
		configPath: configPath,
		out:        os.Stdout,
	}

	return cmd.Execute()
}

// runSnapshotsCommand runs the snapshots command.
func runSnapshotsCommand(configPath string, args []string) error {
	cmd := &snapshotsCommand{
		configPath: configPath,
		out:        os.Stdout,
	}
	return cmd.Execute(args)
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
		out:        os.Stdout,
	}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage() error {
	usage := `Statfold - grouped statistics over JSONL records

Usage:
  statfold [flags] <command> [command flags] [paths...]

Commands:
  run         Aggregate records once and print the result
  watch       Re-aggregate continuously as record files change
  merge       Re-aggregate stored snapshots and record files together
  snapshots   Snapshot management (list, show, delete)
  config      Configuration management (show, path)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Run Command Flags:
  -job            Path to the job specification YAML (required)
  -format         Output format (table, json, simple)
  -compact        Compact output
  -show-metadata  Include aggregation metadata in table and simple output
  -save           Save the grouped output as the job's snapshot

Merge Command Flags:
  -job        Path to the job specification YAML (required)
  -from       Comma-separated snapshot job names to merge
  -format     Output format (table, json, simple)
  -compact    Compact output
  -save       Save the merged output as the job's snapshot

Watch Command Flags:
  -job        Path to the job specification YAML (required)
  -format     Output format (table, json, simple)
  -compact    Compact output

Examples:
  # Aggregate the configured input directories
  statfold run -job jobs/revenue-by-region.yaml

  # Aggregate specific files or directories
  statfold run -job jobs/revenue-by-region.yaml data/east data/west.jsonl

  # Print JSON, keep a snapshot for later merging
  statfold run -job jobs/revenue-by-region.yaml -format json -save

  # Merge two workers' snapshots into one result
  statfold merge -job jobs/revenue-by-region.yaml -from worker-a,worker-b

  # Fold freshly arrived records into a stored snapshot
  statfold merge -job jobs/revenue-by-region.yaml -from revenue-by-region data/new

  # Watch the input directories and re-aggregate on change
  statfold watch -job jobs/revenue-by-region.yaml

  # Snapshot management
  statfold snapshots list
  statfold snapshots show revenue-by-region
  statfold snapshots delete revenue-by-region

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
