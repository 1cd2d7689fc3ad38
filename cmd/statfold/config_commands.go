package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/statfold/statfold/pkg/config"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	configPath string
	out        io.Writer
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "show":
		return c.runShow(args[1:])
	case "path":
		return c.runPath()
	case "reset":
		return c.runReset(args[1:])
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
}

// runShow displays the effective configuration.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ExitOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch *format {
	case "json":
		data, marshalErr := json.MarshalIndent(cfg, "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal config: %w", marshalErr)
		}
		fmt.Fprintln(c.out, string(data))
		return nil
	default:
		data, marshalErr := yaml.Marshal(cfg)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal config: %w", marshalErr)
		}
		fmt.Fprint(c.out, string(data))
		return nil
	}
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	fmt.Fprintln(c.out, "Configuration file search paths (in order of precedence):")
	fmt.Fprintln(c.out)

	for i, p := range config.SearchPaths() {
		state := "not found"
		if _, err := os.Stat(p); err == nil {
			state = "found"
		}
		fmt.Fprintf(c.out, "  %d. %s [%s]\n", i+1, p, state)
	}

	if c.configPath != "" {
		fmt.Fprintln(c.out)
		fmt.Fprintf(c.out, "Overridden by -config: %s\n", c.configPath)
	}
	return nil
}

// runReset writes the default configuration to a file.
func (c *configCommand) runReset(args []string) error {
	fs := flag.NewFlagSet("config reset", flag.ExitOnError)
	output := fs.String("output", "", "destination path (default: the user config path)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *output
	if path == "" {
		paths := config.SearchPaths()
		path = paths[len(paths)-1]
	}

	if err := config.Save(config.Default(), path); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Wrote default configuration to %s\n", path)
	return nil
}

// showHelp displays config command usage.
func (c *configCommand) showHelp() error {
	fmt.Fprint(c.out, `Configuration management

Usage:
  statfold config show [-format yaml|json]   Show the effective configuration
  statfold config path                       Show config file search paths
  statfold config reset [-output PATH]       Write the default configuration
`)
	return nil
}
