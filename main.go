package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/atomicstack/keyspace-browser/internal/app"
	"github.com/atomicstack/keyspace-browser/internal/config"
	"github.com/atomicstack/keyspace-browser/internal/logging"
	"github.com/atomicstack/keyspace-browser/internal/logging/events"
)

// configError marks failures that happen before any command runs.
type configError struct {
	error
}

func main() {
	root := newRootCommand(os.Environ())
	if err := root.Execute(); err != nil {
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var cfgErr configError
	if errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}

func newRootCommand(environ []string) *cobra.Command {
	var runtimeCfg config.Config
	root := &cobra.Command{
		Use:           "keyspace-browser",
		Short:         "Browse a key-value store as a tree of namespaces",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			traceStartup(runtimeCfg)
			err := app.Run(runtimeCfg.App)
			events.App.Stop(err)
			return err
		},
	}
	flags := config.Register(root.PersistentFlags(), environ)
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.Config(os.Args[1:])
		if err == nil {
			err = config.Validate(cfg)
		}
		if err != nil {
			return configError{errors.WithMessage(err, "configuration error")}
		}
		logging.Configure(cfg.Logging.FilePath)
		logging.ConfigureRotation(logging.Rotation{MaxSizeMB: cfg.Logging.MaxSizeMB})
		logging.SetTraceEnabled(cfg.Logging.Trace)
		runtimeCfg = cfg
		return nil
	}
	root.AddCommand(newTreeCommand(&runtimeCfg), newDatabasesCommand(&runtimeCfg))
	return root
}

func newTreeCommand(cfg *config.Config) *cobra.Command {
	var db int
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Load one database and print its key tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.PrintTree(cmd.Context(), cfg.App, db, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&db, "db", 0, "index of the database to print")
	return cmd
}

func newDatabasesCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List databases with their approximate key counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ListDatabases(cmd.Context(), cfg.App, cmd.OutOrStdout())
		},
	}
}

func traceStartup(cfg config.Config) {
	events.App.Start(startupTracePayload(cfg))
}

// startupTracePayload bundles runtime context for trace logging.
func startupTracePayload(cfg config.Config) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags))
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath
	payload := map[string]interface{}{
		"argv":   cfg.Args,
		"flags":  flags,
		"config": cfg,
	}
	if exe, err := os.Executable(); err == nil {
		payload["executable"] = exe
	} else {
		payload["executableError"] = err.Error()
	}
	if cwd, err := os.Getwd(); err == nil {
		payload["cwd"] = cwd
	} else {
		payload["cwdError"] = err.Error()
	}
	payload["tty"] = collectTTYDetails()
	return payload
}

type ttyDetails struct {
	Detected *ttyDetected     `json:"detected,omitempty"`
	Probes   []ttyProbeResult `json:"probes"`
}

type ttyDetected struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ttyProbeResult struct {
	Name       string `json:"name"`
	IsTerminal bool   `json:"is_terminal"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Error      string `json:"error,omitempty"`
}

// collectTTYDetails inspects standard descriptors for terminal support and dimensions.
func collectTTYDetails() ttyDetails {
	probes := []struct {
		name string
		fd   uintptr
	}{
		{"stdin", os.Stdin.Fd()},
		{"stdout", os.Stdout.Fd()},
		{"stderr", os.Stderr.Fd()},
	}
	results := make([]ttyProbeResult, 0, len(probes))
	var detected *ttyDetected
	for _, probe := range probes {
		entry := ttyProbeResult{Name: probe.name}
		fd := int(probe.fd)
		if fd >= 0 && term.IsTerminal(fd) {
			entry.IsTerminal = true
			if width, height, err := term.GetSize(fd); err == nil {
				entry.Width = width
				entry.Height = height
				if detected == nil {
					detected = &ttyDetected{Source: probe.name, Width: width, Height: height}
				}
			} else {
				entry.Error = err.Error()
			}
		} else {
			entry.IsTerminal = false
		}
		results = append(results, entry)
	}
	return ttyDetails{Detected: detected, Probes: results}
}
