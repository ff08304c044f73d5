package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"waspy/internal/config"
	"waspy/internal/diagfmt"
	"waspy/internal/driver"
	"waspy/internal/trace"
)

// addBuildFlags registers the flags that override [build] of waspy.toml.
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Uint32("memory-pages", 0, "initial linear memory pages (overrides waspy.toml)")
	f.Uint32("max-memory-pages", 0, "maximum linear memory pages (overrides waspy.toml)")
	f.Int("max-locals", 0, "locals allowed per function (overrides waspy.toml)")
	f.Bool("no-debug-names", false, "omit the name section")
	f.Bool("no-metadata", false, "omit the waspy.metadata section")
	f.Bool("no-start", false, "export _initialize instead of a start function")
	f.Bool("library", false, "compile as an importable module (__name__ is the module name)")
	f.Bool("no-cache", false, "bypass the on-disk module cache")
	f.Int("jobs", 0, "max parallel workers (0=auto)")
}

// loadConfig reads the manifest named by --config or found near input and
// applies the flag overrides.
func loadConfig(cmd *cobra.Command, input string) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		dir := input
		if info, statErr := os.Stat(input); statErr == nil && !info.IsDir() {
			dir = filepath.Dir(input)
		}
		cfg, err = config.LoadNear(dir)
	}
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Lookup("memory-pages") == nil {
		return cfg, nil
	}
	if f.Changed("memory-pages") {
		cfg.Build.MemoryPages, _ = f.GetUint32("memory-pages")
	}
	if f.Changed("max-memory-pages") {
		cfg.Build.MaxMemoryPages, _ = f.GetUint32("max-memory-pages")
	}
	if f.Changed("max-locals") {
		cfg.Build.MaxLocals, _ = f.GetInt("max-locals")
	}
	if v, _ := f.GetBool("no-debug-names"); v {
		cfg.Build.DebugNames = false
	}
	if v, _ := f.GetBool("no-metadata"); v {
		cfg.Build.Metadata = false
	}
	if v, _ := f.GetBool("no-start"); v {
		cfg.Build.Start = false
	}
	if v, _ := f.GetBool("library"); v {
		cfg.Build.Entry = false
	}
	if cfg.Build.MemoryPages == 0 || cfg.Build.MaxMemoryPages < cfg.Build.MemoryPages || cfg.Build.MaxLocals <= 0 {
		return cfg, fmt.Errorf("invalid build overrides: memory %d..%d pages, %d locals",
			cfg.Build.MemoryPages, cfg.Build.MaxMemoryPages, cfg.Build.MaxLocals)
	}
	return cfg, nil
}

// driverOptions builds the pipeline options shared by every command.
func driverOptions(cmd *cobra.Command, input string) (driver.Options, error) {
	cfg, err := loadConfig(cmd, input)
	if err != nil {
		return driver.Options{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	opts := driver.Options{
		Config:         cfg,
		MaxDiagnostics: maxDiagnostics,
		Tracer:         trace.FromContext(cmd.Context()),
	}
	if f := cmd.Flags(); f.Lookup("jobs") != nil {
		opts.Jobs, _ = f.GetInt("jobs")
		if noCache, _ := f.GetBool("no-cache"); !noCache {
			cache, err := driver.OpenDiskCache("waspy")
			if err != nil {
				// без кэша тоже можно собрать
				trace.Point(opts.Tracer, trace.ScopeDriver, "cache", err.Error())
			} else {
				opts.Cache = cache
			}
		}
	}
	return opts, nil
}

// printDiagnostics renders the diagnostics of failed results to stderr in
// pretty form and reports whether any module failed.
func printDiagnostics(cmd *cobra.Command, results []*driver.Result) bool {
	failed := false
	opts := diagfmt.PrettyOpts{Color: useColor(cmd, os.Stderr), Context: 1, ShowNotes: true}
	for _, r := range results {
		if r == nil || r.Diagnostics.Len() == 0 {
			continue
		}
		failed = failed || r.Failed()
		if err := diagfmt.Pretty(cmd.ErrOrStderr(), r.Diagnostics, r.FileSet, opts); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "waspy: %v\n", err)
		}
	}
	return failed
}

func countErrors(results []*driver.Result) int {
	n := 0
	for _, r := range results {
		if r != nil {
			n += len(r.Diagnostics.Errors())
		}
	}
	return n
}
