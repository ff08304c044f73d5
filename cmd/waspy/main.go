package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"waspy/internal/prof"
	"waspy/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "waspy",
	Short: "Compile typed Python to WebAssembly",
	Long:  `waspy compiles a statically typed subset of Python ahead of time into self-contained WebAssembly modules`,
	// ошибки печатаем сами, чтобы код выхода зависел от их вида
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return startProfiling(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		runTraceCleanup()
	},
}

var (
	traceCleanup func()
	profSession  *prof.Session
)

func startProfiling(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	var opts prof.Options
	opts.CPU, _ = pf.GetString("cpuprofile")
	opts.Mem, _ = pf.GetString("memprofile")
	opts.Trace, _ = pf.GetString("runtime-trace")
	if !opts.Enabled() {
		return nil
	}
	s, err := prof.Start(opts)
	if err != nil {
		return err
	}
	profSession = s
	return nil
}

func runTraceCleanup() {
	if err := profSession.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "waspy: profile: %v\n", err)
	}
	profSession = nil
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
}

// exitError carries a process exit code without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// main registers subcommands and persistent flags and runs the root command.
// Diagnostics exit with 1, usage and I/O failures with 2, sys.exit with its code.
func main() {
	rootCmd.Version = version.Current().Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics per module")
	pf.String("config", "", "path to waspy.toml (default: searched upwards from the input)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept in ring mode")
	pf.Duration("trace-heartbeat", 0, "heartbeat interval (0 disables)")
	pf.String("cpuprofile", "", "write a CPU profile of the compiler")
	pf.String("memprofile", "", "write a heap profile when the command ends")
	pf.String("runtime-trace", "", "write a Go runtime execution trace")

	err := rootCmd.Execute()
	runTraceCleanup()
	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintf(os.Stderr, "waspy: %v\n", err)
	os.Exit(2)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command, f *os.File) bool {
	flag, _ := cmd.Root().PersistentFlags().GetString("color")
	switch flag {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(f) && os.Getenv("NO_COLOR") == ""
}
