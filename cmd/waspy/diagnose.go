package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"waspy/internal/diagfmt"
	"waspy/internal/driver"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] <file.py|directory>",
	Short: "Report diagnostics without writing modules",
	Long:  `Diag runs the whole pipeline on a file or every *.py below a directory and prints SyntaxError, NameError, TypeError and CodeGenError diagnostics`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnose,
}

func init() {
	addBuildFlags(diagCmd)
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().String("path-mode", "auto", "file paths in output (auto|absolute|relative|basename)")
	diagCmd.Flags().Int("context", 1, "source lines around the primary line (pretty only)")
}

// runDiagnose prints diagnostics of every module in the chosen format and
// exits with 1 when any module has errors.
func runDiagnose(cmd *cobra.Command, args []string) error {
	input := args[0]
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	pathModeFlag, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeFlag)
	if !ok {
		return fmt.Errorf("unknown path mode %q", pathModeFlag)
	}
	ctxLines, err := cmd.Flags().GetInt("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	switch format {
	case "pretty", "json", "short":
	default:
		return fmt.Errorf("unknown format %q (expected pretty|json|short)", format)
	}

	inputs, err := driver.ReadInputs(input)
	if err != nil {
		return err
	}
	opts, err := driverOptions(cmd, input)
	if err != nil {
		return err
	}
	results, err := driver.CompileAll(cmd.Context(), inputs, opts)
	if err != nil {
		return fmt.Errorf("%+v", err)
	}

	baseDir := input
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		baseDir = filepath.Dir(input)
	}
	out := cmd.OutOrStdout()
	failed := false
	var items []diagfmt.DiagnosticJSON
	for _, r := range results {
		failed = failed || r.Failed()
		switch format {
		case "json":
			items = append(items, diagfmt.BuildDiagnostics(r.Name, r.Diagnostics, r.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         pathMode,
				BaseDir:          baseDir,
				IncludeNotes:     withNotes,
			})...)
		case "short":
			err = diagfmt.Short(out, r.Diagnostics, r.FileSet, pathMode, baseDir)
		default:
			err = diagfmt.Pretty(out, r.Diagnostics, r.FileSet, diagfmt.PrettyOpts{
				Color:     useColor(cmd, os.Stdout),
				Context:   ctxLines,
				PathMode:  pathMode,
				BaseDir:   baseDir,
				ShowNotes: withNotes,
			})
		}
		if err != nil {
			return err
		}
	}
	if format == "json" {
		if err := diagfmt.WriteJSON(out, items); err != nil {
			return err
		}
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}
