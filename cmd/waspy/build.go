package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"waspy/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] <file.py|directory>",
	Short: "Compile Python sources to .wasm modules",
	Long: `Build compiles one file, or every *.py below a directory in parallel.
A module is written only when it compiled without errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	buildCmd.Flags().StringP("output", "o", "", "output file for a single module, output directory otherwise")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().Bool("timings", false, "print phase timings")
	buildCmd.Flags().String("timings-format", "text", "timings format (text|json)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	input := args[0]
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	showTimings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	timingsFormat, err := cmd.Flags().GetString("timings-format")
	if err != nil {
		return fmt.Errorf("failed to get timings-format flag: %w", err)
	}
	if timingsFormat != "text" && timingsFormat != "json" {
		return fmt.Errorf("unknown timings format %q (expected text|json)", timingsFormat)
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	inputs, err := driver.ReadInputs(input)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no *.py files in %s", input)
	}
	opts, err := driverOptions(cmd, input)
	if err != nil {
		return err
	}

	var results []*driver.Result
	if showProgress(mode, len(inputs), quiet) {
		results, err = compileWithUI(cmd.Context(), "waspy build", inputs, opts)
	} else {
		results, err = driver.CompileAll(cmd.Context(), inputs, opts)
	}
	if err != nil {
		return fmt.Errorf("%+v", err)
	}

	failed := printDiagnostics(cmd, results)
	written := 0
	for _, r := range results {
		if r.Failed() {
			continue
		}
		dst := outputPath(r, input, output, len(inputs) == 1)
		if err := writeModule(dst, r.Wasm); err != nil {
			return err
		}
		written++
		if !quiet {
			note := ""
			if r.Cached {
				note = " (cached)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s%s\n", r.Name, dst, note)
		}
	}
	if showTimings {
		if err := driver.WriteTimings(cmd.ErrOrStderr(), results, timingsFormat == "json"); err != nil {
			return err
		}
	}
	if failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d error(s); %d of %d modules built\n", countErrors(results), written, len(results))
		return &exitError{code: 1}
	}
	return nil
}

// outputPath places a single module at -o, or next to its source, and
// the modules of a directory under -o by dotted name.
func outputPath(r *driver.Result, input, output string, single bool) string {
	if single {
		if output != "" {
			return output
		}
		return strings.TrimSuffix(r.Path, filepath.Ext(r.Path)) + ".wasm"
	}
	if output == "" {
		output = filepath.Join(input, "build")
	}
	return filepath.Join(output, r.Name+".wasm")
}

func writeModule(path string, wasm []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, wasm, 0o644); err != nil { //nolint:gosec // build output is world readable
		return err
	}
	return os.Rename(tmp, path)
}
