package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"waspy/internal/driver"
	"waspy/internal/host"
	"waspy/internal/trace"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <file.py|file.wasm> [function [args...]]",
	Short: "Compile and execute a module on the reference host",
	Long: `Run instantiates the module, which executes its top-level code, and then
optionally calls an exported function. Arguments are parsed by the declared
parameter types; lists and sets are given as JSON arrays.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	addBuildFlags(runCmd)
	runCmd.Flags().Int64("seed", 0, "seed of the random module (default: time based)")
}

func runRun(cmd *cobra.Command, args []string) error {
	wasm, err := loadWasm(cmd, args[0])
	if err != nil {
		return err
	}
	if wasm == nil {
		return &exitError{code: 1}
	}

	seed, err := cmd.Flags().GetInt64("seed")
	if err != nil {
		return fmt.Errorf("failed to get seed flag: %w", err)
	}
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}

	ctx := cmd.Context()
	inst, err := host.Load(ctx, wasm, host.Options{
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Tracer: trace.FromContext(ctx),
		Seed:   seed,
	})
	if err != nil {
		return programError(cmd, err)
	}
	defer inst.Close(ctx)

	if len(args) < 2 {
		return nil
	}
	name := args[1]
	exp, ok := inst.Metadata().Export(name)
	if !ok {
		return fmt.Errorf("module exports no function %q", name)
	}
	if len(args)-2 != len(exp.Params) {
		return fmt.Errorf("%s takes %d arguments, got %d", name, len(exp.Params), len(args)-2)
	}
	callArgs := make([]any, len(exp.Params))
	for i, p := range exp.Params {
		v, err := host.ParseArg(args[i+2], p.Type)
		if err != nil {
			return fmt.Errorf("argument %s: %w", p.Name, err)
		}
		callArgs[i] = v
	}
	result, err := inst.Call(ctx, name, callArgs...)
	if err != nil {
		return programError(cmd, err)
	}
	if exp.Result.Type != "None" {
		fmt.Fprintln(cmd.OutOrStdout(), host.Repr(result))
	}
	return nil
}

// loadWasm returns the binary of path, compiling Python sources first.
// A nil binary means diagnostics were printed.
func loadWasm(cmd *cobra.Command, path string) ([]byte, error) {
	if filepath.Ext(path) == ".wasm" {
		return os.ReadFile(path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts, err := driverOptions(cmd, path)
	if err != nil {
		return nil, err
	}
	// модуль без метаданных хост загрузить не сможет
	opts.Config.Build.Metadata = true
	res, err := driver.Compile(cmd.Context(), driver.Input{Path: path, Src: src}, opts)
	if err != nil {
		return nil, fmt.Errorf("%+v", err)
	}
	if printDiagnostics(cmd, []*driver.Result{res}) {
		return nil, nil
	}
	return res.Wasm, nil
}

// programError maps failures of the guest onto exit codes: sys.exit keeps
// its status, an uncaught exception exits with 1.
func programError(cmd *cobra.Command, err error) error {
	var exit *host.ExitError
	if errors.As(err, &exit) {
		return &exitError{code: int(exit.Code)}
	}
	var exc *host.Exception
	if errors.As(err, &exc) {
		fmt.Fprintf(cmd.ErrOrStderr(), "uncaught exception: %s\n", exc.Error())
		return &exitError{code: 1}
	}
	return err
}
