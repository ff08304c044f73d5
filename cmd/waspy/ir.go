package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"waspy/internal/driver"
	"waspy/internal/ir"
)

var irCmd = &cobra.Command{
	Use:   "ir [flags] file.py",
	Short: "Print the lowered IR of a module",
	Long:  `IR prints the control-flow graph of every function after lowering. It is printed even when code generation fails.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIR,
}

func init() {
	addBuildFlags(irCmd)
}

func runIR(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	opts, err := driverOptions(cmd, args[0])
	if err != nil {
		return err
	}
	// из кэша IR не восстановить
	opts.Cache = nil
	opts.KeepIR = true

	res, err := driver.Compile(cmd.Context(), driver.Input{Path: args[0], Src: src}, opts)
	if err != nil {
		return fmt.Errorf("%+v", err)
	}
	if res.Module != nil {
		if err := ir.DumpModule(cmd.OutOrStdout(), res.Module); err != nil {
			return err
		}
	}
	if printDiagnostics(cmd, []*driver.Result{res}) {
		return &exitError{code: 1}
	}
	return nil
}
