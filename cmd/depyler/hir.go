package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"depyler/internal/diagfmt"
	"depyler/internal/directive"
	"depyler/internal/driver"
	"depyler/internal/hir"
	"depyler/internal/infer"
	"depyler/internal/pyast"
	"depyler/internal/source"
)

var hirCmd = &cobra.Command{
	Use:   "hir [flags] <file.py>",
	Short: "Dump the intermediate representation of a Python file",
	Args:  cobra.ExactArgs(1),
	RunE:  runHIR,
}

func init() {
	hirCmd.Flags().Bool("no-infer", false, "dump before type inference runs")
	hirCmd.Flags().String("config", "", "JSON pipeline config file")
}

func runHIR(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, _, err := loadPipelineConfig(cmd, path)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI
	if err != nil {
		return fmt.Errorf("read %s: %w: %v", path, driver.ErrUserInput, err)
	}
	astJSON, err := driver.ParseSource(cmd.Context(), cfg, src)
	if err != nil {
		return err
	}
	root, err := pyast.Parse(astJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", driver.ErrUserInput, err)
	}

	fs := source.NewFileSet()
	id := fs.AddVirtual(filepath.Base(path), src)
	reg := directive.CollectFromSource(string(src))
	m, bag, err := hir.Lower(root, moduleNameOf(path), id, fs, reg, cfg.MaxDiagnostics)
	if err != nil {
		cmd.SilenceUsage = true
		return fmt.Errorf("lower %s: %w", path, err)
	}
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
		diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.Opts{Color: useColor(cmd), Context: true})
	}

	if skipInfer, _ := cmd.Flags().GetBool("no-infer"); !skipInfer {
		infer.Run(m, cfg.MaxDiagnostics)
	}
	return hir.Dump(os.Stdout, m)
}
