package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"depyler/internal/directive"
	"depyler/internal/driver"
	"depyler/internal/event"
	"depyler/internal/hints"
	"depyler/internal/hir"
	"depyler/internal/infer"
	"depyler/internal/pyast"
	"depyler/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.py>",
	Short: "Analyze a Python file without writing output",
	Long:  `Run the pipeline for diagnostics only. --events classifies the Lambda event source; --hints suggests type annotations for unannotated parameters`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Bool("events", false, "classify the AWS Lambda event type")
	checkCmd.Flags().Bool("hints", false, "suggest type annotations for unannotated parameters")
	checkCmd.Flags().String("config", "", "JSON pipeline config file")
	checkCmd.Flags().String("verify", "", "verification level (none|basic|full|strict)")
	checkCmd.Flags().Bool("nasa", false, "enable the dynamic value carrier for mixed containers")
	checkCmd.Flags().Bool("strict", false, "treat any error diagnostic as fatal")
	checkCmd.Flags().Bool("no-cache", false, "disable the artifact disk cache")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	cfg, opts, err := loadPipelineConfig(cmd, path)
	if err != nil {
		return err
	}

	wantEvents, _ := cmd.Flags().GetBool("events")
	wantHints, _ := cmd.Flags().GetBool("hints")
	if wantEvents || wantHints {
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
		if wantEvents {
			printEventClassification(root)
		}
		if wantHints {
			if err := printHints(path, src, root, cfg.MaxDiagnostics); err != nil {
				return err
			}
		}
		return nil
	}

	art, err := driver.TranspileFile(cmd.Context(), path, cfg, opts)
	reportDiagnostics(cmd, art, quiet)
	if err != nil {
		cmd.SilenceUsage = true
		return err
	}
	if art.HasErrors() {
		cmd.SilenceUsage = true
		return fmt.Errorf("%s: %w: diagnostics contain errors", path, driver.ErrUserInput)
	}
	if !quiet {
		printStatus(quiet, true, path, "no issues")
	}
	return nil
}

func printEventClassification(root *pyast.Node) {
	c := event.Classify(root)
	if c.Kind == event.Unknown {
		fmt.Fprintln(os.Stdout, "event type: unknown (no handler access patterns found)")
		return
	}
	fmt.Fprintf(os.Stdout, "event type: %s (confidence %.0f%%)\n", c.Kind, c.Confidence*100)
	for _, e := range c.Evidence {
		fmt.Fprintf(os.Stdout, "  - %s\n", e)
	}
}

func printHints(path string, src []byte, root *pyast.Node, maxDiag int) error {
	fs := source.NewFileSet()
	id := fs.AddVirtual(filepath.Base(path), src)
	reg := directive.CollectFromSource(string(src))
	m, _, err := hir.Lower(root, moduleNameOf(path), id, fs, reg, maxDiag)
	if err != nil {
		return fmt.Errorf("lower %s: %w", path, err)
	}
	infer.Run(m, maxDiag)

	suggestions := hints.Analyze(m)
	if len(suggestions) == 0 {
		fmt.Fprintln(os.Stdout, "no annotation hints: every parameter is typed or resolved")
		return nil
	}
	for _, line := range hints.Lines(suggestions) {
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

func moduleNameOf(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}
