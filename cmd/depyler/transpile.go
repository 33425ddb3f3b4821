package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"depyler/internal/config"
	"depyler/internal/diag"
	"depyler/internal/diagfmt"
	"depyler/internal/driver"
)

var transpileCmd = &cobra.Command{
	Use:   "transpile [flags] <file.py|directory>",
	Short: "Translate Python sources to Rust",
	Long:  `Translate a Python file or every .py file in a directory to Rust, writing the module, its Cargo manifest, and a companion report`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTranspile,
}

func init() {
	transpileCmd.Flags().StringP("out", "o", ".", "output directory")
	transpileCmd.Flags().String("config", "", "JSON pipeline config file")
	transpileCmd.Flags().String("verify", "", "verification level (none|basic|full|strict)")
	transpileCmd.Flags().Bool("nasa", false, "enable the dynamic value carrier for mixed containers")
	transpileCmd.Flags().Bool("strict", false, "treat any error diagnostic as fatal")
	transpileCmd.Flags().Bool("no-cache", false, "disable the artifact disk cache")
	transpileCmd.Flags().Int("jobs", 0, "max parallel workers for directory input (0=auto)")
	transpileCmd.Flags().Bool("watch", false, "watch inputs and re-transpile on change")
}

// loadPipelineConfig merges the project manifest, the optional JSON
// config, and the command-line flags, in that order of precedence.
func loadPipelineConfig(cmd *cobra.Command, inputPath string) (config.Config, driver.Options, error) {
	var opts driver.Options

	dir := inputPath
	if st, err := os.Stat(inputPath); err == nil && !st.IsDir() {
		dir = filepath.Dir(inputPath)
	}
	project, _, err := config.LoadProject(dir)
	if err != nil {
		return config.Config{}, opts, fmt.Errorf("%w: %v", driver.ErrUserInput, err)
	}
	cfg := project.Transpile
	opts.PackageName = project.Package.Name
	opts.PackageVersion = project.Package.Version

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadJSON(path)
		if err != nil {
			return cfg, opts, fmt.Errorf("%w: %v", driver.ErrUserInput, err)
		}
	}

	if nasa, _ := cmd.Flags().GetBool("nasa"); nasa {
		cfg.NasaMode = true
	}
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		cfg.StrictMode = true
	}
	if verify, _ := cmd.Flags().GetString("verify"); verify != "" {
		level := config.VerificationLevel(verify)
		if !level.Valid() {
			return cfg, opts, fmt.Errorf("%w: bad verification level %q", driver.ErrUserInput, verify)
		}
		cfg.VerificationLevel = level
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.CacheDir = "-"
	}
	if max, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err == nil && max > 0 {
		cfg.MaxDiagnostics = max
	}
	opts.Timings, _ = cmd.Root().PersistentFlags().GetBool("timings")

	return cfg, opts, nil
}

func runTranspile(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outDir, _ := cmd.Flags().GetString("out")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	cfg, opts, err := loadPipelineConfig(cmd, inputPath)
	if err != nil {
		return err
	}

	st, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", driver.ErrUserInput, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}

	run := func() error {
		if st.IsDir() {
			jobs, _ := cmd.Flags().GetInt("jobs")
			return transpileDirectory(cmd, inputPath, outDir, cfg, opts, jobs, quiet)
		}
		return transpileOne(cmd, inputPath, outDir, cfg, opts, quiet)
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		if err := run(); err != nil && !quiet {
			fmt.Fprintln(os.Stderr, err)
		}
		if !quiet {
			fmt.Fprintln(os.Stderr, "watching for changes...")
		}
		return driver.Watch(cmd.Context(), []string{inputPath}, driver.DefaultDebounce, func(changed []string) {
			for _, path := range changed {
				if err := transpileOne(cmd, path, outDir, cfg, opts, quiet); err != nil && !quiet {
					fmt.Fprintln(os.Stderr, err)
				}
			}
		})
	}
	return run()
}

func transpileOne(cmd *cobra.Command, path, outDir string, cfg config.Config, opts driver.Options, quiet bool) error {
	art, err := driver.TranspileFile(cmd.Context(), path, cfg, opts)
	reportDiagnostics(cmd, art, quiet)
	if err != nil {
		cmd.SilenceUsage = true
		printStatus(quiet, false, path, err.Error())
		return err
	}
	written, err := writeArtifact(outDir, art)
	if err != nil {
		return err
	}
	printStatus(quiet, true, path, fmt.Sprintf("-> %s (%d fixups)", written, len(art.Fired)))
	return nil
}

func transpileDirectory(cmd *cobra.Command, dir, outDir string, cfg config.Config, opts driver.Options, jobs int, quiet bool) error {
	uiFlag, _ := cmd.Root().PersistentFlags().GetString("ui")
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", driver.ErrUserInput, err)
	}

	var results []driver.FileResult
	if shouldUseFancyUI(mode) && !quiet {
		results, err = runBatchFancy(cmd.Context(), dir, cfg, opts, jobs)
	} else {
		results, err = driver.TranspileDir(cmd.Context(), dir, cfg, opts, jobs)
	}
	if err != nil {
		return err
	}

	var firstErr error
	for _, r := range results {
		if r.Err != nil {
			printStatus(quiet, false, r.Path, r.Err.Error())
			reportDiagnostics(cmd, r.Artifact, quiet)
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		written, werr := writeArtifact(outDir, r.Artifact)
		if werr != nil {
			if firstErr == nil {
				firstErr = werr
			}
			continue
		}
		printStatus(quiet, true, r.Path, fmt.Sprintf("-> %s (%d fixups)", written, len(r.Artifact.Fired)))
		reportDiagnostics(cmd, r.Artifact, quiet)
	}
	if firstErr != nil {
		cmd.SilenceUsage = true
	}
	return firstErr
}

// writeArtifact writes <module>.rs, <module>.Cargo.toml, and
// <module>.report.txt into outDir and returns the Rust file path.
func writeArtifact(outDir string, art *driver.Artifact) (string, error) {
	rsPath := filepath.Join(outDir, art.ModuleName+".rs")
	files := map[string]string{
		rsPath: art.Rust,
		filepath.Join(outDir, art.ModuleName+".Cargo.toml"): art.Manifest,
		filepath.Join(outDir, art.ModuleName+".report.txt"): art.Report,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil { // #nosec G306 -- generated sources are not secrets
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	return rsPath, nil
}

func reportDiagnostics(cmd *cobra.Command, art *driver.Artifact, quiet bool) {
	if art == nil || art.FileSet == nil || len(art.Diags) == 0 || quiet {
		return
	}
	bag := diag.NewBag(len(art.Diags))
	for _, d := range art.Diags {
		bag.Add(d)
	}
	fmtOpts := diagfmt.Opts{Color: useColor(cmd), Context: true}
	diagfmt.Pretty(os.Stderr, bag, art.FileSet, fmtOpts)
	diagfmt.Summary(os.Stderr, bag, fmtOpts)
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func printStatus(quiet, ok bool, path, detail string) {
	if quiet {
		return
	}
	if ok {
		fmt.Fprintf(os.Stdout, "%s %s %s\n", okColor.Sprint("ok"), path, detail)
		return
	}
	fmt.Fprintf(os.Stdout, "%s %s: %s\n", failColor.Sprint("FAIL"), path, detail)
}
