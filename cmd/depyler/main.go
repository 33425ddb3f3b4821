package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"depyler/internal/driver"
	"depyler/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "depyler",
	Short: "Python to Rust transpiler",
	Long:  `Depyler translates a typed subset of Python into idiomatic Rust plus a Cargo manifest`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(transpileCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(hirCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show per-phase timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("ui", "auto", "batch progress rendering (auto|plain|fancy)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(driver.ExitCode(err))
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the terminal.
func useColor(cmd *cobra.Command) bool {
	flag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	return flag == "on" || (flag == "auto" && isTerminal(os.Stdout))
}
