package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"strbuf/internal/strbuf"
	"strbuf/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "strbuf",
	Short: "Managed character buffers from the command line",
	Long: `strbuf runs string buffer operations (trim, case, search, compare, bounded import,
views, concatenation, formatted print) on text given as arguments, files or stdin.
Failures report the numeric result code of the operation.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: openSession,
}

// main registers commands and global flags and runs the root command.
// Failures exit with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(upperCmd)
	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(cmpCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(printfCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to strbuf.toml (default: search upwards from the working directory)")
	flags.Int("chunk", 0, "allocation granularity in elements (overrides [heap].chunk)")
	flags.Int("max-length", 0, "longest string length allowed (overrides [heap].max_length)")
	flags.String("allocator", "", "storage allocator: go|mmap (overrides [heap].allocator)")
	flags.Int("max-bytes", 0, "cap on outstanding storage bytes, 0 for none (overrides [heap].max_bytes)")
	flags.Int("fail-after", -1, "let N allocations succeed, then fail every later one")
	flags.String("trace", "", "trace output file (- or stderr for stderr)")
	flags.String("trace-level", "", "trace level: off|error|op|heap (overrides [trace].level)")
	flags.String("trace-mode", "", "trace storage: stream|ring|both (overrides [trace].mode)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("timings", false, "show timing information")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")

	err := rootCmd.Execute()
	if cerr := closeSession(rootCmd, err); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError appends the result code to errors raised by string operations.
func formatError(err error) string {
	var serr *strbuf.Error
	if errors.As(err, &serr) {
		return fmt.Sprintf("%v [code %d]", err, int(serr.Code))
	}
	return fmt.Sprintf("strbuf: %v", err)
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
