package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/logscope/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logscope: %v\n", err)
		return 1
	}
	return 0
}

type globalFlags struct {
	configPath string
	prefsPath  string
	chunkSize  int
	maxBytes   int
	encoding   string
	json       bool
}

func (g *globalFlags) options(path string) app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		Path:       path,
		ChunkSize:  g.chunkSize,
		MaxBytes:   g.maxBytes,
		Encoding:   g.encoding,
	}
}

func (g *globalFlags) output(cmd *cobra.Command) app.Output {
	return app.Output{W: cmd.OutOrStdout(), JSON: g.json}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "logscope [FILE]",
		Short:         "Index and search multi-gigabyte logs",
		Long:          "logscope streams a log (plain, gzip or zstd) into a line index and opens an interactive viewer. Subcommands answer the same queries without a terminal.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options(args[0]))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/logscope/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "viewer preferences file (default ~/.config/logscope/prefs.toml)")
	pf.IntVar(&flags.chunkSize, "chunk-size", 0, "bytes read per load step (overrides config)")
	pf.IntVar(&flags.maxBytes, "max-bytes", 0, "buffer ceiling in bytes (overrides config)")
	pf.StringVar(&flags.encoding, "encoding", "", "text encoding label, e.g. utf-8 or latin1 (overrides config)")
	pf.BoolVar(&flags.json, "json", false, "print headless results as JSON")

	root.AddCommand(
		newViewCmd(flags),
		newCountCmd(flags),
		newLinesCmd(flags),
		newSearchCmd(flags),
		newTailCmd(flags),
	)
	return root
}

func newViewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "view FILE",
		Short: "Open FILE in the interactive viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options(args[0]))
		},
	}
}

func newCountCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "count FILE",
		Short: "Print the number of lines in FILE (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Count(cmd.Context(), flags.options(args[0]), flags.output(cmd))
		},
	}
}

func newLinesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lines FILE START END",
		Short: "Print lines [START, END) of FILE, counting from zero",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid START %q: %w", args[1], err)
			}
			end, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid END %q: %w", args[2], err)
			}
			return app.Lines(cmd.Context(), flags.options(args[0]), flags.output(cmd), start, end)
		},
	}
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var (
		ignoreCase bool
		withText   bool
	)
	cmd := &cobra.Command{
		Use:   "search FILE NEEDLE",
		Short: "Print the zero-based numbers of lines containing NEEDLE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Search(cmd.Context(), flags.options(args[0]), flags.output(cmd), args[1], ignoreCase, withText)
		},
	}
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "match ASCII letters regardless of case")
	cmd.Flags().BoolVar(&withText, "lines", false, "print each matching line after its number")
	return cmd
}

func newTailCmd(flags *globalFlags) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail FILE",
		Short: "Print the last lines of FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Tail(cmd.Context(), flags.options(args[0]), flags.output(cmd), n)
		},
	}
	cmd.Flags().IntVarP(&n, "lines", "n", 10, "number of lines")
	return cmd
}
