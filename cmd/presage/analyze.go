package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/presage-dev/presage/internal/output"
	"github.com/presage-dev/presage/internal/progress"
	"github.com/presage-dev/presage/internal/service/analysis"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze [path]",
	Aliases: []string{"a"},
	Short:   "Analyze the change set between two refs for risk",
	Long: `Builds the change set between --base and --head, runs the enabled
analyzers, and reports findings and aggregated risk flags. With --stdin
a raw unified diff is read from standard input instead of the
repository.

Examples:
  presage analyze                       # HEAD~1..HEAD in the current repo
  presage analyze --base main           # main..HEAD
  git diff main | presage analyze --stdin
  presage analyze -f json -o report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("base", "HEAD~1", "Base ref to compare from")
	analyzeCmd.Flags().String("head", "HEAD", "Head ref to compare to")
	analyzeCmd.Flags().Bool("stdin", false, "Read a unified diff from stdin instead of the repository")
	analyzeCmd.Flags().StringP("format", "f", "", "Output format: text, json, markdown, yaml, toon")
	analyzeCmd.Flags().StringP("output", "o", "", "Write output to file")
	analyzeCmd.Flags().Bool("no-cache", false, "Disable caching for this run")
	analyzeCmd.Flags().Int("top", 0, "Limit flags shown in text/markdown output (0 = all)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	base, _ := cmd.Flags().GetString("base")
	head, _ := cmd.Flags().GetString("head")
	fromStdin, _ := cmd.Flags().GetBool("stdin")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	top, _ := cmd.Flags().GetInt("top")

	var diffText string
	if fromStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading diff from stdin: %w", err)
		}
		if len(data) == 0 {
			return fmt.Errorf("--stdin given but stdin is empty")
		}
		diffText = string(data)
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Output.Format
	}
	outputFile, _ := cmd.Flags().GetString("output")

	formatter, err := output.NewFormatter(output.ParseFormat(format), outputFile, cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	svc := analysis.New(analysis.WithConfig(cfg))

	var tracker *progress.Tracker
	if formatter.Format() == output.FormatText && outputFile == "" {
		tracker = progress.NewTracker("Analyzing change set...", svc.AnalyzerCount())
	}

	startTime := time.Now()
	report, err := svc.AnalyzeChangeSet(cmd.Context(), analysis.RunOptions{
		Path:       path,
		Base:       base,
		Head:       head,
		DiffText:   diffText,
		NoCache:    noCache,
		OnProgress: tracker.Tick,
	})
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.FinishSuccess()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Analysis completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	}

	return formatter.Output(output.NewAnalysisView(report, top))
}
