package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/presage-dev/presage/internal/output"
	"github.com/presage-dev/presage/internal/service/analysis"
	"github.com/presage-dev/presage/pkg/models"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Analysis cache management commands",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Show cache statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path]",
	Short: "Remove the entire cache",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune [path]",
	Short: "Remove cache entries older than the retention age",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCachePrune,
}

func init() {
	cacheStatsCmd.Flags().StringP("format", "f", "", "Output format: text, json, markdown, yaml, toon")
	cachePruneCmd.Flags().Int("max-age-days", 0, "Retention age in days (0 = use config)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func cacheService(args []string) (*analysis.Service, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	return analysis.New(analysis.WithConfig(cfg)), path, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	svc, path, err := cacheService(args)
	if err != nil {
		return err
	}

	store, err := svc.OpenStore(path)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = svc.Config().Output.Format
	}
	formatter, err := output.NewFormatter(output.ParseFormat(format), "", svc.Config().Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(&output.CacheStatsView{
		Stats: models.CacheStats(store.GetStats()),
		Dir:   svc.CacheDir(path),
	})
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	svc, path, err := cacheService(args)
	if err != nil {
		return err
	}

	store, err := svc.OpenStore(path)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}

	color.Green("Cache cleared: %s", svc.CacheDir(path))
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	svc, path, err := cacheService(args)
	if err != nil {
		return err
	}

	maxAge, _ := cmd.Flags().GetInt("max-age-days")
	if maxAge == 0 {
		maxAge = svc.Config().Cache.MaxAgeDays
	}

	store, err := svc.OpenStore(path)
	if err != nil {
		return err
	}

	removed, err := store.Prune(maxAge)
	if err != nil {
		return err
	}

	color.Green("Pruned %d entries older than %d days", removed, maxAge)
	return nil
}
