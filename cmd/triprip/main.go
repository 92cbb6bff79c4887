package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/triprip/browser"
	"github.com/use-agent/triprip/config"
	"github.com/use-agent/triprip/export"
	"github.com/use-agent/triprip/llm"
	"github.com/use-agent/triprip/pipeline"
)

// version is set at build time via -ldflags.
var version = "dev"

var flags struct {
	startPage int
	output    string
	filter    string
	headless  bool
}

var rootCmd = &cobra.Command{
	Use:   "triprip",
	Short: "Export your flight history from TripIt to CSV",
	Long: "Triprip drives a browser through your TripIt trips, extracts flight\n" +
		"segments from each trip page with an LLM, and writes an\n" +
		"OpenFlights-compatible CSV.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.Flags().IntVar(&flags.startPage, "start-page", 0,
		"listing page to start from (resume checkpoint)")
	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "",
		"CSV output path (overwritten each run)")
	rootCmd.Flags().StringVar(&flags.filter, "filter", "",
		`which trips to export: "past" or "upcoming"`)
	rootCmd.Flags().BoolVar(&flags.headless, "headless", false,
		"run the browser headless (only useful with an already-authenticated profile)")
	rootCmd.Version = version
}

func run(cmd *cobra.Command) error {
	cfg := config.Load()
	if flags.startPage > 0 {
		cfg.Trips.StartPage = flags.startPage
	}
	if flags.output != "" {
		cfg.Export.OutputFile = flags.output
	}
	if flags.filter != "" {
		cfg.Trips.Filter = flags.filter
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = flags.headless
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	initLogger(cfg.Log)
	slog.Info("triprip starting",
		"filter", cfg.Trips.Filter,
		"startPage", cfg.Trips.StartPage,
		"output", cfg.Export.OutputFile,
	)

	// An interrupt cancels the walk but still exports what was accumulated.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session, err := browser.NewSession(cfg.Browser, cfg.Trips)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.AwaitLogin(); err != nil {
		return err
	}

	extractor := llm.NewExtractor(llm.NewClient(nil, cfg.LLM), cfg.LLM.MaxContentChars)
	coord := pipeline.New(session, extractor, cfg.Walker, cfg.Trips.StartPage)

	result := coord.Run(ctx)

	if err := export.WriteCSV(cfg.Export.OutputFile, result.Records); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	slog.Info("export written", "file", cfg.Export.OutputFile, "records", len(result.Records))

	export.RenderSummary(os.Stdout, result)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
