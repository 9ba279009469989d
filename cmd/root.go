package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/adr-cli/internal/config"
	"github.com/kamusis/adr-cli/internal/llm"
	"github.com/kamusis/adr-cli/internal/metrics"
	"github.com/kamusis/adr-cli/internal/snapshot"
)

var (
	flagRoot    string
	flagVerbose bool
	flagNoColor bool
)

// logger carries diagnostics to stderr; user-facing output goes through the print helpers.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var rootCmd = &cobra.Command{
	Use:          "adr",
	Short:        "adr: draft Architecture Decision Records grounded in your existing docs",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `adr indexes the project's decision records and docs as embeddings and uses
them to find prior art when drafting a new MADR-style decision record.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
		setColor(!flagNoColor && os.Getenv("NO_COLOR") == "")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log diagnostics to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable styled output")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// projectRoot returns --root, or the working directory.
func projectRoot() (string, error) {
	if flagRoot != "" {
		return config.ExpandPath(flagRoot)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine working directory: %w", err)
	}
	return wd, nil
}

func loadConfig() (*config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'adr init' first.", err)
	}
	return cfg, nil
}

// openStore returns the snapshot store at override, or at the configured index path.
func openStore(cfg *config.Config, override string) snapshot.Store {
	p := cfg.IndexPath
	if override != "" {
		p = override
	}
	return snapshot.Open(cfg.Resolve(p))
}

// newProvider builds the configured collaborator. Tests replace it.
var newProvider = func(ctx context.Context, root string) (llm.Provider, error) {
	env, err := config.LoadEnv(root)
	if err != nil {
		return nil, err
	}
	pcfg, err := llm.LoadConfig(env)
	if err != nil {
		return nil, err
	}
	return llm.NewFromConfig(ctx, pcfg)
}

// flushMetrics writes the metrics textfile when one is configured.
func flushMetrics(cfg *config.Config) {
	if cfg == nil || cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.Resolve(cfg.MetricsFile)); err != nil {
		printWarn("", fmt.Sprintf("metrics not written: %v", err))
	}
}
