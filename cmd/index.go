package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/adr-cli/internal/config"
	"github.com/kamusis/adr-cli/internal/corpus"
	"github.com/kamusis/adr-cli/internal/indexer"
	"github.com/kamusis/adr-cli/internal/llm"
	"github.com/kamusis/adr-cli/internal/snapshot"
)

var (
	flagIndexPath  string
	flagIndexWatch bool
	flagIndexCheck bool
)

const (
	indexTimeout  = 10 * time.Minute
	watchDebounce = 500 * time.Millisecond
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the document corpus and write the index snapshot",
	Long: `Discover every document matching the corpus patterns, embed them with a
single batched call and atomically replace the index snapshot.

A failed build leaves the previous snapshot in place.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagIndexPath, "index", "", "Snapshot path (default: index_path from adr.yaml)")
	indexCmd.Flags().BoolVar(&flagIndexWatch, "watch", false, "Rebuild whenever the corpus changes")
	indexCmd.Flags().BoolVar(&flagIndexCheck, "check", false, "Report whether the snapshot is stale without rebuilding")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer flushMetrics(cfg)
	store := openStore(cfg, flagIndexPath)

	if flagIndexCheck {
		return runIndexCheck(cmd.Context(), cfg, store)
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prov, err := newProvider(ctx, cfg.Root)
	if err != nil {
		return err
	}
	opts := indexer.Options{
		Root:      cfg.Root,
		Patterns:  cfg.Corpus,
		Normalize: cfg.Normalize,
		Logger:    logger,
		OnBlank: func(path string) {
			printWarn("skipped", path+" is blank and was not indexed")
		},
	}

	if err := buildOnce(ctx, prov, store, opts); err != nil {
		if !flagIndexWatch {
			return err
		}
		printErr("", err.Error())
	}
	if !flagIndexWatch {
		return nil
	}

	dirs := corpus.BaseDirs(cfg.Root, cfg.Corpus)
	printInfo("", fmt.Sprintf("watching %s (Ctrl-C to stop)", strings.Join(dirs, ", ")))
	return indexer.Watch(ctx, dirs, watchDebounce, func(ctx context.Context) error {
		err := buildOnce(ctx, prov, store, opts)
		flushMetrics(cfg)
		return err
	}, logger)
}

func buildOnce(ctx context.Context, prov llm.Embedder, store snapshot.Store, opts indexer.Options) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	printInfo("", fmt.Sprintf("building index using %s", prov.ModelID()))
	snap, err := indexer.Build(ctx, prov, store, opts)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	if snap.Len() == 0 {
		printWarn("", fmt.Sprintf("no documents match %s; wrote an empty index", strings.Join(opts.Patterns, ", ")))
		return nil
	}
	printOK("", fmt.Sprintf("indexed %d documents (dim %d) → %s", snap.Len(), snap.Dim(), store.Location()))
	return nil
}

func runIndexCheck(ctx context.Context, cfg *config.Config, store snapshot.Store) error {
	snap, err := store.Load(contextOrBackground(ctx))
	if err != nil {
		return err
	}
	drift, err := indexer.CheckFreshness(snap, cfg.Root, cfg.Corpus)
	if err != nil {
		return err
	}
	if !drift.Stale() {
		printOK("", fmt.Sprintf("index is up to date (%d documents)", snap.Len()))
		return nil
	}
	printDrift(drift)
	return fmt.Errorf("index is stale; run 'adr index'")
}

func printDrift(d indexer.Drift) {
	for _, p := range d.Added {
		printWarn("added", p)
	}
	for _, p := range d.Changed {
		printWarn("changed", p)
	}
	for _, p := range d.Removed {
		printWarn("removed", p)
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	return contextOrBackground(cmd.Context())
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
