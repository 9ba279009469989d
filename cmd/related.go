package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/adr-cli/internal/config"
	"github.com/kamusis/adr-cli/internal/retrieval"
	"github.com/kamusis/adr-cli/internal/vecstore"
)

var (
	flagRelatedK        int
	flagRelatedMinScore float64
	flagRelatedJSON     bool
	flagRelatedIndex    string
)

const queryTimeout = 30 * time.Second

var relatedCmd = &cobra.Command{
	Use:   "related <query>",
	Short: "List indexed documents most similar to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRelated,
}

func init() {
	relatedCmd.Flags().IntVar(&flagRelatedK, "k", 0, "Number of results (default: retrieval.top_k)")
	relatedCmd.Flags().Float64Var(&flagRelatedMinScore, "min-score", 0, "Drop results scoring at or below this (default: retrieval.min_score)")
	relatedCmd.Flags().BoolVar(&flagRelatedJSON, "json", false, "Print results as JSON")
	relatedCmd.Flags().StringVar(&flagRelatedIndex, "index", "", "Snapshot path (default: index_path from adr.yaml)")
	rootCmd.AddCommand(relatedCmd)
}

// retrievalKnobs returns the configured top-k and threshold, overridden by flags the user set.
func retrievalKnobs(cmd *cobra.Command, cfg *config.Config, k int, minScore float64) (int, float64) {
	topK, threshold := cfg.Retrieval.TopK, cfg.Retrieval.MinScore
	if cmd.Flags().Changed("k") {
		topK = k
	}
	if cmd.Flags().Changed("min-score") {
		threshold = minScore
	}
	return topK, threshold
}

func runRelated(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer flushMetrics(cfg)

	query := strings.Join(args, " ")
	topK, minScore := retrievalKnobs(cmd, cfg, flagRelatedK, flagRelatedMinScore)

	ctx, cancel := context.WithTimeout(contextOf(cmd), queryTimeout)
	defer cancel()

	store := openStore(cfg, flagRelatedIndex)
	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}

	results := []vecstore.Result{}
	if snap.Len() > 0 {
		prov, err := newProvider(ctx, cfg.Root)
		if err != nil {
			return err
		}
		results, err = retrieval.FindRelated(ctx, prov, snap, query, topK, minScore)
		if err != nil {
			return err
		}
	} else if !flagRelatedJSON {
		printWarn("", fmt.Sprintf("index %s is empty; run 'adr index'", store.Location()))
	}

	if flagRelatedJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printRelated(query, results)
	return nil
}

func printRelated(query string, results []vecstore.Result) {
	fmt.Fprintf(stdout, "\nadr related %q\n\n", query)
	fmt.Fprintf(stdout, "Results (%d found):\n", len(results))
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for i, r := range results {
		fmt.Fprintf(w, "  %d.\t[%.3f]\t%s\n", i+1, r.Score, r.Path)
	}
	_ = w.Flush()
}
