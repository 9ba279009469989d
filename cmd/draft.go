package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/adr-cli/internal/draft"
)

var (
	flagDraftTitle       string
	flagDraftOptions     string
	flagDraftDrivers     string
	flagDraftConstraints string
	flagDraftContext     string
	flagDraftDryRun      bool
	flagDraftK           int
	flagDraftMinScore    float64
)

const draftTimeout = 5 * time.Minute

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft a new decision record, citing related existing documents",
	Long: `Look up indexed documents related to the decision, ask the language model for
a MADR body and write the result as the next numbered record in adr_dir.

If the related-document lookup fails the draft is aborted.`,
	Example: `  adr draft --title "Use Kafka for domain events" --options "Kafka,NATS,SQS" \
    --drivers "throughput,operability" --context "Order service emits ~2k events/s"`,
	Args: cobra.NoArgs,
	RunE: runDraft,
}

func init() {
	f := draftCmd.Flags()
	f.StringVar(&flagDraftTitle, "title", "", "Decision title")
	f.StringVar(&flagDraftOptions, "options", "", "Comma-separated considered options")
	f.StringVar(&flagDraftDrivers, "drivers", "", "Comma-separated decision drivers")
	f.StringVar(&flagDraftConstraints, "constraints", "", "Constraints to respect")
	f.StringVar(&flagDraftContext, "context", "", "Problem context")
	f.BoolVar(&flagDraftDryRun, "dry-run", false, "Print the draft instead of writing it")
	f.IntVar(&flagDraftK, "k", 0, "Related documents to cite (default: retrieval.top_k)")
	f.Float64Var(&flagDraftMinScore, "min-score", 0, "Similarity threshold (default: retrieval.min_score)")
	_ = draftCmd.MarkFlagRequired("title")
	_ = draftCmd.MarkFlagRequired("options")
	rootCmd.AddCommand(draftCmd)
}

func runDraft(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer flushMetrics(cfg)

	req := draft.Request{
		Title:       flagDraftTitle,
		Options:     draft.SplitList(flagDraftOptions),
		Drivers:     draft.SplitList(flagDraftDrivers),
		Constraints: flagDraftConstraints,
		Context:     flagDraftContext,
	}
	if err := req.Validate(); err != nil {
		return err
	}
	topK, minScore := retrievalKnobs(cmd, cfg, flagDraftK, flagDraftMinScore)

	ctx, cancel := context.WithTimeout(contextOf(cmd), draftTimeout)
	defer cancel()

	tmpl, err := os.ReadFile(cfg.Resolve(cfg.TemplatePath))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot read template: %w", err)
		}
		printWarn("", fmt.Sprintf("template %s not found; using the built-in MADR template", cfg.TemplatePath))
	}

	snap, err := openStore(cfg, "").Load(ctx)
	if err != nil {
		return err
	}
	if snap.Len() == 0 {
		printWarn("", "index is empty; drafting without related documents")
	}

	prov, err := newProvider(ctx, cfg.Root)
	if err != nil {
		return err
	}
	res, err := draft.Compose(ctx, prov, snap, req, draft.Options{
		TopK:     topK,
		MinScore: minScore,
		Template: string(tmpl),
		Dir:      cfg.Resolve(cfg.ADRDir),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if flagDraftDryRun {
		fmt.Fprint(stdout, res.Content)
		return nil
	}
	if err := res.Write(); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("ADR drafted: %s (%d related)", res.Path, len(res.Related)))
	return nil
}
