package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/adr-cli/internal/config"
	"github.com/kamusis/adr-cli/internal/indexer"
	"github.com/kamusis/adr-cli/internal/llm"
	"github.com/kamusis/adr-cli/internal/vecstore"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight checks on config, provider and index",
	Long: `Check that adr.yaml, the provider settings, the MADR template and the index
snapshot are usable, and whether the index still matches the corpus.
Run this command when something seems wrong.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("adr doctor")
	fmt.Fprintln(stdout)

	root, err := projectRoot()
	if err != nil {
		return err
	}

	// ── Check 1: adr.yaml ────────────────────────────────────────────────────
	printGroup(config.FileName)
	cfg, loadErr := config.Load(root)
	if loadErr != nil {
		failD("%v", loadErr)
	} else if _, err := os.Stat(config.ConfigPath(root)); errors.Is(err, fs.ErrNotExist) {
		printWarn("", "not found, using defaults (run 'adr init')")
	} else {
		printOK("", fmt.Sprintf("valid, %d corpus pattern(s)", len(cfg.Corpus)))
	}
	fmt.Fprintln(stdout)

	// ── Check 2: provider settings ───────────────────────────────────────────
	printGroup("provider")
	if env, err := config.LoadEnv(root); err != nil {
		failD("cannot read .env: %v", err)
	} else if pcfg, err := llm.LoadConfig(env); err != nil {
		failD("%v", err)
	} else if err := pcfg.Validate(); err != nil {
		failD("%v", err)
	} else {
		printOK("", fmt.Sprintf("%s configured", pcfg.Provider))
	}
	fmt.Fprintln(stdout)

	if loadErr != nil {
		printSkip("", "template, index and freshness skipped (config not loaded)")
		return fmt.Errorf("doctor found problems")
	}

	// ── Check 3: template ────────────────────────────────────────────────────
	printGroup("template")
	if _, err := os.Stat(cfg.Resolve(cfg.TemplatePath)); err != nil {
		printWarn("", fmt.Sprintf("%s not found, the built-in template will be used", cfg.TemplatePath))
	} else {
		printOK("", cfg.TemplatePath)
	}
	fmt.Fprintln(stdout)

	// ── Check 4: snapshot ────────────────────────────────────────────────────
	printGroup("index")
	store := openStore(cfg, "")
	snap, snapErr := store.Load(contextOrBackground(cmd.Context()))
	switch {
	case errors.Is(snapErr, vecstore.ErrDimensionMismatch):
		failD("%v (rebuild with 'adr index')", snapErr)
	case snapErr != nil:
		failD("%v", snapErr)
	case snap.Len() == 0:
		printWarn("", fmt.Sprintf("%s is missing or empty", store.Location()))
	default:
		printOK("", fmt.Sprintf("%d documents, dim %d, model %s, built %s",
			snap.Len(), snap.Dim(), emptyAsNA(snap.Model), snap.CreatedAt.Format("2006-01-02 15:04")))
	}
	fmt.Fprintln(stdout)

	// ── Check 5: freshness ───────────────────────────────────────────────────
	printGroup("freshness")
	if snapErr != nil {
		printSkip("", "skipped (index not loaded)")
	} else if drift, err := indexer.CheckFreshness(snap, cfg.Root, cfg.Corpus); err != nil {
		failD("cannot scan corpus: %v", err)
	} else if drift.Stale() {
		printDrift(drift)
		printWarn("", "index is stale; run 'adr index'")
	} else {
		printOK("", "index matches the corpus")
	}
	fmt.Fprintln(stdout)

	if !allOK {
		return fmt.Errorf("doctor found problems")
	}
	printOK("", "all checks passed")
	return nil
}

