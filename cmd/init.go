package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/adr-cli/internal/config"
	"github.com/kamusis/adr-cli/internal/draft"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up adr in the project root",
	Long: `Create adr.yaml, a .env template for provider credentials and the default
MADR template. Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", root, err)
	}

	// ── 1. adr.yaml ───────────────────────────────────────────────────────────
	cfgPath := config.ConfigPath(root)
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("config exists: %s", cfgPath))
	}

	// ── 2. .env template ──────────────────────────────────────────────────────
	created, err := config.EnsureDotEnvTemplate(root)
	if err != nil {
		return err
	}
	if created {
		printOK("", fmt.Sprintf("provider settings template written: %s", config.DotEnvPath(root)))
	} else {
		printSkip("", fmt.Sprintf(".env exists: %s", config.DotEnvPath(root)))
	}

	// ── 3. MADR template ──────────────────────────────────────────────────────
	tmplPath := cfg.Resolve(cfg.TemplatePath)
	if _, err := os.Stat(tmplPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(tmplPath), 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", filepath.Dir(tmplPath), err)
		}
		if err := os.WriteFile(tmplPath, []byte(draft.DefaultTemplate), 0o644); err != nil {
			return fmt.Errorf("cannot write template %s: %w", tmplPath, err)
		}
		printOK("", fmt.Sprintf("template written: %s", tmplPath))
	} else {
		printSkip("", fmt.Sprintf("template exists: %s", tmplPath))
	}

	// ── 4. decision record directory ─────────────────────────────────────────
	if err := os.MkdirAll(cfg.Resolve(cfg.ADRDir), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", cfg.ADRDir, err)
	}

	fmt.Fprintln(stdout)
	printInfo("", "next: fill in .env, then run 'adr index'")
	return nil
}
