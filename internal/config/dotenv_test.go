package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv_NotExist(t *testing.T) {
	m, err := LoadDotEnv(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	root := t.TempDir()
	body := "# comment\nA=1\nB=two\nexport C=\"three\"\nD='x=y'\nnoequals\n"
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadDotEnv(root)
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if m["A"] != "1" || m["B"] != "two" || m["C"] != "three" || m["D"] != "x=y" {
		t.Fatalf("unexpected map: %v", m)
	}
	if _, ok := m["noequals"]; ok {
		t.Fatalf("line without '=' must be ignored: %v", m)
	}
}

func TestGetConfigValue_EnvOverridesDotEnv(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("K=fromdotenv\nONLY=dot\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("K", "fromenv")

	v, err := GetConfigValue(root, "K")
	if err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if v != "fromenv" {
		t.Fatalf("expected env override, got %q", v)
	}

	env, err := LoadEnv(root)
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := env.Get("ONLY"); got != "dot" {
		t.Fatalf("expected dotenv fallback, got %q", got)
	}
	if got := env.GetOr("MISSING_ADR_TEST_KEY", "def"); got != "def" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestEnsureDotEnvTemplate_DoesNotOverwrite(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, ".env")
	if err := os.WriteFile(p, []byte("PROVIDER=keep\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	created, err := EnsureDotEnvTemplate(root)
	if err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	if created {
		t.Fatalf("expected existing file to be kept")
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "PROVIDER=keep\n" {
		t.Fatalf("template overwrote existing file: %q", string(b))
	}
}

func TestEnsureDotEnvTemplate_CreatesWhenMissing(t *testing.T) {
	root := t.TempDir()
	created, err := EnsureDotEnvTemplate(root)
	if err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	if !created {
		t.Fatalf("expected template to be created")
	}
	m, err := LoadDotEnv(root)
	if err != nil {
		t.Fatal(err)
	}
	if m["PROVIDER"] != "openai" {
		t.Fatalf("unexpected template contents: %v", m)
	}
}
