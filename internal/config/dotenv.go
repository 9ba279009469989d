package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DotEnvPath returns the absolute path to the project's dotenv file (root/.env).
func DotEnvPath(root string) string {
	return filepath.Join(root, ".env")
}

// LoadDotEnv reads root/.env and returns key/value pairs.
//
// Parsing rules:
// - Lines starting with '#' are ignored.
// - Empty lines are ignored.
// - Lines must be of form KEY=VALUE, optionally prefixed with "export ".
// - Whitespace around KEY is trimmed.
// - VALUE loses one pair of matching surrounding quotes, nothing else.
func LoadDotEnv(root string) (map[string]string, error) {
	p := DotEnvPath(root)

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("cannot open dotenv file %s: %w", p, err)
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		k := strings.TrimSpace(line[:i])
		if k == "" {
			continue
		}
		out[k] = unquote(line[i+1:])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", p, err)
	}
	return out, nil
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// Env resolves configuration values from the process environment first and
// root/.env second. The dotenv file is read once.
type Env struct {
	dotenv map[string]string
}

// LoadEnv reads root/.env for later lookups.
func LoadEnv(root string) (*Env, error) {
	m, err := LoadDotEnv(root)
	if err != nil {
		return nil, err
	}
	return &Env{dotenv: m}, nil
}

// Get returns the effective value for key, or "" when unset.
func (e *Env) Get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if e == nil {
		return ""
	}
	return e.dotenv[key]
}

// GetOr returns the effective value for key, or def when unset.
func (e *Env) GetOr(key, def string) string {
	if v := e.Get(key); v != "" {
		return v
	}
	return def
}

// GetConfigValue returns the effective value for key, using process environment variables
// first and falling back to root/.env.
func GetConfigValue(root, key string) (string, error) {
	env, err := LoadEnv(root)
	if err != nil {
		return "", err
	}
	return env.Get(key), nil
}

// EnsureDotEnvTemplate creates root/.env if it does not already exist.
//
// The template lists the provider keys with empty values so users can fill
// them in.
func EnsureDotEnvTemplate(root string) (bool, error) {
	p := DotEnvPath(root)

	if _, err := os.Stat(p); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	body := "" +
		"# openai | bedrock\n" +
		"PROVIDER=openai\n" +
		"OPENAI_API_KEY=\n" +
		"OPENAI_MODEL=\n" +
		"OPENAI_EMBED_MODEL=\n" +
		"OPENAI_BASE_URL=\n" +
		"BEDROCK_REGION=\n" +
		"BEDROCK_MODEL_ID=\n" +
		"BEDROCK_EMBEDDING_MODEL=\n"

	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return false, fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return true, nil
}
