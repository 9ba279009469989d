package draft

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var numberPrefix = regexp.MustCompile(`^(\d+)-`)

// NextNumber returns the next ADR number in dir, zero padded to three digits.
// A missing dir starts at 001.
func NextNumber(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("cannot list %s: %w", dir, err)
	}
	highest := 0
	for _, e := range entries {
		m := numberPrefix.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%03d", highest+1), nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a file name fragment: accents stripped, lowercased,
// runs of anything outside [a-z0-9] collapsed to a single dash.
func Slug(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, title)
	if err != nil {
		s = title
	}
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// FileName returns the path of the next ADR for title inside dir.
func FileName(dir, title string) (string, error) {
	n, err := NextNumber(dir)
	if err != nil {
		return "", err
	}
	slug := Slug(title)
	if slug == "" {
		slug = "untitled"
	}
	return filepath.Join(dir, n+"-"+slug+".md"), nil
}
