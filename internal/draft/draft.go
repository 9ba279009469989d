// Package draft turns a decision request into a MADR document: it looks up
// related prior decisions, asks the generator for the body and fills the
// project template.
package draft

import (
	_ "embed"
	"fmt"
	"strings"
	"time"
)

//go:embed templates/madr.md
var DefaultTemplate string

// Request describes the decision being drafted.
type Request struct {
	Title       string
	Options     []string
	Drivers     []string
	Constraints string
	Context     string
}

// Validate checks the fields every draft needs.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Options) == 0 {
		return fmt.Errorf("at least one option is required")
	}
	return nil
}

// SplitList splits a comma separated flag value, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// QueryText is the text embedded to find related documents.
func (r Request) QueryText() string {
	return strings.Join([]string{r.Title, r.Context, r.Constraints, strings.Join(r.Options, " ")}, " ")
}

const noEvidence = "- (no index yet or nothing similar)"

// Prompt builds the generation prompt. evidence is the rendered related-document list.
func (r Request) Prompt(evidence string) string {
	drivers := strings.Join(r.Drivers, ", ")
	if drivers == "" {
		drivers = "N/A"
	}
	if evidence == "" {
		evidence = noEvidence
	}

	var b strings.Builder
	b.WriteString("You are drafting a high-quality Architecture Decision Record (ADR) using the MADR style.\n")
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Context: %s\n", r.Context)
	fmt.Fprintf(&b, "Constraints: %s\n", r.Constraints)
	fmt.Fprintf(&b, "Decision drivers (quality attributes): %s\n", drivers)
	fmt.Fprintf(&b, "Considered options: %s\n", strings.Join(r.Options, ", "))
	b.WriteString("\nReturn a completed ADR body with: context, options, chosen option with rationale, pros/cons, consequences.\n")
	b.WriteString("Use neutral, evidence-based language, avoid hallucinations, and clearly call out assumptions/estimates.\n")
	b.WriteString("If conflicts are likely with existing ADRs, warn explicitly.\n")
	b.WriteString("\nSimilar existing docs:\n")
	b.WriteString(evidence)
	b.WriteString("\n")
	return b.String()
}

// Render fills tmpl with the request, the generated body and the evidence list.
// Each placeholder is replaced at its first occurrence only.
func (r Request) Render(tmpl, body, evidence string, date time.Time) string {
	or := func(s, def string) string {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	}
	options := make([]string, len(r.Options))
	for i, o := range r.Options {
		options[i] = "- " + o
	}

	replacements := []struct{ key, val string }{
		{"{title}", r.Title},
		{"{status}", "Proposed"},
		{"{date}", date.Format(time.DateOnly)},
		{"{drivers}", or(strings.Join(r.Drivers, ", "), "—")},
		{"{context}", or(r.Context, "(fill in any additional constraints/assumptions)")},
		{"{options}", strings.Join(options, "\n")},
		{"{chosen}", "(to be confirmed)"},
		{"{rationale}", "(summarize once approved)"},
		{"{pros}", "(enumerate)"},
		{"{cons}", "(enumerate)"},
		{"{options_pros_cons}", strings.TrimSpace(body)},
		{"{related}", or(evidence, "—")},
		{"{c4_refs}", "(e.g., Container: api, Component: event-bus)"},
	}
	out := tmpl
	for _, rep := range replacements {
		out = strings.Replace(out, rep.key, rep.val, 1)
	}
	return out
}
