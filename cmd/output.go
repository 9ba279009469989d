package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions so icons and indentation stay consistent.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   ○  skipped / not applicable
//   ~  neutral info / state change

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleSection = lipgloss.NewStyle().Bold(true)

	colorOn = true
)

func setColor(on bool) {
	colorOn = on
}

func paint(s lipgloss.Style, text string) string {
	if !colorOn {
		return text
	}
	return s.Render(text)
}

// printSection prints a top-level section header, e.g. "=== adr doctor ===".
func printSection(title string) {
	fmt.Fprintf(stdout, "\n%s\n", paint(styleSection, "=== "+title+" ==="))
}

// printGroup prints a check group label, e.g. "[ snapshot ]".
func printGroup(title string) {
	fmt.Fprintf(stdout, "[ %s ]\n", title)
}

func printLine(w io.Writer, icon, name, msg string) {
	if name == "" {
		fmt.Fprintf(w, "  %s  %s\n", icon, msg)
	} else {
		fmt.Fprintf(w, "  %s  [%s] %s\n", icon, name, msg)
	}
}

// printOK prints a success line.
//   name = "" → "  ✓  msg"
//   name set  → "  ✓  [name] msg"
func printOK(name, msg string) {
	printLine(stdout, paint(styleOK, "✓"), name, msg)
}

// printErr prints an error line to stderr.
func printErr(name, msg string) {
	printLine(stderr, paint(styleErr, "✗"), name, msg)
}

func printWarn(name, msg string) {
	printLine(stdout, paint(styleWarn, "⚠"), name, msg)
}

func printSkip(name, msg string) {
	printLine(stdout, paint(styleMuted, "○"), name, msg)
}

// printInfo prints a neutral informational / state-change line.
func printInfo(name, msg string) {
	printLine(stdout, paint(styleMuted, "~"), name, msg)
}
