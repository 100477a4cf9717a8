// Package cli renders command output for the terminal with lipgloss.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	brick = lipgloss.Color("#C8553D")
	sage  = lipgloss.Color("#588B8B")
	amber = lipgloss.Color("#F2A65A")
	rust  = lipgloss.Color("#D1495B")
	steel = lipgloss.Color("#8D99AE")
	slate = lipgloss.Color("#5C6370")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(brick).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(steel)
	mutedStyle  = lipgloss.NewStyle().Foreground(slate)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(slate).
			Padding(1, 2)

	// Rising costs are bad news, falling costs good news.
	riseStyle = lipgloss.NewStyle().Foreground(rust)
	fallStyle = lipgloss.NewStyle().Foreground(sage)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	FactoryIcon = "🏭"
	ChartIcon   = "📊"
)

type notice struct {
	style lipgloss.Style
	icon  string
}

var (
	successNotice = notice{icon: SuccessIcon, style: lipgloss.NewStyle().Foreground(sage)}
	errorNotice   = notice{icon: ErrorIcon, style: lipgloss.NewStyle().Foreground(rust).Bold(true)}
	warningNotice = notice{icon: WarningIcon, style: lipgloss.NewStyle().Foreground(amber)}
	infoNotice    = notice{icon: InfoIcon, style: lipgloss.NewStyle().Foreground(steel)}
)

func (n notice) render(message string) string {
	return n.style.Render(n.icon + " " + message)
}

// FormatSuccess marks a completed action.
func FormatSuccess(message string) string { return successNotice.render(message) }

// FormatError marks a failed command.
func FormatError(message string) string { return errorNotice.render(message) }

// FormatWarning marks something the user should double check.
func FormatWarning(message string) string { return warningNotice.render(message) }

// FormatInfo marks a neutral note.
func FormatInfo(message string) string { return infoNotice.render(message) }

// FormatTitle renders a section heading.
func FormatTitle(title string) string {
	return titleStyle.Render(FactoryIcon + " " + title)
}

// FormatChange renders a signed percentage, colored by direction.
func FormatChange(pct float64) string {
	text := fmt.Sprintf("%+.2f%%", pct)
	switch {
	case pct > 0:
		return riseStyle.Render(text)
	case pct < 0:
		return fallStyle.Render(text)
	default:
		return mutedStyle.Render(text)
	}
}

// RenderBox frames content under a heading.
func RenderBox(title, content string) string {
	heading := titleStyle.UnsetMargins().Render(title)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}

// WriteTable writes rows under styled headers, aligned in columns.
func WriteTable(out io.Writer, headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
		rules[i] = mutedStyle.Render(strings.Repeat("─", max(len(h), 4)))
	}

	lines := append([][]string{styled, rules}, rows...)
	for i, cells := range lines {
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return fmt.Errorf("table line %d: %w", i, err)
		}
	}
	return w.Flush()
}
