package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/tableau/pkg/pipeline"
	"github.com/matzehuels/tableau/pkg/render"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for contradictions.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleRetired = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Report Display
// =============================================================================

// printVerdict prints the outcome of a check followed by its statistics.
func printVerdict(name string, rep *pipeline.Report, cached bool) {
	if rep.Consistent {
		printSuccess("%s is consistent", name)
	} else {
		printError("%s is inconsistent", name)
		if rep.Clash != nil {
			printDetail("%s", formatClash(rep.Clash))
		}
	}
	printStats(rep, cached)
}

// formatClash describes a clash on one line.
func formatClash(c *pipeline.Clash) string {
	s := fmt.Sprintf("clash on node %d: %s", c.Node, c.Reason)
	if len(c.Culprits) > 0 {
		s += " (depends on " + strings.Join(c.Culprits, ", ") + ")"
	}
	return s
}

// printStats prints search statistics on a single line.
func printStats(rep *pipeline.Report, cached bool) {
	parts := []string{
		fmt.Sprintf("%d models", rep.Models),
		fmt.Sprintf("%d branches", rep.Stats.Branches),
		fmt.Sprintf("%d clashes", rep.Stats.Clashes),
	}
	if rep.Stats.Backjumps > 0 {
		parts = append(parts, fmt.Sprintf("%d backjumps", rep.Stats.Backjumps))
	}
	parts = append(parts, rep.Stats.Blocking+" blocking")

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line + StyleDim.Render(" · ") + statusStyle.Render(status))
}

// formatModel draws m as a table with one row per node.
func formatModel(m *render.Model, retired bool) string {
	rows := make([][]string, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		terms := strings.Join(n.Terms, " ")
		if retired && len(n.Retired) > 0 {
			terms += " " + styleRetired.Render(strings.Join(n.Retired, " "))
		}
		rows = append(rows, []string{fmt.Sprint(n.ID), n.Label, terms, formatLinks(m, n.ID)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Node", "Terms", "Links").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 0:
				return StyleDim
			default:
				return lipgloss.NewStyle()
			}
		}).
		Render()
}

func formatLinks(m *render.Model, from int64) string {
	var out []string
	for _, l := range m.Links {
		if l.From != from {
			continue
		}
		target := fmt.Sprint(l.To)
		if n := m.Node(l.To); n != nil {
			target = n.Label
		}
		out = append(out, l.Role+" "+iconArrow+" "+target)
	}
	return strings.Join(out, ", ")
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
