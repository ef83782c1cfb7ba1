package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/docdesigner/pkg/layout"
	"github.com/matzehuels/docdesigner/pkg/registry"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
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

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
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

	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBorder  = lipgloss.NewStyle().Foreground(colorDim)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
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
	iconActive  = "●"
	iconDefault = "★"
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

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Tables
// =============================================================================

// newTable returns a table in the CLI's house style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// renderTemplates renders the template collection as a table.
func renderTemplates(ts []*template.Template, activeID string) string {
	t := newTable("", "ID", "Name", "Modules", "Updated")
	for _, tpl := range ts {
		mark := ""
		if tpl.ID == activeID {
			mark = iconActive
		}
		if tpl.IsDefault {
			mark += iconDefault
		}
		t.Row(mark, tpl.ID, tpl.Name, fmt.Sprint(len(tpl.Layout)), tpl.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return t.Render()
}

// renderLayout renders the active layout as a table of modules.
func renderLayout(mods []template.Module, reg *registry.Registry, selected string) string {
	t := newTable("#", "ID", "Module", "Width", "Edited")
	for i, m := range mods {
		idx := fmt.Sprint(i)
		if m.ID == selected {
			idx = iconInfo + idx
		}
		t.Row(idx, m.ID, kindName(reg, m.Type), string(m.Width), fmt.Sprint(len(m.Config)))
	}
	return t.Render()
}

// renderRows draws packed rows as proportional bars, one line per row.
func renderRows(rows []layout.Row, reg *registry.Registry, width int) string {
	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "%s ", StyleDim.Render(fmt.Sprintf("%2d", i+1)))
		for _, c := range r.Cells {
			w := width*layout.Units(c.Module.Width)/layout.Span - 1
			if w < 3 {
				w = 3
			}
			cell := lipgloss.NewStyle().
				Width(w).
				MaxWidth(w).
				Foreground(colorWhite).
				Background(colorDim).
				Render(kindName(reg, c.Module.Type))
			b.WriteString(cell + " ")
		}
		fmt.Fprintf(&b, "%s\n", StyleDim.Render(fmt.Sprintf("%.0f%%", r.Percent())))
	}
	return b.String()
}

func kindName(reg *registry.Registry, name string) string {
	if k, ok := reg.Lookup(name); ok {
		return k.DisplayName
	}
	return name
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Utilities
// =============================================================================

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}
