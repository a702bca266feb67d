package utils

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	WarningColor = lipgloss.Color("#FF8800") // Orange
	GoodColor    = lipgloss.Color("#228B22") // Forest green
	InfoColor    = lipgloss.Color("#4682B4") // Steel blue
)

var TitleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FFFFFF")).
	Bold(true).
	Padding(0, 1)

// FormatKeyValue renders a label/value pair with the label left-aligned and
// padded to keyWidth, the way the CLI summary's report lines are laid out.
func FormatKeyValue(key, value string, keyWidth int) string {
	keyStyled := lipgloss.NewStyle().Foreground(InfoColor).Width(keyWidth).Render(key + ":")
	valueStyled := lipgloss.NewStyle().Render(value)
	return lipgloss.JoinHorizontal(lipgloss.Left, keyStyled, " ", valueStyled)
}

// TruncateString truncates a string to fit within maxWidth
func TruncateString(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	if maxWidth < 4 {
		return strings.Repeat(".", maxWidth)
	}
	return s[:maxWidth-3] + "..."
}
