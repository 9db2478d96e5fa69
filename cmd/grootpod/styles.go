// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for CLI output, tuned for dark terminals. NVIDIA green anchors
// titles; status colors follow the usual traffic-light reading.
const (
	ColorPrimary   = lipgloss.Color("#76B900") // titles and headers
	ColorMuted     = lipgloss.Color("#6B7280") // secondary text
	ColorSuccess   = lipgloss.Color("#10B981") // checkmarks
	ColorError     = lipgloss.Color("#EF4444") // failures
	ColorWarning   = lipgloss.Color("#F59E0B") // soft failures and cautions
	ColorHighlight = lipgloss.Color("#3B82F6") // paths and commands
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(ColorSuccess)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	PathStyle     = lipgloss.NewStyle().Foreground(ColorHighlight)
)
