// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type (
	// ConfirmOptions configures a yes/no confirmation prompt.
	ConfirmOptions struct {
		// Title is the question to display.
		Title string
		// Description provides additional context below the title.
		Description string
		// Affirmative is the text for the affirmative option (default: "Yes").
		Affirmative string
		// Negative is the text for the negative option (default: "No").
		Negative string
		// Default is the pre-selected answer.
		Default bool
	}

	confirmModel struct {
		title       string
		description string
		affirmative string
		negative    string
		selection   bool
		done        bool
		cancelled   bool
	}
)

var (
	confirmTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E55341"))
	confirmDescStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	confirmSelectedStyle = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#76B900")).
				Padding(0, 2)
	confirmUnselectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#9CA3AF")).
				Padding(0, 2)
	confirmHelpStyle = lipgloss.NewStyle().Faint(true)
)

// NewConfirmModel creates the confirmation prompt model.
func NewConfirmModel(opts ConfirmOptions) *confirmModel {
	if opts.Affirmative == "" {
		opts.Affirmative = "Yes"
	}
	if opts.Negative == "" {
		opts.Negative = "No"
	}
	return &confirmModel{
		title:       opts.Title,
		description: opts.Description,
		affirmative: opts.Affirmative,
		negative:    opts.Negative,
		selection:   opts.Default,
	}
}

// Init implements tea.Model.
func (m *confirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.done = true
		m.cancelled = true
		return m, tea.Quit
	case "y":
		m.selection = true
		m.done = true
		return m, tea.Quit
	case "n":
		m.selection = false
		m.done = true
		return m, tea.Quit
	case "left", "h":
		m.selection = true
	case "right", "l":
		m.selection = false
	case "tab", "up", "down":
		m.selection = !m.selection
	case "enter", " ":
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m *confirmModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(confirmTitleStyle.Render(m.title) + "\n")
	if m.description != "" {
		b.WriteString(confirmDescStyle.Render(m.description) + "\n")
	}
	b.WriteString("\n")

	yes := confirmUnselectedStyle.Render(m.affirmative)
	no := confirmUnselectedStyle.Render(m.negative)
	if m.selection {
		yes = confirmSelectedStyle.Render(m.affirmative)
	} else {
		no = confirmSelectedStyle.Render(m.negative)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, yes, "  ", no) + "\n\n")
	b.WriteString(confirmHelpStyle.Render("y/n to answer, arrows to move, enter to accept, esc to cancel"))

	return b.String()
}

// Confirmed reports the selected answer; false when the prompt was cancelled.
func (m *confirmModel) Confirmed() bool {
	return !m.cancelled && m.selection
}

// Cancelled reports whether the prompt was dismissed without an answer.
func (m *confirmModel) Cancelled() bool {
	return m.cancelled
}

// Confirm runs an interactive yes/no prompt and returns the answer.
// A cancelled prompt answers no.
func Confirm(opts ConfirmOptions) (bool, error) {
	model := NewConfirmModel(opts)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return false, fmt.Errorf("failed to run confirmation prompt: %w", err)
	}
	return model.Confirmed(), nil
}
