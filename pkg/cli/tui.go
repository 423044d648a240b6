package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme is the terminal color scheme.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Dim     lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme matches the console's purple accent.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#c4b5fd"),
	Accent:  lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Error:   lipgloss.Color("#f87171"),
}

// Styles are derived from a Theme.
type Styles struct {
	Title  lipgloss.Style
	User   lipgloss.Style
	Model  lipgloss.Style
	Help   lipgloss.Style
	Error  lipgloss.Style
	Header lipgloss.Style
	Border lipgloss.Style
}

// NewStyles creates styles from t.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		User:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Model:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Error:  lipgloss.NewStyle().Foreground(t.Error),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Label renders the speaker prefix of a chat turn.
func (s Styles) Label(name string, user bool) string {
	if user {
		return s.User.Render(name + " ›")
	}
	return s.Model.Render(name + " ›")
}

// Table renders rows under headers. Cells are cut to maxCell runes.
func (s Styles) Table(headers []string, rows [][]string, maxCell int) string {
	cut := make([][]string, len(rows))
	for i, r := range rows {
		cut[i] = make([]string, len(r))
		for j, c := range r {
			cut[i][j] = truncate(strings.ReplaceAll(c, "\n", " "), maxCell)
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(cut...).
		Render()
}

// truncate cuts s to width terminal cells, marking the cut with "…".
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > width-1 {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	return b.String() + "…"
}
