package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles shared across commands.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style

	// StatusSuccess and StatusFailed carry their own glyphs; render them
	// with String().
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles returns the style set. When styled is false every style is a
// no-op so output stays clean in pipes and logs.
func NewStyles(styled bool) *Styles {
	if !styled {
		plain := lipgloss.NewStyle()
		return &Styles{
			Header1:       plain,
			Header2:       plain,
			Bold:          plain,
			Success:       plain,
			Warning:       plain,
			Error:         plain,
			Info:          plain,
			Muted:         plain,
			StatusSuccess: lipgloss.NewStyle().SetString("✓"),
			StatusFailed:  lipgloss.NewStyle().SetString("✗"),
		}
	}

	return &Styles{
		Header1:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:          lipgloss.NewStyle().Bold(true),
		Success:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Info:          lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}
