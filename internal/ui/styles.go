// Package ui renders the terminal surfaces of the NeuroTask tools.
package ui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"neurotask/internal/tasks"
)

var (
	ColorHeader  = lipgloss.Color("#1e40af")
	ColorSurface = lipgloss.Color("#1e293b")
	ColorMuted   = lipgloss.Color("#94a3b8")
	ColorFaint   = lipgloss.Color("#64748b")
	ColorWhite   = lipgloss.Color("#ffffff")

	ColorGreen = lipgloss.Color("#10b981")
	ColorBlue  = lipgloss.Color("#3b82f6")
	ColorAmber = lipgloss.Color("#f59e0b")
	ColorRed   = lipgloss.Color("#ef4444")
)

var priorityColors = map[tasks.Priority]lipgloss.Color{
	tasks.Low:      ColorGreen,
	tasks.Medium:   ColorBlue,
	tasks.High:     ColorAmber,
	tasks.Critical: ColorRed,
}

func PriorityColor(p tasks.Priority) lipgloss.Color {
	if c, ok := priorityColors[p]; ok {
		return c
	}
	return ColorMuted
}

var (
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorHeader).
			Padding(1, 4)

	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	FaintStyle  = lipgloss.NewStyle().Foreground(ColorFaint)
	ErrorStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	OKStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)
	FooterStyle = lipgloss.NewStyle().Foreground(ColorMuted).MarginTop(1)

	// cardStyle draws the left accent bar; the colour is set per card.
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			PaddingLeft(1).
			MarginBottom(1)
)

func Banner(title string) string {
	return BannerStyle.Render(title)
}

func FormTheme() *huh.Theme {
	t := huh.ThemeCharm()
	t.Focused.Title = t.Focused.Title.Foreground(ColorBlue)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorBlue)
	return t
}
