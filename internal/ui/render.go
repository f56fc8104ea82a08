package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"neurotask/internal/launcher"
	"neurotask/internal/tasks"
)

const createdLayout = "Jan 02, 03:04 PM"

const EmptyTasks = "No tasks yet! Add your first task above."

func TaskCard(t tasks.Task) string {
	color := PriorityColor(t.Priority)

	header := TitleStyle.Render(t.Title)
	if !t.CreatedAt.IsZero() {
		header += "  " + FaintStyle.Render(t.CreatedAt.Local().Format(createdLayout))
	}

	rows := []string{header}
	if t.Description != "" {
		rows = append(rows, MutedStyle.Render(t.Description))
	}
	rows = append(rows,
		lipgloss.NewStyle().Foreground(color).Render("Priority: "+t.Priority.String()),
		FaintStyle.Render("id "+ShortID(t.ID)),
	)

	return cardStyle.BorderForeground(color).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// TaskList renders tasks in the order given, followed by the total.
func TaskList(list []tasks.Task) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Your Tasks"))
	b.WriteString("\n\n")

	if len(list) == 0 {
		b.WriteString(MutedStyle.Render(EmptyTasks))
		b.WriteString("\n")
	}
	for _, t := range list {
		b.WriteString(TaskCard(t))
		b.WriteString("\n")
	}

	b.WriteString(FooterStyle.Render(fmt.Sprintf("Total Tasks: %d", len(list))))
	return b.String()
}

// TaskOption is the one-line label used in pickers.
func TaskOption(t tasks.Task) string {
	return fmt.Sprintf("[%s] %s", t.Priority, t.Title)
}

func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func ToolCard(t launcher.Tool) string {
	color := lipgloss.Color(t.Color)
	body := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(t.Name),
		MutedStyle.Render(t.Description),
		lipgloss.NewStyle().Foreground(color).Render("neurotask --run "+t.ID),
	)
	return cardStyle.BorderForeground(color).Render(body)
}

func ToolList(tools []launcher.Tool) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Select an AI Tool to Launch:"))
	b.WriteString("\n\n")
	for _, t := range tools {
		b.WriteString(ToolCard(t))
		b.WriteString("\n")
	}
	b.WriteString(FooterStyle.Render("You can run multiple tools simultaneously"))
	return b.String()
}

var statusColors = map[string]lipgloss.Color{
	"Ready":         ColorGreen,
	"Listening...":  ColorBlue,
	"Processing...": ColorAmber,
}

// Status renders the voice status line, e.g. "● Listening...".
func Status(status string) string {
	c, ok := statusColors[status]
	if !ok {
		c = ColorMuted
	}
	return lipgloss.NewStyle().Foreground(c).Render("●") + " " + TitleStyle.Render(status)
}

func Transcript(lines []string) string {
	if len(lines) == 0 {
		return MutedStyle.Render("(transcript is empty)")
	}
	return strings.Join(lines, "\n\n")
}
