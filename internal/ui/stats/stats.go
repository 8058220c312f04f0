// Package stats is the focus-history screen: a seven-day breakdown of
// completed sessions plus the recent classification log.
package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tubefocus/internal/history"
	"tubefocus/internal/models"
)

const daysShown = 7

// Store is the slice of persistence this screen reads.
type Store interface {
	Sessions() ([]models.SessionRecord, error)
	Detections() ([]models.DetectionRecord, error)
}

type dayRow struct {
	day   time.Time
	stats history.DayStats
}

type Model struct {
	store      Store
	days       []dayRow
	detections []models.DetectionRecord
	width      int
	height     int
	back       bool
	message    string
}

func New(store Store) (Model, error) {
	m := Model{store: store}

	sessions, err := store.Sessions()
	if err != nil {
		return m, err
	}

	now := time.Now()
	for i := daysShown - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		m.days = append(m.days, dayRow{day: day, stats: history.StatsForDay(sessions, day)})
	}

	detections, err := store.Detections()
	if err != nil {
		return m, err
	}
	// Newest first, at most five.
	for i := len(detections) - 1; i >= 0 && len(m.detections) < 5; i-- {
		m.detections = append(m.detections, detections[i])
	}

	return m, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Back):
			m.back = true
			return m, tea.Quit
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Export):
			return m, m.exportReport()
		}

	case exportResultMsg:
		m.message = msg.message
		return m, nil
	}

	return m, nil
}

// Back reports whether the user asked to return to the timer screen.
func (m Model) Back() bool {
	return m.back
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	containerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Padding(2)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF7CCB")).
		MarginBottom(1)

	title := titleStyle.Render("Focus History - Last 7 Days")

	sections := []string{
		title,
		m.renderWeekChart(),
		m.renderDayRows(),
		m.renderDetections(),
		m.renderHelp(),
	}

	return containerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderDayRows() string {
	rowStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888")).
		PaddingLeft(2)

	var rows []string
	for _, row := range m.days {
		line := fmt.Sprintf("%s: %d sessions, %s focus",
			row.day.Format("Mon Jan 2"),
			row.stats.CompletedWork,
			formatMinutes(row.stats.FocusMinutes))
		if row.stats.CompletedWork > 0 {
			line += fmt.Sprintf(" (%d%% completed)", row.stats.CompletionRate)
		}
		rows = append(rows, rowStyle.Render(line))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderWeekChart() string {
	chartStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666")).
		MarginBottom(1)

	maxSessions := 0
	for _, row := range m.days {
		if row.stats.CompletedWork > maxSessions {
			maxSessions = row.stats.CompletedWork
		}
	}
	if maxSessions == 0 {
		return chartStyle.Render("No completed sessions yet this week.")
	}

	barHeight := 5
	var chart strings.Builder
	for level := barHeight; level > 0; level-- {
		for _, row := range m.days {
			bar := row.stats.CompletedWork * barHeight / maxSessions
			if bar >= level {
				chart.WriteString("█  ")
			} else {
				chart.WriteString("   ")
			}
		}
		chart.WriteString("\n")
	}
	for _, row := range m.days {
		chart.WriteString(row.day.Format("Mon")[:2] + " ")
	}

	return chartStyle.Render(chart.String())
}

func (m Model) renderDetections() string {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FDFF8C")).
		MarginTop(1)

	rowStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888")).
		PaddingLeft(2)

	if len(m.detections) == 0 {
		return ""
	}

	lines := []string{headerStyle.Render("Recent detections:")}
	for _, d := range m.detections {
		verdict := "not a lecture"
		if d.IsLecture {
			verdict = "lecture"
		}
		title := d.Title
		if len(title) > 40 {
			title = title[:40] + "…"
		}
		lines = append(lines, rowStyle.Render(fmt.Sprintf("%s (score %d): %s", verdict, d.Score, title)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666")).
		MarginTop(2)

	help := "e: export • b: back • q: quit"
	if m.message != "" {
		messageStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
		help = messageStyle.Render(m.message) + "\n" + help
	}
	return helpStyle.Render(help)
}

// exportReport writes a plain-text report of the shown week to the user's
// home directory.
func (m Model) exportReport() tea.Cmd {
	return func() tea.Msg {
		var report strings.Builder
		report.WriteString("TubeFocus - weekly focus report\n")
		report.WriteString(fmt.Sprintf("Generated %s\n\n", time.Now().Format("2006-01-02 15:04")))
		for _, row := range m.days {
			report.WriteString(fmt.Sprintf("%s: %d sessions, %s focus (%d%% completed)\n",
				row.day.Format("2006-01-02"),
				row.stats.CompletedWork,
				formatMinutes(row.stats.FocusMinutes),
				row.stats.CompletionRate))
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			return exportResultMsg{message: fmt.Sprintf("Export failed: %v", err)}
		}

		filename := fmt.Sprintf("tubefocus-stats-%s.txt", time.Now().Format("2006-01-02-150405"))
		filePath := filepath.Join(homeDir, "Downloads", filename)
		if err := os.WriteFile(filePath, []byte(report.String()), 0644); err != nil {
			filePath = filepath.Join(homeDir, filename)
			if err := os.WriteFile(filePath, []byte(report.String()), 0644); err != nil {
				return exportResultMsg{message: fmt.Sprintf("Export failed: %v", err)}
			}
		}

		return exportResultMsg{message: "Exported to " + filePath}
	}
}

type exportResultMsg struct {
	message string
}

func formatMinutes(minutes int) string {
	if minutes >= 60 {
		if minutes%60 == 0 {
			return fmt.Sprintf("%dh", minutes/60)
		}
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

type keyMap struct {
	Back   key.Binding
	Quit   key.Binding
	Export key.Binding
}

var keys = keyMap{
	Back: key.NewBinding(
		key.WithKeys("b", "esc"),
		key.WithHelp("b", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
}
