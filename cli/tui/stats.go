package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/targetwire/metrics"
)

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewStatsSession:
		content = m.renderStatsSession()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsSession() string {
	data, ok := m.data.(*metrics.Snapshot)
	if !ok {
		return "Invalid data type for stats_session"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Session %s", data.SessionID)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n\n",
		LabelStyle.Width(0).Render("camera"), ValueStyle.Render(data.Camera),
		LabelStyle.Width(0).Render("adapter"), ValueStyle.Render(data.Adapter),
		LabelStyle.Width(0).Render("storage"), ValueStyle.Render(data.StorageBackend))

	decode := []string{
		m.renderStatBox("Results", data.ResultsDecoded, highlightColor),
		m.renderStatBox("Targets", data.TargetsDecoded, successColor),
		m.renderStatBox("Missing pose", data.MissingPose, warningColor),
		m.renderStatBox("Underflows", data.UnderflowErrors, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, decode...))
	b.WriteString("\n")

	transport := []string{
		m.renderStatBox("Published", data.PublishSuccess, successColor),
		m.renderStatBox("Publish failed", data.PublishFailure, errorColor),
		m.renderStatBox("Stored", data.LodeWriteSuccess, successColor),
		m.renderStatBox("Store failed", data.LodeWriteFailure, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, transport...))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		LabelStyle.Width(0).Render("bytes in"), ValueStyle.Render(fmt.Sprintf("%d", data.BytesIn)),
		LabelStyle.Width(0).Render("frame errors"), ValueStyle.Render(fmt.Sprintf("%d", data.FrameErrors)),
		LabelStyle.Width(0).Render("control frames"), ValueStyle.Render(fmt.Sprintf("%d", data.ControlFrames)))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
