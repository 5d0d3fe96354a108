package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/targetwire/geom"
	"github.com/pithecene-io/targetwire/target"
)

// InspectModel is a Bubble Tea model for decoded records. For a result it
// keeps a cursor over the targets and shows the selected one in detail.
type InspectModel struct {
	viewType string
	data     any
	cursor   int
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < m.targetCount()-1 {
				m.cursor++
			}
		}
	}

	return m, nil
}

func (m InspectModel) targetCount() int {
	if r, ok := m.data.(*target.Result); ok {
		return len(r.Targets)
	}
	return 0
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content, help string
	switch m.viewType {
	case ViewInspectTarget:
		content = m.renderInspectTarget()
		help = "Press q or Ctrl+C to quit"
	case ViewInspectResult:
		content = m.renderInspectResult()
		help = "↑/↓ select target • q quit"
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	return content + "\n" + HelpStyle.Render(help)
}

func (m InspectModel) renderInspectTarget() string {
	data, ok := m.data.(*target.TrackedTarget)
	if !ok {
		return "Invalid data type for inspect_target"
	}
	return BoxStyle.Render(renderTarget("Target", data))
}

func (m InspectModel) renderInspectResult() string {
	data, ok := m.data.(*target.Result)
	if !ok {
		return "Invalid data type for inspect_result"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Result #%d", data.Sequence)))
	b.WriteString("\n\n")
	writeRow(&b, "Capture (µs):", ValueStyle.Render(fmt.Sprintf("%d", data.CaptureMicros)))
	writeRow(&b, "Latency:", ValueStyle.Render(fmt.Sprintf("%.2f ms", data.LatencyMillis)))
	writeRow(&b, "Targets:", ValueStyle.Render(fmt.Sprintf("%d", len(data.Targets))))

	if len(data.Targets) == 0 {
		return BoxStyle.Render(b.String())
	}

	b.WriteString("\n")
	for i, t := range data.Targets {
		line := fmt.Sprintf("%2d  %s", i, targetSummary(t))
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	list := BoxStyle.Render(b.String())
	sel := data.Targets[min(m.cursor, len(data.Targets)-1)]
	detail := BoxStyle.Render(renderTarget(fmt.Sprintf("Target %d", m.cursor), &sel))
	return lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
}

func targetSummary(t target.TrackedTarget) string {
	kind := "target"
	switch {
	case t.IsFiducial():
		kind = fmt.Sprintf("fiducial %d", t.FiducialID)
	case t.IsObjectDetection():
		kind = fmt.Sprintf("class %d", t.ObjDetectID)
	}
	return fmt.Sprintf("%-12s yaw %7.2f° pitch %6.2f°", kind, t.Yaw, t.Pitch)
}

func renderTarget(title string, t *target.TrackedTarget) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	writeRow(&b, "Yaw:", ValueStyle.Render(fmt.Sprintf("%.3f°", t.Yaw)))
	writeRow(&b, "Pitch:", ValueStyle.Render(fmt.Sprintf("%.3f°", t.Pitch)))
	writeRow(&b, "Area:", ValueStyle.Render(fmt.Sprintf("%.3f%%", t.Area)))
	writeRow(&b, "Skew:", ValueStyle.Render(fmt.Sprintf("%.3f°", t.Skew)))

	if t.IsFiducial() {
		writeRow(&b, "Fiducial:", ValueStyle.Render(fmt.Sprintf("%d", t.FiducialID)))
	}
	if t.IsObjectDetection() {
		writeRow(&b, "Class:", ValueStyle.Render(fmt.Sprintf("%d (%.2f)", t.ObjDetectID, t.ObjDetectConf)))
	}

	style := PoseStyle(t.HasPose(), t.PoseAmbiguity)
	if best, ok := t.BestPose(); ok {
		writeRow(&b, "Ambiguity:", style.Render(fmt.Sprintf("%.3f", t.PoseAmbiguity)))
		writeRow(&b, "Best pose:", ValueStyle.Render(formatTransform(best)))
		writeRow(&b, "Distance:", ValueStyle.Render(fmt.Sprintf("%.3f m", best.Distance())))
		alt, _ := t.AltPose()
		writeRow(&b, "Alt pose:", ValueStyle.Render(formatTransform(alt)))
	} else {
		writeRow(&b, "Pose:", style.Render("none"))
	}

	writeRow(&b, "Rect corners:", ValueStyle.Render(formatPoints(t.MinAreaRectCorners[:])))
	writeRow(&b, "Corners:", ValueStyle.Render(fmt.Sprintf("%d", len(t.DetectedCorners))))
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n", LabelStyle.Render(label), value)
}

func formatTransform(t geom.Transform3d) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f) q(%.3f, %.3f, %.3f, %.3f)",
		t.Translation.X, t.Translation.Y, t.Translation.Z,
		t.Rotation.Real, t.Rotation.Imag, t.Rotation.Jmag, t.Rotation.Kmag)
}

func formatPoints(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous target"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next target"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
