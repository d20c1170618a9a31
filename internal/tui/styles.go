// internal/tui/styles.go
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8C00"))
	hintStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5484D"))
	questionStyle = lipgloss.NewStyle().Bold(true).Padding(0, 2).Border(lipgloss.RoundedBorder())
	tagStyle      = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("#3A3A3A"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD166"))
	heartStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5484D"))
	ghostStyle    = lipgloss.NewStyle().Italic(true).Faint(true)
	buttonStyle   = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("#FF8C00")).Foreground(lipgloss.Color("#000000"))
	disabledStyle = lipgloss.NewStyle().Padding(0, 1).Faint(true)
	panelStyle    = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#555555"))
)

// feedbackStyles is keyed by the style tag of a feedback line.
var feedbackStyles = map[string]lipgloss.Style{
	"valid":   lipgloss.NewStyle().Foreground(lipgloss.Color("#46A758")),
	"invalid": lipgloss.NewStyle().Foreground(lipgloss.Color("#E5484D")),
	"explode": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F76B15")),
	"summary": hintStyle,
}

func feedbackStyle(tag string) lipgloss.Style {
	if s, ok := feedbackStyles[tag]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

func button(label string, enabled bool) string {
	if enabled {
		return buttonStyle.Render(label)
	}
	return disabledStyle.Render(label)
}
