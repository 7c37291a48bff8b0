package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Dim           lipgloss.Style
	Status        lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	Pane          lipgloss.Style
	FocusedPane   lipgloss.Style
	Highlight     lipgloss.Style
	SelectionBg   lipgloss.Style
	Popup         lipgloss.Style
	StatusError   lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
	Follow        lipgloss.Style
	MapGround     lipgloss.Style
	MapBox        lipgloss.Style
	MapResult     lipgloss.Style
	MapSelected   lipgloss.Style
	MapMarker     lipgloss.Style
	MapCrosshair  lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim: lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Help: lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(0, 1),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")),
		FocusedPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		SelectionBg: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(1, 2),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		Follow:        lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // cyan
		MapGround:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		MapBox:        lipgloss.NewStyle().Foreground(lipgloss.Color("33")), // blue
		MapResult:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		MapSelected:   lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),
		MapMarker:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		MapCrosshair:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}
