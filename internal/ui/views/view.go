package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"geopick/internal/domain"
)

// Focus names the pane that receives keys
type Focus int

const (
	FocusSearch Focus = iota
	FocusResults
	FocusMap
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width         int
	Height        int
	Focus         Focus
	Input         string // rendered text input
	Results       []domain.LocationCandidate
	Cursor        int
	ListOffset    int
	Selected      *domain.LocationCandidate
	SearchLoading bool
	MarkLoading   bool
	Error         string
	ViewFollow    bool
	Map           MapView
	Searched      bool // a search has completed for the current input
	NothingFound  string
	Searching     string
	Locating      string
	ShowInfo      bool
	InfoContent   string
	Help          string // rendered short help
}

// Renderer handles all view rendering
type Renderer struct {
	styles      *Styles
	popupRender *PopupRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:      styles,
		popupRender: NewPopupRenderer(styles),
	}
}

// Styles returns the renderer's styles
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// ListWidth returns the results pane width for a terminal width
func ListWidth(termWidth int) int {
	w := termWidth * 2 / 5
	return max(20, min(w, 60))
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	if state.ShowInfo {
		return r.popupRender.RenderPopup(state.InfoContent, state.Height, state.Width)
	}

	content := &strings.Builder{}
	content.WriteString(r.renderTitle(state))
	content.WriteString("\n")
	content.WriteString(r.pane(state.Focus == FocusSearch).Width(max(10, state.Width-4)).Render(state.Input))
	content.WriteString("\n")

	list := r.pane(state.Focus == FocusResults).
		Width(ListWidth(state.Width)).
		Height(state.Map.Rows).
		Render(r.renderResults(state))
	mapPane := r.pane(state.Focus == FocusMap).Render(RenderMap(state.Map, r.styles))
	content.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, mapPane))
	content.WriteString("\n")

	content.WriteString(r.renderStatus(state))
	content.WriteString("\n")
	content.WriteString(r.styles.Help.Render(state.Help))

	return r.styles.Main.Render(content.String())
}

func (r *Renderer) pane(focused bool) lipgloss.Style {
	if focused {
		return r.styles.FocusedPane
	}
	return r.styles.Pane
}

func (r *Renderer) renderTitle(state ViewState) string {
	logo := r.styles.Title.Render("geopick")

	indicators := []string{}
	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := int(time.Now().UnixMilli()/80) % len(spinner)
	if state.SearchLoading {
		indicators = append(indicators, fmt.Sprintf("%s %s", spinner[frame], state.Searching))
	}
	if state.MarkLoading {
		indicators = append(indicators, fmt.Sprintf("%s %s", spinner[frame], state.Locating))
	}
	if state.ViewFollow {
		indicators = append(indicators, r.styles.Follow.Render("follow"))
	}
	if len(indicators) == 0 {
		return logo
	}

	right := r.styles.Dim.Render(strings.Join(indicators, " | "))
	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	padding := termWidth - 4 - lipgloss.Width(logo) - lipgloss.Width(right)
	if padding < 2 {
		padding = 2
	}
	return logo + strings.Repeat(" ", padding) + right
}

func (r *Renderer) renderResults(state ViewState) string {
	if len(state.Results) == 0 {
		if state.Searched && !state.SearchLoading && state.Error == "" {
			return r.styles.Dim.Render(state.NothingFound)
		}
		return ""
	}

	width := ListWidth(state.Width) - 2
	end := min(len(state.Results), state.ListOffset+max(1, state.Map.Rows))
	lines := make([]string, 0, end-state.ListOffset)
	for i := state.ListOffset; i < end; i++ {
		c := state.Results[i]
		prefix := "  "
		if state.Selected != nil && state.Selected.ID == c.ID {
			prefix = "@ "
		}
		line := prefix + truncate(c.DisplayName, width-len(prefix))
		if i == state.Cursor {
			line = r.styles.SelectionBg.Render(r.styles.Highlight.Render(line))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) renderStatus(state ViewState) string {
	if state.Error != "" {
		return r.styles.StatusError.Render(state.Error)
	}
	if state.Selected != nil {
		c := state.Selected.Center
		return r.styles.StatusSuccess.Render(fmt.Sprintf("%s (%.5f, %.5f)", state.Selected.DisplayName, c.Lat, c.Lon))
	}
	if state.Map.Marker != nil {
		m := state.Map.Marker
		return r.styles.Status.Render(fmt.Sprintf("X (%.5f, %.5f)", m.Lat, m.Lon))
	}
	c := state.Map.Center
	return r.styles.Status.Render(fmt.Sprintf("%.5f, %.5f  z%d", c.Lat, c.Lon, state.Map.Zoom))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// RenderInfo renders a candidate for the details popup and the pager
func RenderInfo(c domain.LocationCandidate, styles *Styles) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(c.DisplayName))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "place id   %d\n", c.ID)
	fmt.Fprintf(&b, "center     %.6f, %.6f\n", c.Center.Lat, c.Center.Lon)
	if c.BoundingBox != nil {
		bb := c.BoundingBox
		fmt.Fprintf(&b, "south/west %.6f, %.6f\n", bb.South, bb.West)
		fmt.Fprintf(&b, "north/east %.6f, %.6f", bb.North, bb.East)
	} else {
		b.WriteString(styles.Dim.Render("no bounding box"))
	}
	return b.String()
}
