package views

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

// PopupRenderer handles popup/modal rendering
type PopupRenderer struct {
	styles *Styles
}

// NewPopupRenderer creates a new popup renderer
func NewPopupRenderer(styles *Styles) *PopupRenderer {
	return &PopupRenderer{
		styles: styles,
	}
}

// RenderPopup centers the styled popup in a width x height area
func (pr *PopupRenderer) RenderPopup(popupContent string, height, width int) string {
	styled := pr.styles.Popup.Render(popupContent)
	if width <= 0 || height <= 0 {
		return styled
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, styled)
}

// ANSI escape sequence regex to strip styles/colors
var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes color and style codes
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}
