package views

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"geopick/internal/domain"
	"geopick/internal/geobox"
)

// One terminal cell in map pixels. Cells are about twice as tall as wide.
const (
	CellWidthPx  = 8
	CellHeightPx = 16

	tileSize = 256.0
)

// Map zoom limits
const (
	MinZoom = 1
	MaxZoom = 18
)

// Glyphs drawn on the map grid
const (
	GlyphGround    = '.'
	GlyphBoxEdgeH  = '-'
	GlyphBoxEdgeV  = '|'
	GlyphBoxCorner = '+'
	GlyphResult    = 'o'
	GlyphSelected  = '@'
	GlyphMarker    = 'X'
	GlyphCrosshair = '#'
)

// MapView is a web-mercator window of Cols x Rows terminal cells
type MapView struct {
	Center   domain.LatLng
	Zoom     int
	Cols     int
	Rows     int
	Marker   *domain.LatLng
	Selected *domain.LocationCandidate
	Results  []domain.LocationCandidate
}

// PixelSize returns the window size in map pixels
func (v MapView) PixelSize() (w, h int) {
	return v.Cols * CellWidthPx, v.Rows * CellHeightPx
}

// Visible returns the box the window shows
func (v MapView) Visible() domain.BoundingBox {
	w, h := v.PixelSize()
	return geobox.Viewport(v.Center, v.Zoom, w, h)
}

// Cell returns the column and row p falls in; ok is false when p is off screen
func (v MapView) Cell(p domain.LatLng) (col, row int, ok bool) {
	cx, cy := geobox.Project(v.Center, v.Zoom)
	px, py := geobox.Project(p, v.Zoom)
	col = int(math.Floor((px-cx)*tileSize/CellWidthPx)) + v.Cols/2
	row = int(math.Floor((py-cy)*tileSize/CellHeightPx)) + v.Rows/2
	return col, row, col >= 0 && col < v.Cols && row >= 0 && row < v.Rows
}

// LatLngAt returns the top-left corner of a cell. The crosshair cell maps
// to Center exactly.
func (v MapView) LatLngAt(col, row int) domain.LatLng {
	cx, cy := geobox.Project(v.Center, v.Zoom)
	x := cx + float64(col-v.Cols/2)*CellWidthPx/tileSize
	y := cy + float64(row-v.Rows/2)*CellHeightPx/tileSize
	return normalize(geobox.Unproject(x, y, v.Zoom))
}

// Pan moves the center by whole cells
func (v MapView) Pan(dCol, dRow int) MapView {
	v.Center = v.LatLngAt(v.Cols/2+dCol, v.Rows/2+dRow)
	return v
}

// WithZoom returns v at zoom, clamped to the supported range
func (v MapView) WithZoom(zoom int) MapView {
	v.Zoom = max(MinZoom, min(MaxZoom, zoom))
	return v
}

func normalize(p domain.LatLng) domain.LatLng {
	p.Lat = math.Max(-geobox.MaxMercatorLat, math.Min(geobox.MaxMercatorLat, p.Lat))
	p.Lon = math.Mod(p.Lon+180, 360)
	if p.Lon < 0 {
		p.Lon += 360
	}
	p.Lon -= 180
	return p
}

// Grid draws the window as plain runes, one string per row
func (v MapView) Grid() []string {
	if v.Cols <= 0 || v.Rows <= 0 {
		return nil
	}
	grid := make([][]rune, v.Rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(string(GlyphGround), v.Cols))
	}
	set := func(col, row int, g rune) {
		if col >= 0 && col < v.Cols && row >= 0 && row < v.Rows {
			grid[row][col] = g
		}
	}

	if v.Selected != nil && v.Selected.BoundingBox != nil {
		v.drawBox(*v.Selected.BoundingBox, set)
	}
	for _, c := range v.Results {
		if col, row, ok := v.Cell(c.Center); ok {
			set(col, row, GlyphResult)
		}
	}
	if v.Selected != nil {
		if col, row, ok := v.Cell(v.Selected.Center); ok {
			set(col, row, GlyphSelected)
		}
	}
	if v.Marker != nil {
		if col, row, ok := v.Cell(*v.Marker); ok {
			set(col, row, GlyphMarker)
		}
	}
	if grid[v.Rows/2][v.Cols/2] == GlyphGround {
		grid[v.Rows/2][v.Cols/2] = GlyphCrosshair
	}

	lines := make([]string, v.Rows)
	for r, row := range grid {
		lines[r] = string(row)
	}
	return lines
}

// drawBox outlines box. Corners off screen still produce the visible edges.
func (v MapView) drawBox(box domain.BoundingBox, set func(col, row int, g rune)) {
	left, top, _ := v.Cell(domain.LatLng{Lat: box.North, Lon: box.West})
	right, bottom, _ := v.Cell(domain.LatLng{Lat: box.South, Lon: box.East})
	for col := max(left, 0); col <= min(right, v.Cols-1); col++ {
		set(col, top, GlyphBoxEdgeH)
		set(col, bottom, GlyphBoxEdgeH)
	}
	for row := max(top, 0); row <= min(bottom, v.Rows-1); row++ {
		set(left, row, GlyphBoxEdgeV)
		set(right, row, GlyphBoxEdgeV)
	}
	set(left, top, GlyphBoxCorner)
	set(right, top, GlyphBoxCorner)
	set(left, bottom, GlyphBoxCorner)
	set(right, bottom, GlyphBoxCorner)
}

// RenderMap draws the window with colors
func RenderMap(v MapView, styles *Styles) string {
	lines := v.Grid()
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, g := range line {
			b.WriteString(glyphStyle(g, styles).Render(string(g)))
		}
	}
	return b.String()
}

func glyphStyle(g rune, styles *Styles) lipgloss.Style {
	switch g {
	case GlyphBoxEdgeH, GlyphBoxEdgeV, GlyphBoxCorner:
		return styles.MapBox
	case GlyphResult:
		return styles.MapResult
	case GlyphSelected:
		return styles.MapSelected
	case GlyphMarker:
		return styles.MapMarker
	case GlyphCrosshair:
		return styles.MapCrosshair
	default:
		return styles.MapGround
	}
}
