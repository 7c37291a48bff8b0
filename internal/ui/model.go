// Package ui is the terminal consumer of the selection engine: a search
// input, the result list and an ASCII map with a crosshair.
package ui

import (
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"geopick/internal/domain"
	"geopick/internal/locale"
	"geopick/internal/ui/views"
	"geopick/internal/viewsync"
)

// Engine is the part of the selection engine the terminal UI drives
type Engine interface {
	SetText(text string) bool
	FlushSearch() bool
	ClickMap(at domain.LatLng, visible domain.BoundingBox) bool
	Select(candidate domain.LocationCandidate) bool
	SetViewFollowEnabled(enabled bool) bool
	ResetSelection() bool
	Snapshot() domain.SelectionState
}

// Options configures the model
type Options struct {
	Locale   *locale.Locale
	Center   domain.LatLng // initial map center and fallback
	Zoom     int
	View     viewsync.Options
	Logger   *slog.Logger
	MaxInput int
}

const panFastCells = 5

// Model represents the UI state
type Model struct {
	engine Engine
	loc    *locale.Locale
	log    *slog.Logger
	view   viewsync.Options

	width  int
	height int
	focus  views.Focus
	input  textinput.Model
	help   help.Model
	keys   keyMap

	state      domain.SelectionState
	searched   bool
	cursor     int
	listOffset int
	mapView    views.MapView
	fallback   domain.LatLng
	lastFit    *domain.BoundingBox

	showInfo    bool
	infoContent string

	renderer     *views.Renderer
	helpRenderer *HelpRenderer
	helpOps      *HelpOps
	ticking      bool
}

// NewModel creates a new UI model
func NewModel(e Engine, opts Options) *Model {
	if opts.Locale == nil {
		opts.Locale = locale.New("en")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.View == (viewsync.Options{}) {
		opts.View = viewsync.DefaultOptions()
	}
	if opts.MaxInput <= 0 {
		opts.MaxInput = 256
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "city, neighbourhood, street..."
	ti.CharLimit = opts.MaxInput
	ti.Focus()

	keys := newKeyMap()
	return &Model{
		engine:       e,
		loc:          opts.Locale,
		log:          opts.Logger.With("component", "ui"),
		view:         opts.View,
		focus:        views.FocusSearch,
		input:        ti,
		help:         help.New(),
		keys:         keys,
		state:        e.Snapshot(),
		mapView:      views.MapView{Center: opts.Center, Zoom: opts.Zoom, Cols: 40, Rows: 12}.WithZoom(opts.Zoom),
		fallback:     opts.Center,
		renderer:     views.NewRenderer(),
		helpRenderer: NewHelpRenderer(keys),
		helpOps:      NewHelpOps(nil),
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.helpOps = NewHelpOps(p)
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return StateMsg{State: m.engine.Snapshot()}
	})
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case StateMsg:
		return m, m.applyState(msg.State)

	case tickMsg:
		if m.state.SearchLoading || m.state.MarkLoading {
			return m, tick()
		}
		m.ticking = false
		return m, nil

	case helpPagerMsg:
		if msg.err != nil {
			// Pager failed: log only; do not surface in status bar
			m.log.Warn("help pager failed", "error", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.input.Width = max(10, width-10)

	// title, input pane, status and help lines plus pane borders and padding
	m.mapView.Cols = max(10, width-views.ListWidth(width)-8)
	m.mapView.Rows = max(3, height-9)
	m.clampList()
}

// applyState takes a new snapshot and moves the map when the view should
// follow the selection
func (m *Model) applyState(st domain.SelectionState) tea.Cmd {
	prev := m.state
	m.state = st

	if prev.SearchLoading && !st.SearchLoading {
		m.searched = true
	}
	if !slices.EqualFunc(prev.Results, st.Results, func(a, b domain.LocationCandidate) bool { return a.Equal(&b) }) {
		m.cursor = 0
		m.listOffset = 0
	}
	m.clampList()

	m.mapView.Marker = st.Marker
	m.mapView.Selected = st.Selected
	m.mapView.Results = st.Results

	cmd := viewsync.DecideWith(st, m.fallback, m.view)
	if cmd.Mode == viewsync.ModeFit && cmd.Bounds != nil {
		if m.lastFit == nil || *m.lastFit != *cmd.Bounds {
			w, h := m.mapView.PixelSize()
			m.mapView.Center = cmd.Center
			m.mapView = m.mapView.WithZoom(cmd.Zoom(w, h, m.mapView.Zoom))
			fit := *cmd.Bounds
			m.lastFit = &fit
		}
	} else {
		m.lastFit = nil
	}

	if (st.SearchLoading || st.MarkLoading) && !m.ticking {
		m.ticking = true
		return tick()
	}
	return nil
}

func (m *Model) clampList() {
	n := len(m.state.Results)
	if n == 0 {
		m.cursor, m.listOffset = 0, 0
		return
	}
	m.cursor = max(0, min(m.cursor, n-1))
	rows := max(1, m.mapView.Rows)
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+rows {
		m.listOffset = m.cursor - rows + 1
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.showInfo {
		switch msg.String() {
		case "esc", "i", "q":
			m.showInfo = false
			m.infoContent = ""
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.NextFocus) {
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	}

	switch m.focus {
	case views.FocusSearch:
		return m.handleSearchKey(msg)
	case views.FocusResults:
		return m, m.handleResultsKey(msg)
	default:
		return m, m.handleMapKey(msg)
	}
}

func (m *Model) setFocus(f views.Focus) {
	m.focus = f
	if f == views.FocusSearch {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.FlushInput):
		m.engine.FlushSearch()
		m.setFocus(views.FocusResults)
		return m, nil
	case key.Matches(msg, m.keys.Back), msg.Type == tea.KeyDown:
		m.setFocus(views.FocusResults)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.searched = false
		m.engine.SetText(after)
	}
	return m, cmd
}

// commonKey handles the keys shared by the list and map panes
func (m *Model) commonKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Search):
		m.setFocus(views.FocusSearch)
		return nil, true
	case key.Matches(msg, m.keys.Help):
		return m.fetchHelpPager(m.helpRenderer.RenderHelpContentPlain()), true
	case key.Matches(msg, m.keys.Follow):
		m.engine.SetViewFollowEnabled(!m.state.ViewFollowEnabled)
		return nil, true
	case key.Matches(msg, m.keys.Clear):
		m.engine.ResetSelection()
		return nil, true
	}
	return nil, false
}

func (m *Model) handleResultsKey(msg tea.KeyMsg) tea.Cmd {
	if cmd, ok := m.commonKey(msg); ok {
		return cmd
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.clampList()
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampList()
	case key.Matches(msg, m.keys.Choose):
		if c, ok := m.highlighted(); ok {
			m.engine.Select(c)
		}
	case key.Matches(msg, m.keys.Info):
		if c, ok := m.highlighted(); ok {
			m.showInfo = true
			m.infoContent = views.RenderInfo(c, m.renderer.Styles())
		}
	case key.Matches(msg, m.keys.FocusMap):
		m.setFocus(views.FocusMap)
	case key.Matches(msg, m.keys.Back):
		m.setFocus(views.FocusSearch)
	}
	return nil
}

func (m *Model) handleMapKey(msg tea.KeyMsg) tea.Cmd {
	if cmd, ok := m.commonKey(msg); ok {
		return cmd
	}
	switch msg.String() {
	case "H":
		m.mapView = m.mapView.Pan(-panFastCells, 0)
		return nil
	case "L":
		m.mapView = m.mapView.Pan(panFastCells, 0)
		return nil
	case "K":
		m.mapView = m.mapView.Pan(0, -panFastCells)
		return nil
	case "J":
		m.mapView = m.mapView.Pan(0, panFastCells)
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Left):
		m.mapView = m.mapView.Pan(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.mapView = m.mapView.Pan(1, 0)
	case key.Matches(msg, m.keys.Up):
		m.mapView = m.mapView.Pan(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.mapView = m.mapView.Pan(0, 1)
	case key.Matches(msg, m.keys.ZoomIn):
		m.mapView = m.mapView.WithZoom(m.mapView.Zoom + 1)
	case key.Matches(msg, m.keys.ZoomOut):
		m.mapView = m.mapView.WithZoom(m.mapView.Zoom - 1)
	case key.Matches(msg, m.keys.Mark):
		m.engine.ClickMap(m.mapView.Center, m.mapView.Visible())
	case key.Matches(msg, m.keys.FocusList), key.Matches(msg, m.keys.Back):
		m.setFocus(views.FocusResults)
	}
	return nil
}

func (m *Model) highlighted() (domain.LocationCandidate, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Results) {
		return domain.LocationCandidate{}, false
	}
	return m.state.Results[m.cursor], true
}

// fetchHelpPager returns a command that shows content in the pager
func (m *Model) fetchHelpPager(content string) tea.Cmd {
	ops := m.helpOps
	return func() tea.Msg {
		return helpPagerMsg{err: ops.ShowHelpInPager(content)}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	errText := ""
	if m.state.Error != nil {
		errText = m.state.Error.Message
	}
	return m.renderer.Render(views.ViewState{
		Width:         m.width,
		Height:        m.height,
		Focus:         m.focus,
		Input:         m.input.View(),
		Results:       m.state.Results,
		Cursor:        m.cursor,
		ListOffset:    m.listOffset,
		Selected:      m.state.Selected,
		SearchLoading: m.state.SearchLoading,
		MarkLoading:   m.state.MarkLoading,
		Error:         errText,
		ViewFollow:    m.state.ViewFollowEnabled,
		Map:           m.mapView,
		Searched:      m.searched,
		NothingFound:  m.loc.Text(locale.MsgNothingFound),
		Searching:     m.loc.Text(locale.MsgSearching),
		Locating:      m.loc.Text(locale.MsgLocating),
		ShowInfo:      m.showInfo,
		InfoContent:   m.infoContent,
		Help:          m.help.View(m.keys),
	})
}
