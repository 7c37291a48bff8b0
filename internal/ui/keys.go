package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds every binding the model reacts to
type keyMap struct {
	Quit       key.Binding
	NextFocus  key.Binding
	Search     key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	PanFast    key.Binding
	ZoomIn     key.Binding
	ZoomOut    key.Binding
	Choose     key.Binding
	Mark       key.Binding
	Follow     key.Binding
	Clear      key.Binding
	Info       key.Binding
	Help       key.Binding
	Back       key.Binding
	FocusMap   key.Binding
	FocusList  key.Binding
	FlushInput key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextFocus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		PanFast:    key.NewBinding(key.WithKeys("H", "J", "K", "L"), key.WithHelp("H/J/K/L", "pan faster")),
		ZoomIn:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:    key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Choose:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Mark:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "mark at crosshair")),
		Follow:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle view follow")),
		Clear:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear selection")),
		Info:       key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "place details")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		FocusMap:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "map")),
		FocusList:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "results")),
		FlushInput: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search now")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextFocus, k.Search, k.FocusMap, k.Follow, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FlushInput, k.NextFocus, k.Back},
		{k.Up, k.Down, k.Choose, k.Info, k.Clear},
		{k.Left, k.Right, k.Up, k.Down, k.PanFast, k.ZoomIn, k.ZoomOut, k.Mark},
		{k.Search, k.FocusList, k.FocusMap, k.Follow, k.Help, k.Quit},
	}
}

// helpSections names the FullHelp columns
var helpSections = []string{"Search", "Results", "Map", "Other"}
