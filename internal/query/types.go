package query

import (
	"time"

	"geopick/internal/debounce"
)

// DefaultDebounce is how long the input must be quiet before a search is sent
const DefaultDebounce = 300 * time.Millisecond

// Poster hands work to the goroutine that owns the selection store
type Poster interface {
	Post(fn func()) bool
}

// Config holds query controller settings
type Config struct {
	Debounce time.Duration
	Clock    debounce.Clock // nil uses the real clock
}
