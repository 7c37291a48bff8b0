package ui

import (
	"time"

	"geopick/internal/domain"
)

// StateMsg carries a selection snapshot into the UI
type StateMsg struct {
	State domain.SelectionState
}

// tickMsg is sent on a timer for the loading spinner
type tickMsg time.Time
