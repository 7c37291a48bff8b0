package selection

import "geopick/internal/domain"

// Handler receives the state snapshot taken right after a field changed
type Handler func(state domain.SelectionState)

// ChangeHandler receives one event per mutation that changed any field
type ChangeHandler func(event domain.StateChangedEvent)

// Store operation names, carried on StateChangedEvent.Op
const (
	OpBeginSearch    = "beginSearch"
	OpCompleteSearch = "completeSearch"
	OpFailSearch     = "failSearch"
	OpResetSearch    = "resetSearch"
	OpBeginMark      = "beginMark"
	OpCompleteMark   = "completeMark"
	OpFailMark       = "failMark"
	OpSelect         = "select"
	OpSetViewFollow  = "setViewFollowEnabled"
	OpResetSelection = "resetSelection"
)
