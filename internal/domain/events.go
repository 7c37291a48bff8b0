package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	// State field changes, published by the selection store
	EventSelectedChanged      EventType = "SelectedChanged"
	EventResultsChanged       EventType = "ResultsChanged"
	EventSearchLoadingChanged EventType = "SearchLoadingChanged"
	EventMarkLoadingChanged   EventType = "MarkLoadingChanged"
	EventErrorChanged         EventType = "ErrorChanged"
	EventViewFollowChanged    EventType = "ViewFollowChanged"
	EventMarkerChanged        EventType = "MarkerChanged"
	EventStateChanged         EventType = "StateChanged"

	// Request lifecycle, published by the query controller and map coordinator
	EventSearchRequested EventType = "SearchRequested"
	EventSearchResolved  EventType = "SearchResolved"
	EventSearchDiscarded EventType = "SearchDiscarded"
	EventMarkRequested   EventType = "MarkRequested"
	EventMarkResolved    EventType = "MarkResolved"
	EventMarkDiscarded   EventType = "MarkDiscarded"

	// Configuration
	EventConfigLoaded EventType = "ConfigLoaded"
	EventConfigSaved  EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// Field names one field of the selection state
type Field string

// Selection state fields
const (
	FieldSelected      Field = "selected"
	FieldResults       Field = "results"
	FieldSearchLoading Field = "searchLoading"
	FieldMarkLoading   Field = "markLoading"
	FieldError         Field = "error"
	FieldViewFollow    Field = "viewFollowEnabled"
	FieldMarker        Field = "marker"
)

// AllFields lists every selection state field in a stable order
var AllFields = []Field{
	FieldSelected,
	FieldResults,
	FieldSearchLoading,
	FieldMarkLoading,
	FieldError,
	FieldViewFollow,
	FieldMarker,
}

// EventType returns the change event published for the field
func (f Field) EventType() EventType {
	switch f {
	case FieldSelected:
		return EventSelectedChanged
	case FieldResults:
		return EventResultsChanged
	case FieldSearchLoading:
		return EventSearchLoadingChanged
	case FieldMarkLoading:
		return EventMarkLoadingChanged
	case FieldError:
		return EventErrorChanged
	case FieldViewFollow:
		return EventViewFollowChanged
	case FieldMarker:
		return EventMarkerChanged
	}
	return EventStateChanged
}

// FieldChangedEvent is emitted when a single state field changed value
type FieldChangedEvent struct {
	Field Field
	State SelectionState // snapshot after the mutation
}

func (e FieldChangedEvent) Type() EventType { return e.Field.EventType() }

// StateChangedEvent is emitted once per mutation that changed at least one field
type StateChangedEvent struct {
	Op     string  // store operation that produced the change
	Fields []Field // changed fields in AllFields order
	State  SelectionState
}

func (e StateChangedEvent) Type() EventType { return EventStateChanged }

// Has reports whether the field is among the changed ones
func (e StateChangedEvent) Has(field Field) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// SearchRequestedEvent is emitted when a debounced text search is sent
type SearchRequestedEvent struct {
	RequestID uint64
	Term      string
}

func (e SearchRequestedEvent) Type() EventType { return EventSearchRequested }

// SearchResolvedEvent is emitted when the latest text search finished and
// its outcome was written to the store
type SearchResolvedEvent struct {
	RequestID uint64
	Term      string
	Count     int
	Err       error
}

func (e SearchResolvedEvent) Type() EventType { return EventSearchResolved }

// SearchDiscardedEvent is emitted when a superseded or cancelled search
// resolves and is dropped without touching the store
type SearchDiscardedEvent struct {
	RequestID uint64
	Term      string
}

func (e SearchDiscardedEvent) Type() EventType { return EventSearchDiscarded }

// MarkRequestedEvent is emitted when a map click starts a reverse lookup
type MarkRequestedEvent struct {
	RequestID uint64
	At        LatLng
	Visible   BoundingBox
}

func (e MarkRequestedEvent) Type() EventType { return EventMarkRequested }

// MarkResolvedEvent is emitted when the latest reverse lookup finished
type MarkResolvedEvent struct {
	RequestID uint64
	At        LatLng
	Selected  *LocationCandidate
	Err       error
}

func (e MarkResolvedEvent) Type() EventType { return EventMarkResolved }

// MarkDiscardedEvent is emitted when a superseded reverse lookup is dropped
type MarkDiscardedEvent struct {
	RequestID uint64
	At        LatLng
}

func (e MarkDiscardedEvent) Type() EventType { return EventMarkDiscarded }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path    string
	Default bool // no file existed, defaults were used
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is written
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
