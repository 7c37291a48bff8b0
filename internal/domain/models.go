package domain

import "strconv"

// LatLng is a latitude/longitude pair in decimal degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String formats the point the way the geocoder expects a coordinate query
func (p LatLng) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// BoundingBox is an axis-aligned lat/lon rectangle in canonical
// (south, west, north, east) order. South <= North always holds and boxes
// never cross the antimeridian.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Tuple returns the box as its canonical 4-tuple
func (b BoundingBox) Tuple() [4]float64 {
	return [4]float64{b.South, b.West, b.North, b.East}
}

// LocationCandidate is one geocoding hit
type LocationCandidate struct {
	ID          int64        `json:"id"`          // provider place_id, unique within one result set
	DisplayName string       `json:"displayName"` // provider label or one composed from the address
	Center      LatLng       `json:"center"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

// Box returns the candidate's bounding box, or a point-sized box around its
// center when the provider did not send one
func (c LocationCandidate) Box() BoundingBox {
	if c.BoundingBox != nil {
		return *c.BoundingBox
	}
	return BoundingBox{
		South: c.Center.Lat,
		West:  c.Center.Lon,
		North: c.Center.Lat,
		East:  c.Center.Lon,
	}
}

// Clone returns a deep copy of the candidate
func (c *LocationCandidate) Clone() *LocationCandidate {
	if c == nil {
		return nil
	}
	out := *c
	if c.BoundingBox != nil {
		box := *c.BoundingBox
		out.BoundingBox = &box
	}
	return &out
}

// Equal reports whether two candidates carry the same values
func (c *LocationCandidate) Equal(other *LocationCandidate) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.ID != other.ID || c.DisplayName != other.DisplayName || c.Center != other.Center {
		return false
	}
	if c.BoundingBox == nil || other.BoundingBox == nil {
		return c.BoundingBox == other.BoundingBox
	}
	return *c.BoundingBox == *other.BoundingBox
}

// ErrorKind classifies the error stored in the selection state
type ErrorKind string

const (
	ErrorKindGeocode ErrorKind = "geocode"
)

// Failure is the user-facing error held by the selection state
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"` // localized
}

// SelectionState is the engine's single source of truth
type SelectionState struct {
	Selected          *LocationCandidate  `json:"selected"`
	Results           []LocationCandidate `json:"results"` // provider rank order
	SearchLoading     bool                `json:"searchLoading"`
	MarkLoading       bool                `json:"markLoading"` // reverse lookup in flight
	Error             *Failure            `json:"error"`
	ViewFollowEnabled bool                `json:"viewFollowEnabled"`
	Marker            *LatLng             `json:"marker"` // provisional marker from the last map click
}

// Clone returns a deep copy safe to hand to readers on other goroutines
func (s SelectionState) Clone() SelectionState {
	out := s
	out.Selected = s.Selected.Clone()
	out.Results = make([]LocationCandidate, len(s.Results))
	for i := range s.Results {
		out.Results[i] = *s.Results[i].Clone()
	}
	if s.Error != nil {
		failure := *s.Error
		out.Error = &failure
	}
	if s.Marker != nil {
		marker := *s.Marker
		out.Marker = &marker
	}
	return out
}

// FindResult returns the result with the given id, if present
func (s SelectionState) FindResult(id int64) (LocationCandidate, bool) {
	for _, r := range s.Results {
		if r.ID == id {
			return r, true
		}
	}
	return LocationCandidate{}, false
}
