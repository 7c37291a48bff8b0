package geocode

import (
	"fmt"
	"strconv"
	"strings"

	"geopick/internal/domain"
	"geopick/internal/geobox"
)

// rawAddress mirrors the structured address Nominatim returns with addressdetails=1
type rawAddress struct {
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Hamlet        string `json:"hamlet"`
	Municipality  string `json:"municipality"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Quarter       string `json:"quarter"`
	CityDistrict  string `json:"city_district"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
	Road          string `json:"road"`
}

// rawPlace mirrors the relevant parts of one search record
type rawPlace struct {
	PlaceID     int64       `json:"place_id"`
	DisplayName string      `json:"display_name"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	BoundingBox []string    `json:"boundingbox"` // south, north, west, east
	Address     *rawAddress `json:"address"`
}

func parsePlaces(raw []rawPlace) ([]domain.LocationCandidate, error) {
	out := make([]domain.LocationCandidate, 0, len(raw))
	for i, r := range raw {
		c, err := parsePlace(r)
		if err != nil {
			return nil, fmt.Errorf("record %d (place_id %d): %w", i, r.PlaceID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func parsePlace(r rawPlace) (domain.LocationCandidate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil {
		return domain.LocationCandidate{}, fmt.Errorf("lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil {
		return domain.LocationCandidate{}, fmt.Errorf("lon %q: %w", r.Lon, err)
	}

	c := domain.LocationCandidate{
		ID:          r.PlaceID,
		DisplayName: composeLabel(r),
		Center:      domain.LatLng{Lat: lat, Lon: lon},
	}

	switch len(r.BoundingBox) {
	case 0:
		// Optional; consumers fall back to a point box around the center
	case 4:
		box, err := geobox.FromProviderOrder([4]string(r.BoundingBox))
		if err != nil {
			return domain.LocationCandidate{}, err
		}
		c.BoundingBox = &box
	default:
		return domain.LocationCandidate{}, fmt.Errorf("%w: %d elements", geobox.ErrMalformed, len(r.BoundingBox))
	}
	return c, nil
}

// composeLabel builds "neighbourhood, city, state, postcode, road" from the
// structured address, or falls back to the provider's display name
func composeLabel(r rawPlace) string {
	if r.Address == nil {
		return strings.TrimSpace(r.DisplayName)
	}
	a := r.Address
	parts := []string{
		firstNonEmpty(a.Suburb, a.Neighbourhood, a.Quarter, a.CityDistrict),
		firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.Municipality),
		strings.TrimSpace(a.State),
		strings.TrimSpace(a.Postcode),
		strings.TrimSpace(a.Road),
	}

	label := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			label = append(label, p)
		}
	}
	if len(label) == 0 {
		return strings.TrimSpace(r.DisplayName)
	}
	return strings.Join(label, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
