// Package geobox holds pure bounding-box helpers shared by the geocoder,
// the engine and the map consumers. Boxes are plain lat/lon rectangles.
package geobox

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"geopick/internal/domain"
)

// MaxMercatorLat is the latitude limit of web-mercator tiles
const MaxMercatorLat = 85.05112878

const tileSize = 256.0

var (
	ErrInverted   = errors.New("south is greater than north")
	ErrWrapping   = errors.New("box crosses the antimeridian")
	ErrOutOfRange = errors.New("coordinate out of range")
	ErrMalformed  = errors.New("malformed bounding box")
)

// New builds a canonical box, validating ordering and ranges
func New(south, west, north, east float64) (domain.BoundingBox, error) {
	for _, v := range []float64{south, west, north, east} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.BoundingBox{}, fmt.Errorf("%w: %v", ErrMalformed, v)
		}
	}
	if south > north {
		return domain.BoundingBox{}, fmt.Errorf("%w: %v > %v", ErrInverted, south, north)
	}
	if west > east {
		return domain.BoundingBox{}, fmt.Errorf("%w: west %v > east %v", ErrWrapping, west, east)
	}
	if south < -90 || north > 90 || west < -180 || east > 180 {
		return domain.BoundingBox{}, fmt.Errorf("%w: (%v, %v, %v, %v)", ErrOutOfRange, south, west, north, east)
	}
	return domain.BoundingBox{South: south, West: west, North: north, East: east}, nil
}

// FromProviderOrder parses the geocoder's raw box, which arrives as
// [south, north, west, east], into the canonical (south, west, north, east) box.
func FromProviderOrder(raw [4]string) (domain.BoundingBox, error) {
	var v [4]float64
	for i, s := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("%w: element %d %q", ErrMalformed, i, s)
		}
		v[i] = f
	}
	south, north, west, east := v[0], v[1], v[2], v[3]
	return New(south, west, north, east)
}

// Center returns the midpoint of the box
func Center(box domain.BoundingBox) domain.LatLng {
	c := Bound(box).Center()
	return domain.LatLng{Lat: c.Lat(), Lon: c.Lon()}
}

// PointBox returns the zero-area box at p
func PointBox(p domain.LatLng) domain.BoundingBox {
	return domain.BoundingBox{South: p.Lat, West: p.Lon, North: p.Lat, East: p.Lon}
}

// Bound converts the box to an orb bound (X is longitude, Y latitude)
func Bound(box domain.BoundingBox) orb.Bound {
	return orb.Bound{
		Min: orb.Point{box.West, box.South},
		Max: orb.Point{box.East, box.North},
	}
}

// FromBound converts an orb bound back to a canonical box
func FromBound(b orb.Bound) domain.BoundingBox {
	return domain.BoundingBox{
		South: b.Min.Lat(),
		West:  b.Min.Lon(),
		North: b.Max.Lat(),
		East:  b.Max.Lon(),
	}
}

// Contains reports whether p lies inside the box, edges included
func Contains(box domain.BoundingBox, p domain.LatLng) bool {
	return Bound(box).Contains(orb.Point{p.Lon, p.Lat})
}

// FitRegion pads the box by a fraction of its larger side so the fitted view
// does not put the place flush against the viewport edge. Point boxes get a
// minimum padding of minPadDegrees. The result is clamped to valid coordinates.
func FitRegion(box domain.BoundingBox, padFraction, minPadDegrees float64) domain.BoundingBox {
	b := Bound(box)
	side := math.Max(b.Max.Lon()-b.Min.Lon(), b.Max.Lat()-b.Min.Lat())
	pad := math.Max(side*padFraction, minPadDegrees)
	return clamp(FromBound(b.Pad(pad)))
}

// Around returns the box centered at c spanning halfLat/halfLon on each side,
// shifted back inside the valid range when it would overflow a pole or the antimeridian
func Around(c domain.LatLng, halfLat, halfLon float64) domain.BoundingBox {
	halfLat = math.Min(math.Abs(halfLat), 90)
	halfLon = math.Min(math.Abs(halfLon), 180)
	lat := math.Max(-90+halfLat, math.Min(90-halfLat, c.Lat))
	lon := math.Max(-180+halfLon, math.Min(180-halfLon, c.Lon))
	return domain.BoundingBox{
		South: lat - halfLat,
		West:  lon - halfLon,
		North: lat + halfLat,
		East:  lon + halfLon,
	}
}

// FitZoom returns the largest web-mercator zoom, up to maxZoom, at which the
// whole box fits in a widthPx x heightPx viewport
func FitZoom(box domain.BoundingBox, widthPx, heightPx int, maxZoom int) int {
	if widthPx <= 0 || heightPx <= 0 {
		return 0
	}
	nw := orb.Point{box.West, clampLat(box.North)}
	se := orb.Point{box.East, clampLat(box.South)}
	for z := maxZoom; z > 0; z-- {
		a := maptile.Fraction(nw, maptile.Zoom(z))
		b := maptile.Fraction(se, maptile.Zoom(z))
		w := math.Abs(b.X()-a.X()) * tileSize
		h := math.Abs(b.Y()-a.Y()) * tileSize
		if w <= float64(widthPx) && h <= float64(heightPx) {
			return z
		}
	}
	return 0
}

// Project returns p in fractional tile coordinates at zoom
func Project(p domain.LatLng, zoom int) (x, y float64) {
	f := maptile.Fraction(orb.Point{p.Lon, clampLat(p.Lat)}, maptile.Zoom(zoom))
	return f.X(), f.Y()
}

// Unproject is the inverse of Project
func Unproject(x, y float64, zoom int) domain.LatLng {
	n := math.Exp2(float64(zoom))
	lon := x/n*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*y/n))) * 180 / math.Pi
	return domain.LatLng{Lat: lat, Lon: lon}
}

// Viewport returns the box visible in a widthPx x heightPx web-mercator view
// centered on c at zoom
func Viewport(c domain.LatLng, zoom int, widthPx, heightPx int) domain.BoundingBox {
	cx, cy := Project(c, zoom)
	halfW := float64(widthPx) / 2 / tileSize
	halfH := float64(heightPx) / 2 / tileSize
	nw := Unproject(cx-halfW, cy-halfH, zoom)
	se := Unproject(cx+halfW, cy+halfH, zoom)
	return clamp(domain.BoundingBox{South: se.Lat, West: nw.Lon, North: nw.Lat, East: se.Lon})
}

func clampLat(lat float64) float64 {
	return math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))
}

func clamp(box domain.BoundingBox) domain.BoundingBox {
	box.South = math.Max(-90, box.South)
	box.North = math.Min(90, box.North)
	box.West = math.Max(-180, box.West)
	box.East = math.Min(180, box.East)
	return box
}
