package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Boundary is a polygonal containment mask with no attribute column, used for
// the city-limits check.
type Boundary struct {
	geometries []orb.Geometry
}

// NewBoundary collects the polygonal geometries of a feature collection.
func NewBoundary(fc *geojson.FeatureCollection) *Boundary {
	b := &Boundary{}
	for _, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			b.geometries = append(b.geometries, f.Geometry)
		}
	}
	return b
}

// LoadBoundary reads a containment mask from a GeoJSON file.
func LoadBoundary(path string) (*Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode boundary: %w", err)
	}
	b := NewBoundary(fc)
	if len(b.geometries) == 0 {
		return nil, fmt.Errorf("boundary %s has no polygonal features", path)
	}
	return b, nil
}

// Contains reports whether p falls inside any polygon of the mask.
func (b *Boundary) Contains(p orb.Point) bool {
	for _, g := range b.geometries {
		if contains(g, p) {
			return true
		}
	}
	return false
}
