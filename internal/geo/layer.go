// Package geo assigns incident records to the polygon regions of named
// boundary layers and recovers missing point locations.
//
// Boundary layers are read-only GeoJSON polygon datasets, already in the
// working coordinate system, each exposing exactly one attribute of interest
// (a zip code, a district number, a neighborhood name). The enricher performs
// a containment join per layer with a first-match tie-break, so overlapping
// or duplicated boundary polygons can never double-count a record.
package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// LayerSpec names a boundary layer, its GeoJSON file, and the feature
// property carrying the attribute of interest. Field doubles as the record
// column the layer populates.
type LayerSpec struct {
	Name  string
	File  string
	Field string
}

// DefaultLayers is the fixed, ordered set of boundary layers joined into the
// published dataset. The neighborhoods layer is authoritative for whether a
// record counts as located.
var DefaultLayers = []LayerSpec{
	{Name: "zip_codes", File: "zip_codes.geojson", Field: "zip_code"},
	{Name: "police_districts", File: "police_districts.geojson", Field: "police_district"},
	{Name: "council_districts", File: "council_districts.geojson", Field: "council_district"},
	{Name: "neighborhoods", File: "neighborhoods.geojson", Field: "neighborhood"},
	{Name: "school_catchments", File: "school_catchments.geojson", Field: "school_name"},
	{Name: "pa_house_districts", File: "pa_house_districts.geojson", Field: "house_district"},
	{Name: "pa_senate_districts", File: "pa_senate_districts.geojson", Field: "senate_district"},
}

// Region is one polygon feature of a boundary layer.
type Region struct {
	Value    string
	Geometry orb.Geometry
}

// Layer is a named polygon layer with one attribute column.
type Layer struct {
	Name    string
	Field   string
	Regions []Region
}

// NewLayer builds a layer from a decoded GeoJSON feature collection, reading
// the attribute from the named property of each feature. Features without the
// property or without polygonal geometry are skipped.
func NewLayer(name, field string, fc *geojson.FeatureCollection) *Layer {
	l := &Layer{Name: name, Field: field}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		value := propString(f.Properties, field)
		if value == "" {
			continue
		}
		l.Regions = append(l.Regions, Region{Value: value, Geometry: f.Geometry})
	}
	return l
}

// LoadLayer reads a boundary layer from a GeoJSON file.
func LoadLayer(path, name, field string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layer %s: %w", name, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode layer %s: %w", name, err)
	}
	return NewLayer(name, field, fc), nil
}

// Find returns the attribute value of the first region containing p. Regions
// are checked in file order, which implements the first-match tie-break for
// overlapping boundary data.
func (l *Layer) Find(p orb.Point) (string, bool) {
	for _, r := range l.Regions {
		if contains(r.Geometry, p) {
			return r.Value, true
		}
	}
	return "", false
}

// Contains reports whether any region of the layer contains p. Used with a
// single-feature layer as a city-limits check.
func (l *Layer) Contains(p orb.Point) bool {
	_, ok := l.Find(p)
	return ok
}

// FeatureCollection converts the layer back to GeoJSON for publication.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range l.Regions {
		f := geojson.NewFeature(r.Geometry)
		f.Properties[l.Field] = r.Value
		fc.Append(f)
	}
	return fc
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	default:
		return false
	}
}

func propString(props geojson.Properties, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}
