package store

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

// The partition codec owns GeoJSON serialization for incident records because
// a record with empty geometry must round-trip as "geometry": null, which is
// a first-class state here rather than an error.

type featureDoc struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties propertiesDoc     `json:"properties"`
}

type collectionDoc struct {
	Type     string       `json:"type"`
	Features []featureDoc `json:"features"`
}

// propertiesDoc fixes the property set and ordering of a published record.
type propertiesDoc struct {
	DCKey           string   `json:"dc_key"`
	Date            string   `json:"date"`
	Race            string   `json:"race"`
	Sex             string   `json:"sex"`
	Fatal           bool     `json:"fatal"`
	Age             *float64 `json:"age"`
	AgeGroup        string   `json:"age_group"`
	StreetName      *string  `json:"street_name"`
	BlockNumber     *float64 `json:"block_number"`
	ZIPCode         *string  `json:"zip_code"`
	CouncilDistrict *string  `json:"council_district"`
	PoliceDistrict  *string  `json:"police_district"`
	Neighborhood    *string  `json:"neighborhood"`
	SchoolName      *string  `json:"school_name"`
	HouseDistrict   *string  `json:"house_district"`
	SenateDistrict  *string  `json:"senate_district"`
	SegmentID       *string  `json:"segment_id"`
	HasCourtCase    bool     `json:"has_court_case"`
}

func encodePartition(records []domain.IncidentRecord) ([]byte, error) {
	doc := collectionDoc{Type: "FeatureCollection", Features: make([]featureDoc, 0, len(records))}
	for _, rec := range records {
		doc.Features = append(doc.Features, featureFromRecord(rec))
	}
	return json.Marshal(doc)
}

func decodePartition(data []byte) ([]domain.IncidentRecord, error) {
	var doc collectionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("not a FeatureCollection: %q", doc.Type)
	}

	records := make([]domain.IncidentRecord, 0, len(doc.Features))
	for _, f := range doc.Features {
		records = append(records, recordFromFeature(f))
	}
	return records, nil
}

func featureFromRecord(rec domain.IncidentRecord) featureDoc {
	f := featureDoc{
		Type: "Feature",
		Properties: propertiesDoc{
			DCKey:           rec.DCKey,
			Date:            rec.Date,
			Race:            rec.Race,
			Sex:             rec.Sex,
			Fatal:           rec.Fatal,
			Age:             rec.Age,
			AgeGroup:        rec.AgeGroup,
			StreetName:      rec.StreetName,
			BlockNumber:     rec.BlockNumber,
			ZIPCode:         rec.ZIPCode,
			CouncilDistrict: rec.CouncilDistrict,
			PoliceDistrict:  rec.PoliceDistrict,
			Neighborhood:    rec.Neighborhood,
			SchoolName:      rec.SchoolName,
			HouseDistrict:   rec.HouseDistrict,
			SenateDistrict:  rec.SenateDistrict,
			SegmentID:       rec.SegmentID,
			HasCourtCase:    rec.HasCourtCase,
		},
	}
	if rec.Located() {
		f.Geometry = geojson.NewGeometry(rec.Geometry.Point)
	}
	return f
}

func recordFromFeature(f featureDoc) domain.IncidentRecord {
	p := f.Properties
	rec := domain.IncidentRecord{
		DCKey:           p.DCKey,
		Date:            p.Date,
		Race:            p.Race,
		Sex:             p.Sex,
		Fatal:           p.Fatal,
		Age:             p.Age,
		AgeGroup:        p.AgeGroup,
		StreetName:      p.StreetName,
		BlockNumber:     p.BlockNumber,
		ZIPCode:         p.ZIPCode,
		CouncilDistrict: p.CouncilDistrict,
		PoliceDistrict:  p.PoliceDistrict,
		Neighborhood:    p.Neighborhood,
		SchoolName:      p.SchoolName,
		HouseDistrict:   p.HouseDistrict,
		SenateDistrict:  p.SenateDistrict,
		SegmentID:       p.SegmentID,
		HasCourtCase:    p.HasCourtCase,
	}

	rec.Geometry = domain.EmptyGeometry()
	if f.Geometry != nil {
		if point, ok := f.Geometry.Geometry().(orb.Point); ok {
			rec.Geometry = domain.PointGeometry(point)
		}
	}
	return rec
}
