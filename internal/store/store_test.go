package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string    { return &s }
func floatPtr(v float64) *float64 { return &v }

func sampleRecord(dcKey, date string) domain.IncidentRecord {
	return domain.IncidentRecord{
		DCKey:        dcKey,
		Date:         date,
		Race:         domain.RaceBlack,
		Sex:          "M",
		Fatal:        true,
		Age:          floatPtr(24),
		AgeGroup:     domain.Age18To30,
		Geometry:     domain.PointGeometry(orb.Point{-75.16, 39.95}),
		ZIPCode:      strPtr("19104"),
		Neighborhood: strPtr("Mill Creek"),
		SegmentID:    strPtr("seg-42"),
		HasCourtCase: true,
	}
}

func TestSaveYearPartitions(t *testing.T) {
	s := New(t.TempDir(), discardLogger())

	records := []domain.IncidentRecord{
		sampleRecord("202400001", "2024/03/05 21:15:00"),
		sampleRecord("202300001", "2023/07/01 02:00:00"),
		sampleRecord("202400002", "2024/01/15 12:30:00"),
	}

	partitions, err := s.SaveYearPartitions(records)
	require.NoError(t, err)
	require.Len(t, partitions, 2)

	t.Run("partitions sorted descending by year", func(t *testing.T) {
		assert.Equal(t, 2024, partitions[0].Year)
		assert.Equal(t, 2, partitions[0].Rows)
		assert.Equal(t, "shootings_2024.json", partitions[0].Object)
		assert.Equal(t, 2023, partitions[1].Year)
	})

	t.Run("data_years descending", func(t *testing.T) {
		years, err := s.DataYears()
		require.NoError(t, err)
		assert.Equal(t, []int{2024, 2023}, years)
	})

	t.Run("round trip preserves keys and fields", func(t *testing.T) {
		loaded, err := s.LoadYearPartition(2024)
		require.NoError(t, err)
		require.Len(t, loaded, 2)

		keys := []string{loaded[0].DCKey, loaded[1].DCKey}
		assert.ElementsMatch(t, []string{"202400001", "202400002"}, keys)

		rec := loaded[0]
		assert.Equal(t, domain.RaceBlack, rec.Race)
		assert.True(t, rec.Fatal)
		assert.Equal(t, 24.0, *rec.Age)
		assert.Equal(t, "19104", *rec.ZIPCode)
		assert.Equal(t, "Mill Creek", *rec.Neighborhood)
		assert.Equal(t, "seg-42", *rec.SegmentID)
		assert.True(t, rec.HasCourtCase)
		assert.True(t, rec.Located())
		assert.Equal(t, orb.Point{-75.16, 39.95}, rec.Geometry.Point)
	})

	t.Run("count existing sums all partitions", func(t *testing.T) {
		count, err := s.CountExisting()
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("rerun fully replaces a year", func(t *testing.T) {
		_, err := s.SaveYearPartitions([]domain.IncidentRecord{
			sampleRecord("202400009", "2024/06/01 00:00:00"),
		})
		require.NoError(t, err)

		loaded, err := s.LoadYearPartition(2024)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "202400009", loaded[0].DCKey)
	})
}

func TestSaveYearPartitions_UnparseableDate(t *testing.T) {
	s := New(t.TempDir(), discardLogger())
	_, err := s.SaveYearPartitions([]domain.IncidentRecord{sampleRecord("202400001", "bad date")})
	require.Error(t, err)
}

func TestEmptyGeometryRoundTrip(t *testing.T) {
	s := New(t.TempDir(), discardLogger())

	rec := sampleRecord("202400001", "2024/03/05 21:15:00")
	rec.Geometry = domain.EmptyGeometry()
	rec.ZIPCode = nil
	rec.Neighborhood = nil
	rec.SegmentID = nil

	_, err := s.SaveYearPartitions([]domain.IncidentRecord{rec})
	require.NoError(t, err)

	t.Run("geometry serialized as null", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(s.dataDir, "processed", "shootings_2024.json"))
		require.NoError(t, err)

		var doc struct {
			Features []struct {
				Geometry json.RawMessage `json:"geometry"`
			} `json:"features"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		require.Len(t, doc.Features, 1)
		assert.Equal(t, "null", string(doc.Features[0].Geometry))
	})

	t.Run("loads back as empty sentinel", func(t *testing.T) {
		loaded, err := s.LoadYearPartition(2024)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.False(t, loaded[0].Located())
		assert.Nil(t, loaded[0].Neighborhood)
	})
}

func TestCountExisting_NoData(t *testing.T) {
	s := New(t.TempDir(), discardLogger())
	count, err := s.CountExisting()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUpdateMeta(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, discardLogger())
	path := filepath.Join(dir, "meta.json")

	t.Run("creates file when missing", func(t *testing.T) {
		require.NoError(t, s.UpdateMeta(map[string]string{"last_updated_shootings": "2024-05-03 06:00:00"}))

		meta := readMeta(t, path)
		assert.Equal(t, "2024-05-03 06:00:00", meta["last_updated_shootings"])
	})

	t.Run("preserves unrelated keys and drops legacy key", func(t *testing.T) {
		seed := map[string]string{
			"last_updated":           "2020-01-01 00:00:00",
			"last_updated_homicides": "2024-05-02 06:00:00",
			"some_other_subsystem":   "kept",
		}
		data, err := json.Marshal(seed)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o644))

		require.NoError(t, s.UpdateMeta(map[string]string{"last_updated_shootings": "2024-05-03 06:00:00"}))

		meta := readMeta(t, path)
		assert.Equal(t, "kept", meta["some_other_subsystem"])
		assert.Equal(t, "2024-05-02 06:00:00", meta["last_updated_homicides"])
		assert.Equal(t, "2024-05-03 06:00:00", meta["last_updated_shootings"])
		_, hasLegacy := meta["last_updated"]
		assert.False(t, hasLegacy)
	})
}

func readMeta(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	meta := make(map[string]string)
	require.NoError(t, json.Unmarshal(data, &meta))
	return meta
}
