package courts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

func record(dcKey string) domain.IncidentRecord {
	return domain.IncidentRecord{DCKey: dcKey}
}

func TestMerge(t *testing.T) {
	idx := NewIndex()
	idx.Apply(map[string]bool{"202400001": true, "202400002": false})

	records := []domain.IncidentRecord{record("202400001"), record("202400002"), record("202400003")}

	t.Run("closed world fill", func(t *testing.T) {
		out := idx.Merge(records)
		assert.True(t, out[0].HasCourtCase)
		assert.False(t, out[1].HasCourtCase)
		assert.False(t, out[2].HasCourtCase)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := idx.Merge(records)
		twice := idx.Merge(once)
		assert.Equal(t, once, twice)
	})

	t.Run("input not mutated", func(t *testing.T) {
		_ = idx.Merge(records)
		assert.False(t, records[0].HasCourtCase)
	})
}

func TestUnresolved(t *testing.T) {
	idx := NewIndex()
	idx.Apply(map[string]bool{"202400001": true, "202400002": false})

	records := []domain.IncidentRecord{
		record("202400001"), // resolved true, must be excluded
		record("202400002"), // recorded false, still scrapeable
		record("202400003"), // never seen
		record("202400003"), // duplicate
		record(""),          // no key
	}

	assert.Equal(t, []string{"202400002", "202400003"}, idx.Unresolved(records))
}

func TestApply(t *testing.T) {
	t.Run("true is never demoted", func(t *testing.T) {
		idx := NewIndex()
		idx.Apply(map[string]bool{"202400001": true})
		idx.Apply(map[string]bool{"202400001": false})
		assert.True(t, idx.Has("202400001"))
	})

	t.Run("false can be promoted", func(t *testing.T) {
		idx := NewIndex()
		idx.Apply(map[string]bool{"202400002": false})
		idx.Apply(map[string]bool{"202400002": true})
		assert.True(t, idx.Has("202400002"))
	})
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraped_courts_data.csv")

	t.Run("missing file loads empty", func(t *testing.T) {
		idx, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 0, idx.Len())
	})

	t.Run("round trip", func(t *testing.T) {
		idx := NewIndex()
		idx.Apply(map[string]bool{"202400001": true, "202400002": false})
		require.NoError(t, idx.Save(path))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Len())
		assert.True(t, loaded.Has("202400001"))
		assert.False(t, loaded.Has("202400002"))
	})
}
