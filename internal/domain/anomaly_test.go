package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAnomaly(t *testing.T) {
	tests := []struct {
		name     string
		newCount int
		oldCount int
		wantErr  bool
		reason   string
	}{
		{"within both tolerances", 1050, 1000, false, ""},
		{"exactly at upper tolerance", 1100, 1000, false, ""},
		{"exceeds upper tolerance", 1101, 1000, true, "too many new rows"},
		{"just under upper tolerance", 1090, 1000, false, ""},
		{"exactly at lower tolerance", 990, 1000, false, ""},
		{"just inside lower tolerance", 989, 1000, true, "too few rows"},
		{"well below lower tolerance", 985, 1000, true, "too few rows"},
		{"equal counts", 1000, 1000, false, ""},
		{"first ever run", 500, 0, true, "too many new rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAnomaly(tt.newCount, tt.oldCount, DefaultUpperTolerance, DefaultLowerTolerance)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ad *AnomalyDetected
			require.ErrorAs(t, err, &ad)
			assert.Equal(t, tt.reason, ad.Reason)
			assert.Equal(t, tt.newCount, ad.NewCount)
			assert.Equal(t, tt.oldCount, ad.OldCount)
		})
	}
}

func TestCheckAnomaly_CustomTolerances(t *testing.T) {
	assert.NoError(t, CheckAnomaly(1200, 1000, 250, 10))
	assert.Error(t, CheckAnomaly(995, 1000, 100, 3))
}

func TestCheckAnomaly_ZeroTolerancesFallBackToDefaults(t *testing.T) {
	assert.NoError(t, CheckAnomaly(1090, 1000, 0, 0))
	assert.Error(t, CheckAnomaly(1101, 1000, 0, 0))
}
