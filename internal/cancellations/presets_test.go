package cancellations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatePresetsAtUsesLocalCalendar(t *testing.T) {
	// 01:30 at UTC+2 is still the previous day in UTC.
	zone := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, time.March, 5, 1, 30, 0, 0, zone)

	presets := DatePresetsAt(now)
	assert.Equal(t, DateRange{From: "2024-02-27", To: "2024-03-05"}, presets.Last7)
	assert.Equal(t, DateRange{From: "2024-02-04", To: "2024-03-05"}, presets.Last30)
	assert.Equal(t, DateRange{From: "2024-03-01", To: "2024-03-05"}, presets.ThisMonth)
	assert.Equal(t, DateRange{From: "2024-02-01", To: "2024-02-29"}, presets.LastMonth)
	assert.Equal(t, DateRange{From: "2024-01-01", To: "2024-03-05"}, presets.ThisYear)
	assert.Equal(t, DateRange{}, presets.All)
}

func TestDatePresetsAtLateEveningWestOfUTC(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2025, time.January, 10, 23, 45, 0, 0, zone)

	presets := DatePresetsAt(now)
	assert.Equal(t, "2025-01-10", presets.Last7.To)
	assert.Equal(t, "2025-01-03", presets.Last7.From)
	assert.Equal(t, DateRange{From: "2024-12-01", To: "2024-12-31"}, presets.LastMonth)
	assert.Equal(t, "2025-01-01", presets.ThisMonth.From)
}

func TestPresetLookup(t *testing.T) {
	presets := DatePresetsAt(time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC))

	for _, name := range PresetNames {
		_, err := presets.Preset(name)
		require.NoError(t, err, name)
	}

	thisMonth, err := presets.Preset(PresetThisMonth)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", thisMonth.From)

	_, err = presets.Preset("yesterday")
	assert.Error(t, err)
}
