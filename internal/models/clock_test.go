package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "00:00", want: 0},
		{raw: "09:30", want: 570},
		{raw: "23:59", want: 1439},
		{raw: " 08:15 ", want: 495},
		{raw: "24:00", wantErr: true},
		{raw: "09:60", wantErr: true},
		{raw: "0900", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, minutes := range []int{0, 60, 570, 1439} {
		parsed, err := ParseClock(FormatClock(minutes))
		require.NoError(t, err)
		assert.Equal(t, minutes, parsed)
	}
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("monday")
	require.NoError(t, err)
	assert.Equal(t, Monday, day)

	day, err = ParseWeekday("WED")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, day)

	day, err = ParseWeekday(" fri ")
	require.NoError(t, err)
	assert.Equal(t, Friday, day)

	// Only the full name and the exact three-letter form pass.
	for _, raw := range []string{"someday", "MONDAYXYZ", "TUES", "MO", ""} {
		_, err = ParseWeekday(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseTimeRange(t *testing.T) {
	window, err := ParseTimeRange("09:00-10:30")
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 540, End: 630}, window)

	_, err = ParseTimeRange("10:00-09:00")
	assert.Error(t, err, "inverted range must fail")

	_, err = ParseTimeRange("09:00-09:00")
	assert.Error(t, err, "zero-length range must fail")
}

func TestTimeRangeOverlaps(t *testing.T) {
	base := TimeRange{Start: 540, End: 600}

	assert.True(t, base.Overlaps(TimeRange{Start: 570, End: 630}))
	assert.True(t, base.Overlaps(TimeRange{Start: 500, End: 550}))
	assert.True(t, base.Overlaps(TimeRange{Start: 550, End: 560}))

	// Half-open windows: touching boundaries do not overlap.
	assert.False(t, base.Overlaps(TimeRange{Start: 600, End: 660}))
	assert.False(t, base.Overlaps(TimeRange{Start: 480, End: 540}))
}

func TestTimeRangeContains(t *testing.T) {
	base := TimeRange{Start: 540, End: 660}
	assert.True(t, base.Contains(TimeRange{Start: 540, End: 660}))
	assert.True(t, base.Contains(TimeRange{Start: 570, End: 600}))
	assert.False(t, base.Contains(TimeRange{Start: 530, End: 600}))
	assert.False(t, base.Contains(TimeRange{Start: 600, End: 670}))
}
