package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/transsync/schedule-api/internal/schedule"
)

func TestToDisplay(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"wire format", "2024-05-01 08:00:00", "01/05/2024, 08:00"},
		{"iso without zone", "2024-05-01T08:00:00", "01/05/2024, 08:00"},
		{"input control", "2024-12-31T23:59", "31/12/2024, 23:59"},
		{"iso with zone keeps wall clock", "2024-05-01T08:00:00-05:00", "01/05/2024, 08:00"},
		{"fractional seconds", "2024-05-01T08:00:00.000Z", "01/05/2024, 08:00"},
		{"date only", "2024-05-01", "01/05/2024, 00:00"},
		{"malformed returns raw", "mañana temprano", "mañana temprano"},
		{"empty returns empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, schedule.ToDisplay(tc.raw))
		})
	}
}

func TestToInputValue(t *testing.T) {
	assert.Equal(t, "2024-05-01T08:00", schedule.ToInputValue("2024-05-01 08:00:59"))
	assert.Equal(t, "2024-05-01T08:00", schedule.ToInputValue(" 2024-05-01T08:00 "))
	assert.Equal(t, "", schedule.ToInputValue("2024-13-45 99:99:99"))
	assert.Equal(t, "", schedule.ToInputValue("not a date"))
}

func TestToWireFormat(t *testing.T) {
	assert.Equal(t, "2024-05-01 08:00:00", schedule.ToWireFormat("2024-05-01T08:00"))
	assert.Equal(t, "2024-05-01 08:00:30", schedule.ToWireFormat("2024-05-01T08:00:30"))
	assert.Equal(t, "", schedule.ToWireFormat(""))
}

// TestWireRoundTrip checks that converting to the input control and back
// yields the same timestamp truncated to the minute.
func TestWireRoundTrip(t *testing.T) {
	cases := map[string]string{
		"2024-05-01 08:00:00":       "2024-05-01 08:00:00",
		"2024-05-01 08:15:42":       "2024-05-01 08:15:00",
		"2023-02-28T23:59:59":       "2023-02-28 23:59:00",
		"2024-02-29T00:00:00Z":      "2024-02-29 00:00:00",
		"2025-07-04T18:30:00+02:00": "2025-07-04 18:30:00",
	}
	for in, want := range cases {
		got := schedule.ToWireFormat(schedule.ToInputValue(in))
		assert.Equal(t, want, got, in)

		parsed, ok := schedule.ParseTimestamp(in)
		assert.True(t, ok, in)
		assert.Equal(t, parsed.Truncate(60e9).Format(schedule.WireLayout), got, in)
	}
}

func TestParseTimestamp_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "01/05/2024", "2024-05-01 8am", "null"} {
		_, ok := schedule.ParseTimestamp(raw)
		assert.False(t, ok, raw)
	}
}
