package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindConflicts(t *testing.T) {
	existing := []Slot{
		{ReservationID: "a", Party: TimeRange{Start: 10 * 60, End: 12 * 60}},
		{ReservationID: "b", Party: TimeRange{Start: 14 * 60, End: 16 * 60}},
	}

	cases := []struct {
		name      string
		want      TimeRange
		exclude   string
		available bool
		conflicts []string
	}{
		{"gap between", TimeRange{Start: 12 * 60, End: 14 * 60}, "", true, []string{}},
		{"touches end of a", TimeRange{Start: 12 * 60, End: 13 * 60}, "", true, []string{}},
		{"touches start of b", TimeRange{Start: 13 * 60, End: 14 * 60}, "", true, []string{}},
		{"overlaps a", TimeRange{Start: 11*60 + 30, End: 13 * 60}, "", false, []string{"a"}},
		{"inside b", TimeRange{Start: 14*60 + 30, End: 15 * 60}, "", false, []string{"b"}},
		{"covers both", TimeRange{Start: 9 * 60, End: 17 * 60}, "", false, []string{"a", "b"}},
		{"excludes self", TimeRange{Start: 10 * 60, End: 12 * 60}, "a", true, []string{}},
		{"exclude does not hide others", TimeRange{Start: 9 * 60, End: 17 * 60}, "a", false, []string{"b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FindConflicts(existing, tc.want, tc.exclude)
			assert.Equal(t, tc.available, got.Available)
			assert.Equal(t, tc.conflicts, got.Conflicts)
		})
	}
}

func TestFindConflicts_EmptyPartition(t *testing.T) {
	got := FindConflicts(nil, TimeRange{Start: 0, End: 24 * 60}, "")
	assert.True(t, got.Available)
	assert.NotNil(t, got.Conflicts)
}
