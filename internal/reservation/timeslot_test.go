package reservation

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	for in, want := range map[string]TimeOfDay{
		"00:00": 0,
		"09:30": 9*60 + 30,
		"23:59": 23*60 + 59,
		"24:00": 24 * 60,
	} {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, in, got.String())
	}

	for _, in := range []string{"", "9:30", "09:3", "24:30", "25:00", "12:60", "+1:00", "12-00", "12:00:00"} {
		_, err := ParseTimeOfDay(in)
		assert.Error(t, err, in)
	}
}

func TestTimeOfDay_JSON(t *testing.T) {
	b, err := json.Marshal(TimeOfDay(18*60 + 30))
	require.NoError(t, err)
	assert.Equal(t, `"18:30"`, string(b))

	var got TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"07:00"`), &got))
	assert.Equal(t, TimeOfDay(7*60), got)
	assert.Error(t, json.Unmarshal([]byte(`420`), &got))
}

func TestDate_JSONAndOrdering(t *testing.T) {
	d, err := ParseDate("2030-07-15")
	require.NoError(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2030-07-15"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d))
	assert.True(t, d.Before(d.AddDays(1)))

	_, err = ParseDate("15/07/2030")
	assert.Error(t, err)
}

func TestDate_AtAcrossDST(t *testing.T) {
	loc := newYork(t)
	// 2030-03-10 is the spring-forward day in New York.
	d := NewDate(2030, time.March, 10)
	got := d.At(tod(t, "18:00"), loc)
	assert.Equal(t, 18, got.Hour())
	assert.Equal(t, 10, got.Day())
}

func TestDateIn_UsesCommunityZone(t *testing.T) {
	// 02:00 UTC on June 2 is still June 1 in New York.
	instant := time.Date(2030, time.June, 2, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2030-06-01", DateIn(instant, newYork(t)).String())
}

func TestSchedule_Validate(t *testing.T) {
	loc := newYork(t)
	now := testNow(t)

	ok := schedule(t, "2030-07-15", "18:00", "22:00")
	require.NoError(t, ok.Validate(now, loc))

	cases := map[string]func(s *Schedule){
		"zero date":           func(s *Schedule) { s.Date = Date{} },
		"party end before":    func(s *Schedule) { s.PartyTimeEnd = s.PartyTimeStart - SlotMinutes },
		"empty party":         func(s *Schedule) { s.PartyTimeEnd = s.PartyTimeStart },
		"misaligned party":    func(s *Schedule) { s.PartyTimeEnd += 15 },
		"misaligned setup":    func(s *Schedule) { s.SetupTimeStart += 10 },
		"setup after party":   func(s *Schedule) { s.SetupTimeStart, s.SetupTimeEnd = s.PartyTimeStart+SlotMinutes, s.PartyTimeEnd },
		"in the past":         func(s *Schedule) { s.Date = NewDate(2030, time.May, 31) },
		"earlier today":       func(s *Schedule) { s.Date, s.SetupTimeStart, s.SetupTimeEnd, s.PartyTimeStart = NewDate(2030, time.June, 1), 10*60, 11*60, 11*60 },
		"party past midnight": func(s *Schedule) { s.PartyTimeEnd = 24*60 + SlotMinutes },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := ok
			mutate(&s)
			err := s.Validate(now, loc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "%v", err)
		})
	}
}
