package reservation

import (
	"encoding/json"
	"fmt"
	"time"
)

// SlotMinutes is the booking granularity. Every reservation time sits on a
// multiple of it.
const SlotMinutes = 30

const minutesPerDay = 24 * 60

// TimeOfDay is a wall clock time expressed in minutes after midnight.
// 24:00 is allowed as an end-of-day bound.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, fmt.Errorf("time %q must be HH:MM", s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Aligned() bool {
	return int(t)%SlotMinutes == 0
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= minutesPerDay
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Overlaps uses half-open semantics: ranges that only touch do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

func (r TimeRange) validate(name string) error {
	if !r.Start.Valid() || !r.End.Valid() {
		return validationf("%s time out of range", name)
	}
	if !r.Start.Aligned() || !r.End.Aligned() {
		return validationf("%s times must fall on %d-minute boundaries", name, SlotMinutes)
	}
	if r.Start >= r.End {
		return validationf("%s start must be before %s end", name, name)
	}
	return nil
}

const dateLayout = "2006-01-02"

// Date is a calendar day without a zone, held as midnight UTC.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// DateFromTime keeps only the calendar fields of t as seen in its own zone.
func DateFromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DateIn returns the calendar day instant t falls on in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	return DateFromTime(t.In(loc))
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) String() string { return d.t.Format(dateLayout) }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// At returns the instant the wall clock shows tod on d in loc.
func (d Date) At(tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.t.Year(), d.t.Month(), d.t.Day(), int(tod)/60, int(tod)%60, 0, 0, loc)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Schedule is the bookable part of a reservation. Setup time is advisory:
// only the party range takes part in conflict checks.
type Schedule struct {
	Date           Date      `json:"date"`
	SetupTimeStart TimeOfDay `json:"setupTimeStart"`
	SetupTimeEnd   TimeOfDay `json:"setupTimeEnd"`
	PartyTimeStart TimeOfDay `json:"partyTimeStart"`
	PartyTimeEnd   TimeOfDay `json:"partyTimeEnd"`
}

func (s Schedule) Party() TimeRange {
	return TimeRange{Start: s.PartyTimeStart, End: s.PartyTimeEnd}
}

func (s Schedule) Setup() TimeRange {
	return TimeRange{Start: s.SetupTimeStart, End: s.SetupTimeEnd}
}

// Start is when the party begins in loc.
func (s Schedule) Start(loc *time.Location) time.Time {
	return s.Date.At(s.PartyTimeStart, loc)
}

// Validate checks the shape of the schedule and that the party has not
// already started at now.
func (s Schedule) Validate(now time.Time, loc *time.Location) error {
	if s.Date.IsZero() {
		return validationf("date is required")
	}
	if err := s.Party().validate("party"); err != nil {
		return err
	}
	if err := s.Setup().validate("setup"); err != nil {
		return err
	}
	if s.SetupTimeStart > s.PartyTimeStart {
		return validationf("setup must start no later than the party")
	}
	if !s.Start(loc).After(now) {
		return validationf("reservation date %s %s is in the past", s.Date, s.PartyTimeStart)
	}
	return nil
}
