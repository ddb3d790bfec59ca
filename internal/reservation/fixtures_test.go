package reservation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"amenitybook/internal/amenity"
	"amenitybook/internal/auth"
)

const (
	testCommunity = "6f1c2a9e-5b0d-4a53-9a40-0d7b1d8c2f11"
	testAmenity   = "0b8f9d2c-3e7a-4c61-8f55-2a1e9c7d4b30"
)

var (
	resident  = auth.Principal{UserID: "res-1", Role: auth.RoleResident, CommunityID: testCommunity}
	neighbour = auth.Principal{UserID: "res-2", Role: auth.RoleResident, CommunityID: testCommunity}
	janitor   = auth.Principal{UserID: "jan-1", Role: auth.RoleJanitorial, CommunityID: testCommunity}
	admin     = auth.Principal{UserID: "adm-1", Role: auth.RoleAdmin, CommunityID: testCommunity}
)

func newYork(t testing.TB) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

// testNow is noon on 2030-06-01 in New York.
func testNow(t testing.TB) time.Time {
	return time.Date(2030, time.June, 1, 12, 0, 0, 0, newYork(t))
}

func testAmenityWith(janitorial, approval bool) amenity.Amenity {
	return amenity.Amenity{
		ID:                 testAmenity,
		CommunityID:        testCommunity,
		Name:               "Clubhouse",
		Capacity:           50,
		ReservationFee:     decimal.RequireFromString("150.00"),
		Deposit:            decimal.RequireFromString("300.00"),
		JanitorialRequired: janitorial,
		ApprovalRequired:   approval,
		Active:             true,
	}
}

func tod(t testing.TB, s string) TimeOfDay {
	t.Helper()
	v, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func schedule(t testing.TB, date, partyStart, partyEnd string) Schedule {
	t.Helper()
	d, err := ParseDate(date)
	require.NoError(t, err)
	start := tod(t, partyStart)
	return Schedule{
		Date:           d,
		SetupTimeStart: start - SlotMinutes,
		SetupTimeEnd:   start,
		PartyTimeStart: start,
		PartyTimeEnd:   tod(t, partyEnd),
	}
}

func newInput(t testing.TB, date, partyStart, partyEnd string) NewInput {
	return NewInput{
		AmenityID:  testAmenity,
		Schedule:   schedule(t, date, partyStart, partyEnd),
		EventName:  "Birthday",
		GuestCount: 20,
	}
}

// newReservation builds a reservation for resident in the given status
// without going through the approval chain.
func newReservation(t testing.TB, janitorial, approval bool, status Status) *Reservation {
	t.Helper()
	r, err := New(testAmenityWith(janitorial, approval), resident.UserID, newInput(t, "2030-07-15", "18:00", "22:00"), testNow(t), newYork(t))
	require.NoError(t, err)
	r.ID = "11111111-1111-1111-1111-111111111111"
	r.Status = status
	return r
}
