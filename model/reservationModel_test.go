package model

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestOverlaps_MatchesIntegerRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 2000; i++ {
		a0 := rng.Intn(30)
		a1 := a0 + 1 + rng.Intn(10)
		b0 := rng.Intn(30)
		b1 := b0 + 1 + rng.Intn(10)

		want := false
		for d := a0; d < a1; d++ {
			if d >= b0 && d < b1 {
				want = true
				break
			}
		}
		require.Equal(t, want, Overlaps(day(a0), day(a1), day(b0), day(b1)),
			"[%d,%d) vs [%d,%d)", a0, a1, b0, b1)
		require.Equal(t, Overlaps(day(a0), day(a1), day(b0), day(b1)), Overlaps(day(b0), day(b1), day(a0), day(a1)))
	}
}

func TestOverlaps_TouchingRangesAreFree(t *testing.T) {
	require.False(t, Overlaps(day(0), day(3), day(3), day(5)))
	require.False(t, Overlaps(day(3), day(5), day(0), day(3)))
	require.True(t, Overlaps(day(0), day(3), day(2), day(5)))
}

func TestParseDateAndNights(t *testing.T) {
	s, ok := ParseDate("2025-01-10")
	require.True(t, ok)
	e, ok := ParseDate("2025-01-13T00:00:00Z")
	require.True(t, ok)
	require.Equal(t, 3, Nights(s, e))
	require.Equal(t, "2025-01-10", FormatDate(s))

	_, ok = ParseDate("10/01/2025")
	require.False(t, ok)
	_, ok = ParseDate("")
	require.False(t, ok)

	// DST-ish drift rounds to the nearest whole night
	require.Equal(t, 2, Nights(s, s.Add(47*time.Hour)))
}

func TestStatusTransitions(t *testing.T) {
	all := []ReservationStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusRejected}
	allowed := map[[2]ReservationStatus]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusRejected}:    true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			require.Equal(t, allowed[[2]ReservationStatus{from, to}], from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	require.True(t, StatusPending.IsActive())
	require.True(t, StatusRejected.IsTerminal())

	st, ok := ParseStatus(" Confirmed ")
	require.True(t, ok)
	require.Equal(t, StatusConfirmed, st)
	_, ok = ParseStatus("approved")
	require.False(t, ok)
}

func TestRoles(t *testing.T) {
	r, ok := ParseRole("OWNER")
	require.True(t, ok)
	require.Equal(t, RoleOwner, r)
	_, ok = ParseRole("guest")
	require.False(t, ok)

	require.True(t, RoleTenant.CanCreateBooking())
	require.False(t, RoleOwner.CanCreateBooking())
	require.False(t, RoleAdmin.CanCreateBooking())

	require.False(t, RoleTenant.CanTransitionStatus())
	require.True(t, RoleOwner.CanTransitionStatus())
	require.True(t, RoleAdmin.CanTransitionStatus())

	require.False(t, RoleTenant.CanDelete())
	require.True(t, RoleAdmin.CanListAll())
	require.False(t, RoleAdmin.CanListOwn())
}

func TestAddressAndPage(t *testing.T) {
	require.Equal(t, "1 Rue X, Paris", Address{Street: "1 Rue X", City: "Paris"}.String())
	require.Equal(t, "Paris", Address{City: "Paris"}.String())
	require.Equal(t, "", Address{}.String())

	require.Equal(t, Page{Limit: DefaultPageLimit}, Page{}.Normalize())
	require.Equal(t, Page{Limit: MaxPageLimit, Offset: 0}, Page{Limit: 1000, Offset: -3}.Normalize())

	r := Reservation{TenantID: "t", OwnerID: "o"}
	require.True(t, r.IsParty("o"))
	require.False(t, r.IsParty("x"))
	require.False(t, r.IsParty(""))
}

func TestStayPrice_RoundsToCents(t *testing.T) {
	require.Equal(t, 100.0, StayPrice(3, 33.333))
	require.Equal(t, 300.0, StayPrice(3, 100))
	require.Equal(t, 2.33, StayPrice(7, 0.3333))
	require.Equal(t, 0.0, StayPrice(0, 99))
}
