package loans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/circulation/reservations"
	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
)

func okFacts() createFacts {
	return createFacts{
		UserFound:  true,
		BookFound:  true,
		BookActive: true,
		Inventory:  &inventory.Inventory{InventoryID: 1, BookID: 9, Quantity: 1},
	}
}

func TestCheck(t *testing.T) {
	now := day(2024, 3, 1, 10)
	l := &Loan{UserID: "u1", BookID: 9}

	require.NoError(t, okFacts().check(l, now))

	cases := []struct {
		name string
		mod  func(f *createFacts)
		code apierr.Code
	}{
		{"unknown user", func(f *createFacts) { f.UserFound = false }, apierr.CodeNotFound},
		{"disabled user", func(f *createFacts) { f.UserDisabled = true }, apierr.CodeUnprocessable},
		{"unknown book", func(f *createFacts) { f.BookFound = false }, apierr.CodeNotFound},
		{"already borrowed", func(f *createFacts) { f.ActiveLoans = 1 }, apierr.CodeUnprocessable},
		{"no stock", func(f *createFacts) { f.Inventory.Quantity = 0 }, apierr.CodeUnprocessable},
		{"no inventory row", func(f *createFacts) { f.Inventory = nil }, apierr.CodeUnprocessable},
		{"inactive book", func(f *createFacts) { f.BookActive = false }, apierr.CodeUnprocessable},
		{"missing reservation", func(f *createFacts) { f.ReservationRequested = true }, apierr.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := okFacts()
			tc.mod(&f)
			require.True(t, apierr.Is(f.check(l, now), tc.code))
		})
	}
}

func TestCheck_Reservation(t *testing.T) {
	now := day(2024, 3, 1, 10)
	l := &Loan{UserID: "u1", BookID: 9}
	resv := func(st reservations.Status, user string) *reservations.Reservation {
		return &reservations.Reservation{ReservationID: 3, UserID: user, BookID: 9, Status: st, ExpiresAt: now.Add(48 * time.Hour)}
	}

	f := okFacts()
	f.ReservationRequested = true
	f.Reservation = resv(reservations.StatusApproved, "u1")
	require.NoError(t, f.check(l, now))
	require.Equal(t, reservations.StatusCompleted, f.Reservation.Status)

	f.Reservation = resv(reservations.StatusPending, "u1")
	require.True(t, apierr.Is(f.check(l, now), apierr.CodeUnprocessable))

	f.Reservation = resv(reservations.StatusApproved, "u2")
	require.True(t, apierr.Is(f.check(l, now), apierr.CodeUnprocessable))

	f.Reservation = resv(reservations.StatusApproved, "u1")
	require.True(t, apierr.Is(f.check(l, now.Add(72*time.Hour)), apierr.CodeUnprocessable))
	require.Equal(t, reservations.StatusApproved, f.Reservation.Status)
}
