package loans

import (
	"time"

	"BIBLIO-backend/internal/catalog/books"
	"BIBLIO-backend/internal/circulation/reservations"
	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
)

// createFacts: 貸出作成トランザクション内で読んだ状態
type createFacts struct {
	UserFound            bool
	UserDisabled         bool
	BookFound            bool
	BookActive           bool
	Inventory            *inventory.Inventory
	ActiveLoans          int
	ReservationRequested bool
	Reservation          *reservations.Reservation
}

// check: 貸出可否の判定。予約指定ありなら予約を completed にする
func (f createFacts) check(l *Loan, now time.Time) error {
	if !f.UserFound {
		return apierr.ErrNotFound("user not found")
	}
	if f.UserDisabled {
		return apierr.ErrUnprocessable("user account is disabled")
	}
	if !f.BookFound {
		return apierr.ErrNotFound("book not found")
	}
	if f.ActiveLoans > 0 {
		return apierr.ErrUnprocessable("user already has an active loan for this book")
	}
	if !books.IsAvailable(f.BookActive, f.Inventory) {
		return apierr.ErrUnprocessable("book is not available")
	}
	if !f.ReservationRequested {
		return nil
	}
	r := f.Reservation
	if r == nil {
		return apierr.ErrNotFound("reservation not found")
	}
	if r.UserID != l.UserID || r.BookID != l.BookID {
		return apierr.ErrUnprocessable("reservation does not match user and book")
	}
	return r.Complete(now)
}
