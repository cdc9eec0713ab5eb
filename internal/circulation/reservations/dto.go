package reservations

import (
	"time"

	"BIBLIO-backend/internal/platform/validate"
)

type CreateRequest struct {
	UserID            *string `json:"user_id,omitempty"` // 職員が代理で予約するとき
	BookID            uint64  `json:"book_id" binding:"required"`
	PlannedReturnDate *string `json:"planned_return_date,omitempty" binding:"omitempty,ymd"`
	Note              *string `json:"note,omitempty" binding:"omitempty,max=512"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=512"`
}

type Response struct {
	ReservationID     uint64     `json:"reservation_id"`
	ReservationULID   string     `json:"reservation_ulid"`
	UserID            string     `json:"user_id"`
	UserName          string     `json:"user_name,omitempty"`
	BookID            uint64     `json:"book_id"`
	BookTitle         string     `json:"book_title,omitempty"`
	Status            Status     `json:"status"`
	ReservedAt        time.Time  `json:"reserved_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	IsExpired         bool       `json:"is_expired"`
	PlannedReturnDate *string    `json:"planned_return_date,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	ApprovedBy        *string    `json:"approved_by,omitempty"`
	RejectionReason   *string    `json:"rejection_reason,omitempty"`
	Note              *string    `json:"note,omitempty"`
}

func ToResponse(r *Reservation, now time.Time) Response {
	res := Response{
		ReservationID:   r.ReservationID,
		ReservationULID: r.ReservationULID,
		UserID:          r.UserID,
		UserName:        r.UserName,
		BookID:          r.BookID,
		BookTitle:       r.BookTitle,
		Status:          r.Status,
		ReservedAt:      r.ReservedAt,
		ExpiresAt:       r.ExpiresAt,
		IsExpired:       r.IsExpired(now),
	}
	if r.PlannedReturnDate.Valid {
		d := r.PlannedReturnDate.Time.Format(validate.DateLayout)
		res.PlannedReturnDate = &d
	}
	if r.ApprovedAt.Valid {
		t := r.ApprovedAt.Time
		res.ApprovedAt = &t
	}
	if r.ApprovedBy.Valid {
		res.ApprovedBy = &r.ApprovedBy.String
	}
	if r.RejectionReason.Valid {
		res.RejectionReason = &r.RejectionReason.String
	}
	if r.Note.Valid {
		res.Note = &r.Note.String
	}
	return res
}
