package reservations

import (
	"database/sql"
	"time"

	"BIBLIO-backend/internal/platform/apierr"
)

type Status string

const (
	StatusPending           Status = "pending"
	StatusPendingCredential Status = "pending_credential"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusCancelled         Status = "cancelled"
	StatusCompleted         Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPendingCredential, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsPending: 承認待ち（在籍証明待ちを含む）
func (s Status) IsPending() bool {
	return s == StatusPending || s == StatusPendingCredential
}

// Reservation は reservations テーブルの1行
type Reservation struct {
	ReservationID     uint64
	ReservationULID   string
	UserID            string
	BookID            uint64
	Status            Status
	ReservedAt        time.Time
	ExpiresAt         time.Time
	PlannedReturnDate sql.NullTime
	ApprovedAt        sql.NullTime
	ApprovedBy        sql.NullString
	RejectionReason   sql.NullString
	Note              sql.NullString

	UserName  string
	BookTitle string
}

func (r *Reservation) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// 状態遷移。エラー時は r を変更しない

func (r *Reservation) Approve(librarianID string, now time.Time, hold time.Duration, credentialVerified bool) error {
	if !r.Status.IsPending() {
		return apierr.ErrUnprocessable("only pending reservations can be approved")
	}
	if r.IsExpired(now) {
		return apierr.ErrUnprocessable("reservation has expired")
	}
	if r.Status == StatusPendingCredential && !credentialVerified {
		return apierr.ErrUnprocessable("user's school credential is not verified")
	}
	r.Status = StatusApproved
	r.ApprovedAt = sql.NullTime{Time: now, Valid: true}
	r.ApprovedBy = sql.NullString{String: librarianID, Valid: true}
	r.ExpiresAt = now.Add(hold)
	return nil
}

func (r *Reservation) Reject(reason string) error {
	if !r.Status.IsPending() {
		return apierr.ErrUnprocessable("only pending reservations can be rejected")
	}
	r.Status = StatusRejected
	r.RejectionReason = sql.NullString{String: reason, Valid: reason != ""}
	return nil
}

func (r *Reservation) Cancel() error {
	if r.Status != StatusPending {
		return apierr.ErrUnprocessable("only pending reservations can be cancelled")
	}
	r.Status = StatusCancelled
	return nil
}

// Complete: 承認済み予約を貸出に変換したとき
func (r *Reservation) Complete(now time.Time) error {
	if r.Status != StatusApproved {
		return apierr.ErrUnprocessable("only approved reservations can be completed")
	}
	if r.IsExpired(now) {
		return apierr.ErrUnprocessable("reservation has expired")
	}
	r.Status = StatusCompleted
	return nil
}

type Filter struct {
	UserID *string
	BookID *uint64
	Status *Status
}

// UserState: 予約作成時に必要な利用者情報
type UserState struct {
	Disabled           bool
	CredentialVerified bool
}
