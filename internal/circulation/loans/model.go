package loans

import (
	"database/sql"
	"math"
	"time"

	"BIBLIO-backend/internal/platform/apierr"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
	StatusLost     Status = "lost"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusReturned || s == StatusLost
}

// Loan は loans テーブルの1行
type Loan struct {
	LoanID        uint64
	LoanULID      string
	UserID        string
	BookID        uint64
	LibrarianID   sql.NullString
	ReservationID sql.NullInt64
	Status        Status
	BorrowedAt    time.Time
	DueDate       time.Time
	ReturnedAt    sql.NullTime
	FineAmount    float64
	Note          sql.NullString

	UserName  string
	BookTitle string
}

// Policy は貸出の運用ルール（config.library）
type Policy struct {
	LoanDays   int
	FinePerDay float64
	LostFee    float64
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// DaysOverdue: 返却期限日から now までの日数（日付差）。期限内なら 0
func (l *Loan) DaysOverdue(now time.Time) int {
	if !now.After(l.DueDate) {
		return 0
	}
	return int(dateOf(now).Sub(dateOf(l.DueDate)).Hours() / 24)
}

// CalculateFine: 延滞日数 × 1日あたりの罰金
func (l *Loan) CalculateFine(now time.Time, perDay float64) float64 {
	return roundCents(float64(l.DaysOverdue(now)) * perDay)
}

func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == StatusActive && now.After(l.DueDate)
}

// 状態遷移。エラー時は l を変更しない

func (l *Loan) Return(now time.Time, perDay float64) error {
	if l.Status != StatusActive {
		return apierr.ErrUnprocessable("loan is not active")
	}
	l.FineAmount = l.CalculateFine(now, perDay)
	l.Status = StatusReturned
	l.ReturnedAt = sql.NullTime{Time: now, Valid: true}
	return nil
}

func (l *Loan) MarkLost(lostFee float64) error {
	if l.Status != StatusActive {
		return apierr.ErrUnprocessable("loan is not active")
	}
	l.Status = StatusLost
	l.FineAmount = roundCents(lostFee)
	return nil
}

func (l *Loan) Extend(newDue time.Time) error {
	if l.Status != StatusActive {
		return apierr.ErrUnprocessable("loan is not active")
	}
	if !newDue.After(l.DueDate) {
		return apierr.ErrUnprocessable("new due date must be after the current due date")
	}
	l.DueDate = newDue
	return nil
}

type Filter struct {
	UserID  *string
	BookID  *uint64
	Status  *Status
	Overdue bool
}
