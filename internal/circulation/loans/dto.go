package loans

import "time"

type CreateRequest struct {
	UserID        string  `json:"user_id" binding:"required,max=64"`
	BookID        uint64  `json:"book_id" binding:"required"`
	DueDate       *string `json:"due_date,omitempty" binding:"omitempty,ymd"`
	ReservationID *uint64 `json:"reservation_id,omitempty"`
	Note          *string `json:"note,omitempty" binding:"omitempty,max=512"`
}

type ExtendRequest struct {
	DueDate string `json:"due_date" binding:"required,ymd"`
}

type Response struct {
	LoanID        uint64     `json:"loan_id"`
	LoanULID      string     `json:"loan_ulid"`
	UserID        string     `json:"user_id"`
	UserName      string     `json:"user_name,omitempty"`
	BookID        uint64     `json:"book_id"`
	BookTitle     string     `json:"book_title,omitempty"`
	LibrarianID   *string    `json:"librarian_id,omitempty"`
	ReservationID *uint64    `json:"reservation_id,omitempty"`
	Status        Status     `json:"status"`
	BorrowedAt    time.Time  `json:"borrowed_at"`
	DueDate       time.Time  `json:"due_date"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	FineAmount    float64    `json:"fine_amount"`
	IsOverdue     bool       `json:"is_overdue"`
	DaysOverdue   int        `json:"days_overdue"`
	CurrentFine   float64    `json:"current_fine"`
	Note          *string    `json:"note,omitempty"`
}

// ToResponse: 貸出中は現時点の罰金見込み、終了済みは確定額を current_fine に入れる
func ToResponse(l *Loan, now time.Time, perDay float64) Response {
	res := Response{
		LoanID:      l.LoanID,
		LoanULID:    l.LoanULID,
		UserID:      l.UserID,
		UserName:    l.UserName,
		BookID:      l.BookID,
		BookTitle:   l.BookTitle,
		Status:      l.Status,
		BorrowedAt:  l.BorrowedAt,
		DueDate:     l.DueDate,
		FineAmount:  l.FineAmount,
		IsOverdue:   l.IsOverdue(now),
		CurrentFine: l.FineAmount,
	}
	if l.Status == StatusActive {
		res.DaysOverdue = l.DaysOverdue(now)
		res.CurrentFine = l.CalculateFine(now, perDay)
	}
	if l.LibrarianID.Valid {
		res.LibrarianID = &l.LibrarianID.String
	}
	if l.ReservationID.Valid {
		id := uint64(l.ReservationID.Int64)
		res.ReservationID = &id
	}
	if l.ReturnedAt.Valid {
		t := l.ReturnedAt.Time
		res.ReturnedAt = &t
	}
	if l.Note.Valid {
		res.Note = &l.Note.String
	}
	return res
}
