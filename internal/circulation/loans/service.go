package loans

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/clock"
	"BIBLIO-backend/internal/platform/ident"
	"BIBLIO-backend/internal/platform/paging"
	"BIBLIO-backend/internal/platform/validate"
)

type store interface {
	Create(ctx context.Context, l *Loan, now time.Time) error
	Get(ctx context.Context, key string) (*Loan, error)
	Apply(ctx context.Context, key string, fn func(l *Loan) (int, error)) (*Loan, error)
	List(ctx context.Context, f Filter, now time.Time, p paging.Page) ([]Loan, int64, error)
}

type Service struct {
	store  store
	clock  clock.Clock
	ids    ident.IDGen
	policy Policy
}

func NewService(db *sql.DB, policy Policy) *Service {
	return &Service{store: NewStore(db), clock: clock.Real(), ids: ident.ULID(), policy: policy}
}

func (s *Service) respond(l *Loan) *Response {
	res := ToResponse(l, s.clock.Now(), s.policy.FinePerDay)
	return &res
}

// Create: 職員が貸出を登録する
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateRequest) (*Response, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" || in.BookID == 0 {
		return nil, apierr.ErrInvalid("user_id and book_id are required")
	}
	now := s.clock.Now()
	l := &Loan{
		UserID:      userID,
		BookID:      in.BookID,
		LibrarianID: sql.NullString{String: p.UserID, Valid: p.UserID != ""},
		Status:      StatusActive,
		BorrowedAt:  now,
		DueDate:     now.AddDate(0, 0, s.policy.LoanDays),
	}
	if in.DueDate != nil {
		d, err := validate.ParseDate(*in.DueDate)
		if err != nil {
			return nil, apierr.ErrInvalid("due_date must be YYYY-MM-DD")
		}
		if !d.After(now) {
			return nil, apierr.ErrInvalid("due_date must be in the future")
		}
		l.DueDate = d
	}
	if in.ReservationID != nil {
		if *in.ReservationID == 0 {
			return nil, apierr.ErrInvalid("reservation_id must be positive")
		}
		l.ReservationID = sql.NullInt64{Int64: int64(*in.ReservationID), Valid: true}
	}
	if in.Note != nil && strings.TrimSpace(*in.Note) != "" {
		l.Note = sql.NullString{String: strings.TrimSpace(*in.Note), Valid: true}
	}
	var err error
	if l.LoanULID, err = s.ids.New(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, l, now); err != nil {
		return nil, err
	}
	log.Printf("[INFO] loan created: id=%d user=%s book=%d due=%s", l.LoanID, l.UserID, l.BookID, l.DueDate.Format(time.RFC3339))
	return s.Get(ctx, auth.Principal{Role: auth.RoleLibrarian}, l.LoanULID)
}

// Get: 読者は自分の貸出しか見えない
func (s *Service) Get(ctx context.Context, p auth.Principal, key string) (*Response, error) {
	l, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if l == nil || !p.CanActFor(l.UserID) {
		return nil, apierr.ErrNotFound("loan not found")
	}
	return s.respond(l), nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, f Filter, pg paging.Page) (paging.List[Response], error) {
	if f.Status != nil && !f.Status.Valid() {
		return paging.List[Response]{}, apierr.ErrInvalid("invalid status")
	}
	if !p.IsStaff() {
		f.UserID = &p.UserID
	}
	now := s.clock.Now()
	rows, total, err := s.store.List(ctx, f, now, pg)
	if err != nil {
		return paging.List[Response]{}, err
	}
	items := make([]Response, 0, len(rows))
	for i := range rows {
		items = append(items, ToResponse(&rows[i], now, s.policy.FinePerDay))
	}
	return paging.NewList(items, total, pg), nil
}

// Return: 返却。罰金を確定し在庫を +1
func (s *Service) Return(ctx context.Context, p auth.Principal, key string) (*Response, error) {
	now := s.clock.Now()
	l, err := s.store.Apply(ctx, key, func(l *Loan) (int, error) {
		if err := l.Return(now, s.policy.FinePerDay); err != nil {
			return 0, err
		}
		return 1, nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] loan returned: id=%d by=%s fine=%.2f", l.LoanID, p.UserID, l.FineAmount)
	return s.respond(l), nil
}

// MarkLost: 紛失。在庫は戻さない
func (s *Service) MarkLost(ctx context.Context, p auth.Principal, key string) (*Response, error) {
	l, err := s.store.Apply(ctx, key, func(l *Loan) (int, error) {
		return 0, l.MarkLost(s.policy.LostFee)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[WARN] loan marked lost: id=%d by=%s fine=%.2f", l.LoanID, p.UserID, l.FineAmount)
	return s.respond(l), nil
}

func (s *Service) Extend(ctx context.Context, p auth.Principal, key string, in ExtendRequest) (*Response, error) {
	d, err := validate.ParseDate(in.DueDate)
	if err != nil {
		return nil, apierr.ErrInvalid("due_date must be YYYY-MM-DD")
	}
	l, err := s.store.Apply(ctx, key, func(l *Loan) (int, error) {
		return 0, l.Extend(d)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] loan extended: id=%d by=%s due=%s", l.LoanID, p.UserID, in.DueDate)
	return s.respond(l), nil
}
