package reservations

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
	Get(ctx context.Context, key string) (*Reservation, error)
	Save(ctx context.Context, r *Reservation, from ...Status) error
	UserState(ctx context.Context, userID string) (*UserState, error)
	Create(ctx context.Context, r *Reservation) error
	List(ctx context.Context, f Filter, p paging.Page) ([]Reservation, int64, error)
}

type Service struct {
	store store
	clock clock.Clock
	ids   ident.IDGen
	hold  time.Duration
}

func NewService(db *sql.DB, holdDays int) *Service {
	return &Service{
		store: NewStore(db),
		clock: clock.Real(),
		ids:   ident.ULID(),
		hold:  time.Duration(holdDays) * 24 * time.Hour,
	}
}

func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateRequest) (*Response, error) {
	userID := p.UserID
	if in.UserID != nil && strings.TrimSpace(*in.UserID) != "" {
		userID = strings.TrimSpace(*in.UserID)
	}
	if !p.CanActFor(userID) {
		return nil, apierr.ErrForbidden("readers can only reserve for themselves")
	}
	if in.BookID == 0 {
		return nil, apierr.ErrInvalid("book_id is required")
	}

	st, err := s.store.UserState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apierr.ErrNotFound("user not found")
	}
	if st.Disabled {
		return nil, apierr.ErrUnprocessable("user account is disabled")
	}

	now := s.clock.Now()
	r := &Reservation{
		UserID:     userID,
		BookID:     in.BookID,
		Status:     StatusPending,
		ReservedAt: now,
		ExpiresAt:  now.Add(s.hold),
	}
	if !st.CredentialVerified {
		r.Status = StatusPendingCredential
	}
	if in.PlannedReturnDate != nil {
		d, err := validate.ParseDate(*in.PlannedReturnDate)
		if err != nil {
			return nil, apierr.ErrInvalid("planned_return_date must be YYYY-MM-DD")
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if !d.After(today) {
			return nil, apierr.ErrInvalid("planned_return_date must be after today")
		}
		r.PlannedReturnDate = sql.NullTime{Time: d, Valid: true}
	}
	if in.Note != nil && strings.TrimSpace(*in.Note) != "" {
		r.Note = sql.NullString{String: strings.TrimSpace(*in.Note), Valid: true}
	}
	if r.ReservationULID, err = s.ids.New(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[INFO] reservation created: id=%d user=%s book=%d status=%s", r.ReservationID, userID, r.BookID, r.Status)
	return s.get(ctx, r.ReservationULID)
}

func (s *Service) get(ctx context.Context, key string) (*Response, error) {
	r, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	res := ToResponse(r, s.clock.Now())
	return &res, nil
}

func (s *Service) load(ctx context.Context, key string) (*Reservation, error) {
	r, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apierr.ErrNotFound("reservation not found")
	}
	return r, nil
}

// Get: 読者は自分の予約しか見えない
func (s *Service) Get(ctx context.Context, p auth.Principal, key string) (*Response, error) {
	r, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !p.CanActFor(r.UserID) {
		return nil, apierr.ErrNotFound("reservation not found")
	}
	res := ToResponse(r, s.clock.Now())
	return &res, nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, f Filter, pg paging.Page) (paging.List[Response], error) {
	if f.Status != nil && !f.Status.Valid() {
		return paging.List[Response]{}, apierr.ErrInvalid("invalid status")
	}
	if !p.IsStaff() {
		f.UserID = &p.UserID
	}
	rows, total, err := s.store.List(ctx, f, pg)
	if err != nil {
		return paging.List[Response]{}, err
	}
	now := s.clock.Now()
	items := make([]Response, 0, len(rows))
	for i := range rows {
		items = append(items, ToResponse(&rows[i], now))
	}
	return paging.NewList(items, total, pg), nil
}

func (s *Service) Approve(ctx context.Context, p auth.Principal, key string) (*Response, error) {
	r, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	verified := true
	if r.Status == StatusPendingCredential {
		st, err := s.store.UserState(ctx, r.UserID)
		if err != nil {
			return nil, err
		}
		verified = st != nil && st.CredentialVerified
	}
	if err := r.Approve(p.UserID, s.clock.Now(), s.hold, verified); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, r, StatusPending, StatusPendingCredential); err != nil {
		return nil, err
	}
	log.Printf("[INFO] reservation approved: id=%d by=%s", r.ReservationID, p.UserID)
	return s.get(ctx, r.ReservationULID)
}

func (s *Service) Reject(ctx context.Context, p auth.Principal, key string, in RejectRequest) (*Response, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apierr.ErrInvalid("reason is required")
	}
	r, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := r.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, r, StatusPending, StatusPendingCredential); err != nil {
		return nil, err
	}
	log.Printf("[INFO] reservation rejected: id=%d by=%s", r.ReservationID, p.UserID)
	return s.get(ctx, r.ReservationULID)
}

// Cancel: 本人か職員のみ
func (s *Service) Cancel(ctx context.Context, p auth.Principal, key string) (*Response, error) {
	r, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !p.CanActFor(r.UserID) {
		return nil, apierr.ErrForbidden("only the owner or a librarian can cancel this reservation")
	}
	if err := r.Cancel(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, r, StatusPending); err != nil {
		return nil, err
	}
	log.Printf("[INFO] reservation cancelled: id=%d by=%s", r.ReservationID, p.UserID)
	return s.get(ctx, r.ReservationULID)
}
