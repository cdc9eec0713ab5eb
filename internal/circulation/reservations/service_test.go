package reservations

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/clock"
	"BIBLIO-backend/internal/platform/paging"
)

type fakeStore struct {
	rows      map[uint64]*Reservation
	users     map[string]*UserState
	available map[uint64]bool
	lastID    uint64
	lastList  Filter
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[uint64]*Reservation{}, users: map[string]*UserState{}, available: map[uint64]bool{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (*Reservation, error) {
	for _, r := range f.rows {
		if r.ReservationULID == key || strconv.FormatUint(r.ReservationID, 10) == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Save(_ context.Context, r *Reservation, from ...Status) error {
	cur := f.rows[r.ReservationID]
	for _, st := range from {
		if cur.Status == st {
			cp := *r
			f.rows[r.ReservationID] = &cp
			return nil
		}
	}
	return apierr.ErrUnprocessable("reservation status changed concurrently")
}

func (f *fakeStore) UserState(_ context.Context, userID string) (*UserState, error) {
	st, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, r *Reservation) error {
	if !f.available[r.BookID] {
		return apierr.ErrUnprocessable("book is not available")
	}
	for _, cur := range f.rows {
		if cur.UserID == r.UserID && cur.BookID == r.BookID && cur.Status.IsPending() {
			return apierr.ErrUnprocessable("a pending reservation for this book already exists")
		}
	}
	f.lastID++
	r.ReservationID = f.lastID
	cp := *r
	f.rows[r.ReservationID] = &cp
	return nil
}

func (f *fakeStore) List(_ context.Context, flt Filter, _ paging.Page) ([]Reservation, int64, error) {
	f.lastList = flt
	var out []Reservation
	for _, r := range f.rows {
		if flt.UserID != nil && r.UserID != *flt.UserID {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

type seqIDs struct{ n int }

func (s *seqIDs) New() (string, error) {
	s.n++
	return fmt.Sprintf("R%025d", s.n), nil
}

var (
	reader  = auth.Principal{UserID: "u1", Role: auth.RoleReader}
	other   = auth.Principal{UserID: "u2", Role: auth.RoleReader}
	staff   = auth.Principal{UserID: "L1", Role: auth.RoleLibrarian}
	startAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

type setup struct {
	svc *Service
	fs  *fakeStore
	now *time.Time
}

type movingClock struct{ t *time.Time }

func (m movingClock) Now() time.Time { return *m.t }

func newSetup() setup {
	fs := newFakeStore()
	fs.users["u1"] = &UserState{CredentialVerified: true}
	fs.users["u2"] = &UserState{}
	fs.available[9] = true
	now := startAt
	return setup{
		svc: &Service{store: fs, clock: movingClock{&now}, ids: &seqIDs{}, hold: 7 * 24 * time.Hour},
		fs:  fs,
		now: &now,
	}
}

func TestCreate_InitialStatusFollowsCredential(t *testing.T) {
	s := newSetup()
	ctx := context.Background()

	res, err := s.svc.Create(ctx, reader, CreateRequest{BookID: 9})
	require.NoError(t, err)
	require.Equal(t, StatusPending, res.Status)
	require.Equal(t, startAt, res.ReservedAt)
	require.Equal(t, startAt.Add(7*24*time.Hour), res.ExpiresAt)
	require.False(t, res.IsExpired)

	res, err = s.svc.Create(ctx, other, CreateRequest{BookID: 9})
	require.NoError(t, err)
	require.Equal(t, StatusPendingCredential, res.Status)
}

func TestCreate_Guards(t *testing.T) {
	s := newSetup()
	ctx := context.Background()

	_, err := s.svc.Create(ctx, reader, CreateRequest{UserID: ptr("u2"), BookID: 9})
	require.True(t, apierr.Is(err, apierr.CodeForbidden))

	_, err = s.svc.Create(ctx, staff, CreateRequest{UserID: ptr("ghost"), BookID: 9})
	require.True(t, apierr.Is(err, apierr.CodeNotFound))

	s.fs.users["u3"] = &UserState{Disabled: true}
	_, err = s.svc.Create(ctx, staff, CreateRequest{UserID: ptr("u3"), BookID: 9})
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))

	_, err = s.svc.Create(ctx, reader, CreateRequest{BookID: 10})
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))

	_, err = s.svc.Create(ctx, reader, CreateRequest{BookID: 9, PlannedReturnDate: ptr("2024-03-01")})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))

	res, err := s.svc.Create(ctx, reader, CreateRequest{BookID: 9, PlannedReturnDate: ptr("2024-03-02")})
	require.NoError(t, err)
	require.Equal(t, "2024-03-02", *res.PlannedReturnDate)

	// 同じ本への2件目は 422
	_, err = s.svc.Create(ctx, reader, CreateRequest{BookID: 9})
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
	require.Len(t, s.fs.rows, 1)
}

func TestApprove_PendingCredentialNeedsVerification(t *testing.T) {
	s := newSetup()
	ctx := context.Background()
	res, err := s.svc.Create(ctx, other, CreateRequest{BookID: 9})
	require.NoError(t, err)

	_, err = s.svc.Approve(ctx, staff, res.ReservationULID)
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
	require.Equal(t, StatusPendingCredential, s.fs.rows[res.ReservationID].Status)

	s.fs.users["u2"].CredentialVerified = true
	approved, err := s.svc.Approve(ctx, staff, res.ReservationULID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, "L1", *approved.ApprovedBy)
}

func TestApprove_ExpiredIsRefused(t *testing.T) {
	s := newSetup()
	ctx := context.Background()
	res, err := s.svc.Create(ctx, reader, CreateRequest{BookID: 9})
	require.NoError(t, err)

	*s.now = startAt.Add(8 * 24 * time.Hour)
	_, err = s.svc.Approve(ctx, staff, res.ReservationULID)
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
	require.Equal(t, StatusPending, s.fs.rows[res.ReservationID].Status)

	got, err := s.svc.Get(ctx, reader, res.ReservationULID)
	require.NoError(t, err)
	require.True(t, got.IsExpired)
}

func TestCancel_OwnerOrStaff(t *testing.T) {
	s := newSetup()
	ctx := context.Background()
	res, err := s.svc.Create(ctx, reader, CreateRequest{BookID: 9})
	require.NoError(t, err)
	key := strconv.FormatUint(res.ReservationID, 10)

	_, err = s.svc.Cancel(ctx, other, key)
	require.True(t, apierr.Is(err, apierr.CodeForbidden))

	got, err := s.svc.Cancel(ctx, reader, key)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)

	_, err = s.svc.Cancel(ctx, staff, key)
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
}

func TestReject_RequiresReason(t *testing.T) {
	s := newSetup()
	ctx := context.Background()
	res, err := s.svc.Create(ctx, reader, CreateRequest{BookID: 9})
	require.NoError(t, err)

	_, err = s.svc.Reject(ctx, staff, res.ReservationULID, RejectRequest{Reason: "  "})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))

	got, err := s.svc.Reject(ctx, staff, res.ReservationULID, RejectRequest{Reason: "Libro dañado"})
	require.NoError(t, err)
	require.Equal(t, StatusRejected, got.Status)
	require.Equal(t, "Libro dañado", *got.RejectionReason)

	// 却下済みは承認できない
	_, err = s.svc.Approve(ctx, staff, res.ReservationULID)
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
}

func TestReadersOnlySeeTheirOwn(t *testing.T) {
	s := newSetup()
	ctx := context.Background()
	res, err := s.svc.Create(ctx, reader, CreateRequest{BookID: 9})
	require.NoError(t, err)

	_, err = s.svc.Get(ctx, other, res.ReservationULID)
	require.True(t, apierr.Is(err, apierr.CodeNotFound))

	list, err := s.svc.List(ctx, other, Filter{UserID: ptr("u1")}, paging.Page{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 0, list.Total)
	require.Equal(t, "u2", *s.fs.lastList.UserID)

	list, err = s.svc.List(ctx, staff, Filter{}, paging.Page{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, list.Total)
}

func ptr[T any](v T) *T { return &v }

var _ clock.Clock = movingClock{}
