package loans

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/circulation/reservations"
	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/paging"
)

// fakeStore は MySQL ストアと同じ判定（createFacts.check）をメモリ上で行う
type fakeStore struct {
	users map[string]bool // id -> disabled
	books map[uint64]bool // id -> active
	stock map[uint64]*inventory.Inventory
	resv  map[uint64]*reservations.Reservation
	loans map[uint64]*Loan
	next  uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[string]bool{"u1": false, "u2": false},
		books: map[uint64]bool{9: true},
		stock: map[uint64]*inventory.Inventory{9: {InventoryID: 1, BookID: 9, Quantity: 2}},
		resv:  map[uint64]*reservations.Reservation{},
		loans: map[uint64]*Loan{},
	}
}

func (f *fakeStore) Create(_ context.Context, l *Loan, now time.Time) error {
	disabled, userFound := f.users[l.UserID]
	active, bookFound := f.books[l.BookID]
	facts := createFacts{UserFound: userFound, UserDisabled: disabled, BookFound: bookFound, BookActive: active}
	if inv, ok := f.stock[l.BookID]; ok {
		cp := *inv
		facts.Inventory = &cp
	}
	for _, cur := range f.loans {
		if cur.UserID == l.UserID && cur.BookID == l.BookID && cur.Status == StatusActive {
			facts.ActiveLoans++
		}
	}
	if l.ReservationID.Valid {
		facts.ReservationRequested = true
		if r, ok := f.resv[uint64(l.ReservationID.Int64)]; ok {
			cp := *r
			facts.Reservation = &cp
		}
	}
	if err := facts.check(l, now); err != nil {
		return err
	}
	if facts.Reservation != nil {
		f.resv[facts.Reservation.ReservationID] = facts.Reservation
	}
	f.stock[l.BookID].Quantity--
	f.next++
	l.LoanID = f.next
	cp := *l
	f.loans[l.LoanID] = &cp
	return nil
}

func (f *fakeStore) find(key string) *Loan {
	for _, l := range f.loans {
		if l.LoanULID == key || strconv.FormatUint(l.LoanID, 10) == key {
			return l
		}
	}
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (*Loan, error) {
	l := f.find(key)
	if l == nil {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) Apply(_ context.Context, key string, fn func(l *Loan) (int, error)) (*Loan, error) {
	cur := f.find(key)
	if cur == nil {
		return nil, apierr.ErrNotFound("loan not found")
	}
	work := *cur
	delta, err := fn(&work)
	if err != nil {
		return nil, err
	}
	*cur = work
	if inv, ok := f.stock[work.BookID]; ok {
		inv.Quantity += delta
	}
	cp := work
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, flt Filter, now time.Time, _ paging.Page) ([]Loan, int64, error) {
	var out []Loan
	for _, l := range f.loans {
		if flt.UserID != nil && l.UserID != *flt.UserID {
			continue
		}
		if flt.Overdue && !l.IsOverdue(now) {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

type seqIDs struct{ n int }

func (s *seqIDs) New() (string, error) {
	s.n++
	return fmt.Sprintf("L%025d", s.n), nil
}

type movingClock struct{ t *time.Time }

func (m movingClock) Now() time.Time { return *m.t }

var (
	librarian = auth.Principal{UserID: "L1", Role: auth.RoleLibrarian}
	reader1   = auth.Principal{UserID: "u1", Role: auth.RoleReader}
	reader2   = auth.Principal{UserID: "u2", Role: auth.RoleReader}
	policy    = Policy{LoanDays: 14, FinePerDay: 1.00, LostFee: 50.00}
	borrowAt  = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
)

func newSvc() (*Service, *fakeStore, *time.Time) {
	fs := newFakeStore()
	now := borrowAt
	return &Service{store: fs, clock: movingClock{&now}, ids: &seqIDs{}, policy: policy}, fs, &now
}

func TestCreate_DefaultsAndStock(t *testing.T) {
	svc, fs, _ := newSvc()
	res, err := svc.Create(context.Background(), librarian, CreateRequest{UserID: "u1", BookID: 9})
	require.NoError(t, err)
	require.Equal(t, StatusActive, res.Status)
	require.Equal(t, borrowAt.AddDate(0, 0, 14), res.DueDate)
	require.Equal(t, "L1", *res.LibrarianID)
	require.Equal(t, 1, fs.stock[9].Quantity)
	require.False(t, res.IsOverdue)
	require.Zero(t, res.CurrentFine)
}

func TestCreate_DuplicateActiveLoanWritesNothing(t *testing.T) {
	svc, fs, _ := newSvc()
	ctx := context.Background()
	_, err := svc.Create(ctx, librarian, CreateRequest{UserID: "u1", BookID: 9})
	require.NoError(t, err)

	_, err = svc.Create(ctx, librarian, CreateRequest{UserID: "u1", BookID: 9})
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
	require.Len(t, fs.loans, 1)
	require.Equal(t, 1, fs.stock[9].Quantity)

	// 別の利用者なら借りられる
	_, err = svc.Create(ctx, librarian, CreateRequest{UserID: "u2", BookID: 9})
	require.NoError(t, err)
	require.Equal(t, 0, fs.stock[9].Quantity)
}

func TestCreate_CompletesReservation(t *testing.T) {
	svc, fs, _ := newSvc()
	fs.resv[5] = &reservations.Reservation{ReservationID: 5, UserID: "u1", BookID: 9,
		Status: reservations.StatusApproved, ExpiresAt: borrowAt.Add(72 * time.Hour)}

	res, err := svc.Create(context.Background(), librarian, CreateRequest{UserID: "u1", BookID: 9, ReservationID: ptr(uint64(5))})
	require.NoError(t, err)
	require.EqualValues(t, 5, *res.ReservationID)
	require.Equal(t, reservations.StatusCompleted, fs.resv[5].Status)
}

func TestCreate_DueDateValidation(t *testing.T) {
	svc, _, _ := newSvc()
	_, err := svc.Create(context.Background(), librarian, CreateRequest{UserID: "u1", BookID: 9, DueDate: ptr("2023-12-31")})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))

	res, err := svc.Create(context.Background(), librarian, CreateRequest{UserID: "u1", BookID: 9, DueDate: ptr("2024-01-05")})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), res.DueDate)
}

func TestReturn_FineAndStock(t *testing.T) {
	svc, fs, now := newSvc()
	ctx := context.Background()
	created, err := svc.Create(ctx, librarian, CreateRequest{UserID: "u1", BookID: 9, DueDate: ptr("2024-01-10")})
	require.NoError(t, err)

	*now = time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC)
	got, err := svc.Get(ctx, reader1, created.LoanULID)
	require.NoError(t, err)
	require.True(t, got.IsOverdue)
	require.Equal(t, 5, got.DaysOverdue)
	require.InDelta(t, 5.00, got.CurrentFine, 0.0001)

	res, err := svc.Return(ctx, librarian, created.LoanULID)
	require.NoError(t, err)
	require.Equal(t, StatusReturned, res.Status)
	require.InDelta(t, 5.00, res.FineAmount, 0.0001)
	require.Equal(t, *now, *res.ReturnedAt)
	require.Equal(t, 2, fs.stock[9].Quantity)

	// 2回目の返却は在庫も罰金も変えない
	*now = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Return(ctx, librarian, created.LoanULID)
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
	require.Equal(t, 2, fs.stock[9].Quantity)
	require.InDelta(t, 5.00, fs.loans[created.LoanID].FineAmount, 0.0001)
}

func TestMarkLost_KeepsStock(t *testing.T) {
	svc, fs, _ := newSvc()
	ctx := context.Background()
	created, err := svc.Create(ctx, librarian, CreateRequest{UserID: "u1", BookID: 9})
	require.NoError(t, err)

	res, err := svc.MarkLost(ctx, librarian, strconv.FormatUint(created.LoanID, 10))
	require.NoError(t, err)
	require.Equal(t, StatusLost, res.Status)
	require.InDelta(t, 50.00, res.FineAmount, 0.0001)
	require.InDelta(t, 50.00, res.CurrentFine, 0.0001)
	require.Equal(t, 1, fs.stock[9].Quantity)
}

func TestService_Extend(t *testing.T) {
	svc, _, _ := newSvc()
	ctx := context.Background()
	created, err := svc.Create(ctx, librarian, CreateRequest{UserID: "u1", BookID: 9})
	require.NoError(t, err)

	_, err = svc.Extend(ctx, librarian, created.LoanULID, ExtendRequest{DueDate: "2024-01-10"})
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))

	res, err := svc.Extend(ctx, librarian, created.LoanULID, ExtendRequest{DueDate: "2024-01-22"})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), res.DueDate)
}

func TestReadersSeeOnlyOwnLoans(t *testing.T) {
	svc, _, _ := newSvc()
	ctx := context.Background()
	created, err := svc.Create(ctx, librarian, CreateRequest{UserID: "u1", BookID: 9})
	require.NoError(t, err)

	_, err = svc.Get(ctx, reader2, created.LoanULID)
	require.True(t, apierr.Is(err, apierr.CodeNotFound))

	list, err := svc.List(ctx, reader2, Filter{}, paging.Page{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 0, list.Total)

	list, err = svc.List(ctx, librarian, Filter{}, paging.Page{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, list.Total)

	_, err = svc.List(ctx, librarian, Filter{Status: ptr(Status("borrowed"))}, paging.Page{Limit: 10})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
}

func ptr[T any](v T) *T { return &v }
