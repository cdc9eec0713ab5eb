package disposals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/clock"
	"BIBLIO-backend/internal/platform/paging"
)

type fakeStore struct {
	stock    map[uint64]*inventory.Inventory
	rows     []Disposal
	lastList Filter
}

func (f *fakeStore) Create(_ context.Context, d *Disposal) (*inventory.Inventory, error) {
	after, err := plan(f.stock[d.BookID], d.Quantity)
	if err != nil {
		return nil, err
	}
	f.stock[d.BookID] = &after
	d.DisposalID = uint64(len(f.rows) + 1)
	f.rows = append(f.rows, *d)
	return &after, nil
}

func (f *fakeStore) Get(_ context.Context, ulid string) (*Disposal, error) {
	for i := range f.rows {
		if f.rows[i].DisposalULID == ulid {
			cp := f.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) List(_ context.Context, flt Filter, _ paging.Page) ([]Disposal, int64, error) {
	f.lastList = flt
	return f.rows, int64(len(f.rows)), nil
}

type seqIDs struct{ n int }

func (s *seqIDs) New() (string, error) {
	s.n++
	return fmt.Sprintf("%026d", s.n), nil
}

var (
	now       = time.Date(2024, 5, 2, 11, 0, 0, 0, time.UTC)
	librarian = auth.Principal{UserID: "L1", Role: auth.RoleLibrarian}
)

func newService() (*Service, *fakeStore) {
	fs := &fakeStore{stock: map[uint64]*inventory.Inventory{
		1: {InventoryID: 10, BookID: 1, Quantity: 2, Status: inventory.StatusAvailable},
	}}
	return &Service{store: fs, clock: clock.Fixed(now), ids: &seqIDs{}}, fs
}

func TestCreate_ReducesStockAndRetiresAtZero(t *testing.T) {
	svc, fs := newService()
	ctx := context.Background()
	reason := "  water damage "

	res, err := svc.Create(ctx, librarian, 1, CreateRequest{Quantity: 1, Reason: &reason})
	require.NoError(t, err)
	require.Equal(t, 1, *res.RemainingQuantity)
	require.Equal(t, "water damage", *res.Reason)
	require.Equal(t, "L1", *res.ProcessedBy)
	require.Equal(t, now, res.DisposedAt)
	require.Equal(t, inventory.StatusAvailable, fs.stock[1].Status)

	res, err = svc.Create(ctx, librarian, 1, CreateRequest{Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, 0, *res.RemainingQuantity)
	require.Nil(t, res.Reason)
	require.Equal(t, inventory.StatusRetired, fs.stock[1].Status)

	_, err = svc.Create(ctx, librarian, 1, CreateRequest{Quantity: 1})
	require.True(t, apierr.Is(err, apierr.CodeConflict))
	require.Len(t, fs.rows, 2)

	_, err = svc.Create(ctx, librarian, 99, CreateRequest{Quantity: 1})
	require.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestGetAndList(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, librarian, 1, CreateRequest{Quantity: 2})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.DisposalULID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Quantity)
	require.Nil(t, got.RemainingQuantity)

	_, err = svc.Get(ctx, "12")
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
	_, err = svc.Get(ctx, fmt.Sprintf("%026d", 99))
	require.True(t, apierr.Is(err, apierr.CodeNotFound))

	list, err := svc.List(ctx, Filter{}, paging.Page{Limit: 20})
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)

	later := now.Add(time.Hour)
	_, err = svc.List(ctx, Filter{From: &later, To: &now}, paging.Page{Limit: 20})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
}
