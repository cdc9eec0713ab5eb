package taxonomy

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/paging"
)

type fakeStore struct {
	rows   map[string]map[uint64]*Entry
	refs   map[uint64]int
	nextID uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]map[uint64]*Entry{}, refs: map[uint64]int{}}
}

func (f *fakeStore) table(k Kind) map[uint64]*Entry {
	t, ok := f.rows[k.Path]
	if !ok {
		t = map[uint64]*Entry{}
		f.rows[k.Path] = t
	}
	return t
}

func (f *fakeStore) List(_ context.Context, k Kind, q *string, includeDisabled bool, _ paging.Page) ([]Entry, int64, error) {
	var out []Entry
	for _, e := range f.table(k) {
		if !includeDisabled && !e.IsActive {
			continue
		}
		if q != nil && !strings.Contains(e.Name, *q) {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) Get(_ context.Context, k Kind, id uint64) (*Entry, error) {
	e, ok := f.table(k)[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, k Kind, name string, desc sql.NullString) (uint64, error) {
	for _, e := range f.table(k) {
		if e.Name == name {
			return 0, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
		}
	}
	f.nextID++
	f.table(k)[f.nextID] = &Entry{ID: f.nextID, Name: name, Description: desc, IsActive: true}
	return f.nextID, nil
}

func (f *fakeStore) Update(_ context.Context, k Kind, id uint64, in UpdateRequest) error {
	e, ok := f.table(k)[id]
	if !ok {
		return sql.ErrNoRows
	}
	if in.Name != nil {
		e.Name = *in.Name
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, k Kind, id uint64) (bool, string, error) {
	e, ok := f.table(k)[id]
	if !ok {
		return false, "", sql.ErrNoRows
	}
	if f.refs[id] > 0 {
		e.IsActive = false
		return true, "", nil
	}
	delete(f.table(k), id)
	return false, e.ImagePath.String, nil
}

func (f *fakeStore) ReplaceImage(_ context.Context, k Kind, id uint64, key string) (string, error) {
	e, ok := f.table(k)[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	old := e.ImagePath.String
	e.ImagePath = sql.NullString{String: key, Valid: true}
	return old, nil
}

type memFiles struct{ objs map[string]bool }

func (m *memFiles) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	_, _ = io.Copy(io.Discard, r)
	m.objs[key] = true
	return nil
}
func (m *memFiles) Delete(_ context.Context, key string) error { delete(m.objs, key); return nil }
func (m *memFiles) URL(key string) string                      { return "/storage/" + key }

func newService() (*Service, *fakeStore, *memFiles) {
	fs := newFakeStore()
	files := &memFiles{objs: map[string]bool{}}
	return &Service{store: fs, files: files, maxBytes: 1 << 20}, fs, files
}

func ptr[T any](v T) *T { return &v }

func TestCreate_TrimsAndRejectsDuplicates(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	res, err := svc.Create(ctx, Authors, CreateRequest{Name: "  Gabriel García Márquez ", Description: ptr(" Escritor ")})
	require.NoError(t, err)
	require.Equal(t, "Gabriel García Márquez", res.Name)
	require.Equal(t, "Escritor", *res.Description)
	require.True(t, res.IsActive)

	_, err = svc.Create(ctx, Authors, CreateRequest{Name: "Gabriel García Márquez"})
	require.True(t, apierr.Is(err, apierr.CodeConflict))

	// 別の種類なら同名でもよい
	_, err = svc.Create(ctx, Publishers, CreateRequest{Name: "Gabriel García Márquez"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Genres, CreateRequest{Name: "   "})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
}

func TestGetAndUpdate_NotFound(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Get(context.Background(), Categories, 42)
	require.True(t, apierr.Is(err, apierr.CodeNotFound))

	_, err = svc.Update(context.Background(), Categories, 42, UpdateRequest{Name: ptr("x")})
	require.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestDelete_SoftWhenReferenced(t *testing.T) {
	svc, fs, _ := newService()
	ctx := context.Background()
	res, err := svc.Create(ctx, Genres, CreateRequest{Name: "Realismo mágico"})
	require.NoError(t, err)
	fs.refs[res.ID] = 2

	del, err := svc.Delete(ctx, Genres, res.ID)
	require.NoError(t, err)
	require.True(t, del.Disabled)
	require.False(t, del.Deleted)

	// 無効化されたものは all=1 のときだけ見える
	list, err := svc.List(ctx, Genres, "", "", paging.Page{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 0, list.Total)
	list, err = svc.List(ctx, Genres, "", "1", paging.Page{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, list.Total)
}

func TestDelete_HardRemovesImage(t *testing.T) {
	svc, fs, files := newService()
	ctx := context.Background()
	res, err := svc.Create(ctx, Authors, CreateRequest{Name: "Isabel Allende"})
	require.NoError(t, err)
	files.objs["authors/a.png"] = true
	fs.table(Authors)[res.ID].ImagePath = sql.NullString{String: "authors/a.png", Valid: true}

	del, err := svc.Delete(ctx, Authors, res.ID)
	require.NoError(t, err)
	require.True(t, del.Deleted)
	require.Empty(t, files.objs)

	_, err = svc.Delete(ctx, Authors, res.ID)
	require.True(t, apierr.Is(err, apierr.CodeNotFound))
}
