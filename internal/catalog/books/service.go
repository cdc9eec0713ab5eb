package books

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"mime/multipart"
	"strings"

	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/paging"
	"BIBLIO-backend/internal/platform/storage"
	"BIBLIO-backend/internal/platform/validate"
)

const coverDir = "covers"

type store interface {
	List(ctx context.Context, f Filter, p paging.Page) ([]Book, int64, error)
	Get(ctx context.Context, id uint64) (*Book, error)
	Create(ctx context.Context, b *Book, d *Detail, authorIDs []uint64, inv inventory.Inventory) (uint64, error)
	Update(ctx context.Context, id uint64, in UpdateBookRequest) error
	Delete(ctx context.Context, id uint64) (string, error)
	ReplaceCover(ctx context.Context, id uint64, key string) (string, error)
}

type Service struct {
	store    store
	files    storage.Storage
	maxBytes int64
}

func NewService(db *sql.DB, files storage.Storage, maxBytes int64) *Service {
	return &Service{store: NewStore(db), files: files, maxBytes: maxBytes}
}

func (s *Service) List(ctx context.Context, f Filter, p paging.Page, staff bool) (paging.List[BookResponse], error) {
	// 一般利用者には無効な書籍を見せない
	if !staff {
		t := true
		f.Active = &t
	}
	list, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return paging.List[BookResponse]{}, err
	}
	items := make([]BookResponse, 0, len(list))
	for i := range list {
		items = append(items, s.toResponse(&list[i]))
	}
	return paging.NewList(items, total, p), nil
}

func (s *Service) Get(ctx context.Context, id uint64, staff bool) (*BookResponse, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil || (!b.IsActive && !staff) {
		return nil, apierr.ErrNotFound("book not found")
	}
	res := s.toResponse(b)
	return &res, nil
}

func dedupe(ids []uint64) ([]uint64, error) {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, apierr.ErrInvalid("author_ids must not contain 0")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func normalizeISBN(s string) (string, error) {
	if !validate.IsISBN(s) {
		return "", apierr.ErrInvalid("isbn is not a valid ISBN-10/13")
	}
	return validate.NormalizeISBN(s), nil
}

func requiredText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apierr.ErrInvalid(field + " is required")
	}
	return v, nil
}

func optRef(v *uint64) sql.NullInt64 {
	if v == nil || *v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func mapWriteErr(err error) error {
	switch {
	case apierr.IsDuplicateKey(err):
		return apierr.ErrConflict("isbn or folio already exists")
	case apierr.IsForeignKey(err):
		return apierr.ErrInvalid("referenced category, genre, publisher or author does not exist")
	}
	return err
}

func (s *Service) Create(ctx context.Context, in CreateBookRequest) (*BookResponse, error) {
	title, err := requiredText("title", in.Title)
	if err != nil {
		return nil, err
	}
	folio, err := requiredText("folio", in.Folio)
	if err != nil {
		return nil, err
	}
	isbn, err := normalizeISBN(in.ISBN)
	if err != nil {
		return nil, err
	}
	authors, err := dedupe(in.AuthorIDs)
	if err != nil {
		return nil, err
	}

	b := &Book{
		Title:       title,
		ISBN:        isbn,
		Folio:       folio,
		IsActive:    true,
		CategoryID:  optRef(in.CategoryID),
		GenreID:     optRef(in.GenreID),
		PublisherID: optRef(in.PublisherID),
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if in.PublicationYear != nil {
		b.PublicationYear = sql.NullInt64{Int64: int64(*in.PublicationYear), Valid: true}
	}

	var detail *Detail
	if in.Details != nil {
		d := in.Details.Apply(nil)
		detail = &d
	}

	// 在庫行は常に作る（未指定なら 0 冊）
	var invIn inventory.Input
	if in.Inventory != nil {
		invIn = *in.Inventory
	}
	if err := inventory.ValidateInput(invIn); err != nil {
		return nil, err
	}
	inv := invIn.Apply(nil)

	id, err := s.store.Create(ctx, b, detail, authors, inv)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	log.Printf("[INFO] book created: id=%d isbn=%s", id, isbn)
	return s.Get(ctx, id, true)
}

func (s *Service) Update(ctx context.Context, id uint64, in UpdateBookRequest) (*BookResponse, error) {
	if in.Title != nil {
		v, err := requiredText("title", *in.Title)
		if err != nil {
			return nil, err
		}
		in.Title = &v
	}
	if in.Folio != nil {
		v, err := requiredText("folio", *in.Folio)
		if err != nil {
			return nil, err
		}
		in.Folio = &v
	}
	if in.ISBN != nil {
		v, err := normalizeISBN(*in.ISBN)
		if err != nil {
			return nil, err
		}
		in.ISBN = &v
	}
	if in.AuthorIDs != nil {
		ids, err := dedupe(*in.AuthorIDs)
		if err != nil {
			return nil, err
		}
		in.AuthorIDs = &ids
	}
	if in.Inventory != nil {
		if err := inventory.ValidateInput(*in.Inventory); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, id, in); err != nil {
		return nil, mapWriteErr(err)
	}
	return s.Get(ctx, id, true)
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	cover, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	log.Printf("[INFO] book deleted: id=%d", id)
	storage.DeleteQuietly(ctx, s.files, cover)
	return nil
}

// SetCover: 新しい画像を保存 → DB 更新。DB 失敗時は新ファイルを消し、成功時は旧ファイルを消す
func (s *Service) SetCover(ctx context.Context, id uint64, fh *multipart.FileHeader) (*BookResponse, error) {
	key, err := storage.SaveImage(ctx, s.files, coverDir, fh, s.maxBytes)
	if err != nil {
		return nil, uploadErr(err)
	}
	old, err := s.store.ReplaceCover(ctx, id, key)
	if err != nil {
		storage.DeleteQuietly(ctx, s.files, key)
		return nil, err
	}
	storage.DeleteQuietly(ctx, s.files, old)
	return s.Get(ctx, id, true)
}

func uploadErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return apierr.ErrInvalid("file too large")
	case errors.Is(err, storage.ErrUnsupportedType):
		return apierr.ErrInvalid("file must be a jpeg, png, webp or gif image")
	}
	return err
}

func ref(id sql.NullInt64, name sql.NullString) *Ref {
	if !id.Valid {
		return nil
	}
	return &Ref{ID: uint64(id.Int64), Name: name.String}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func (s *Service) toResponse(b *Book) BookResponse {
	res := BookResponse{
		BookID:      b.BookID,
		Title:       b.Title,
		ISBN:        b.ISBN,
		Folio:       b.Folio,
		IsActive:    b.IsActive,
		IsAvailable: b.IsAvailable(),
		Category:    ref(b.CategoryID, b.CategoryName),
		Genre:       ref(b.GenreID, b.GenreName),
		Publisher:   ref(b.PublisherID, b.PublisherName),
		Authors:     make([]Ref, 0, len(b.Authors)),
		Inventory:   inventory.ToResponse(b.Inventory),
		CreatedAt:   b.CreatedAt,
	}
	if b.PublicationYear.Valid {
		y := b.PublicationYear.Int64
		res.PublicationYear = &y
	}
	if b.CoverImage.Valid && b.CoverImage.String != "" && s.files != nil {
		u := s.files.URL(b.CoverImage.String)
		res.CoverURL = &u
	}
	for _, a := range b.Authors {
		res.Authors = append(res.Authors, Ref{ID: a.AuthorID, Name: a.Name})
	}
	if b.Detail != nil {
		d := &DetailResponse{
			Description: strPtr(b.Detail.Description),
			Language:    strPtr(b.Detail.Language),
			Edition:     strPtr(b.Detail.Edition),
			Dimensions:  strPtr(b.Detail.Dimensions),
		}
		if b.Detail.Pages.Valid {
			p := b.Detail.Pages.Int64
			d.Pages = &p
		}
		res.Details = d
	}
	return res
}
