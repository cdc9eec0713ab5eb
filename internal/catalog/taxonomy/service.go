package taxonomy

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"mime/multipart"
	"strings"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/paging"
	"BIBLIO-backend/internal/platform/storage"
)

type store interface {
	List(ctx context.Context, k Kind, q *string, includeDisabled bool, p paging.Page) ([]Entry, int64, error)
	Get(ctx context.Context, k Kind, id uint64) (*Entry, error)
	Create(ctx context.Context, k Kind, name string, description sql.NullString) (uint64, error)
	Update(ctx context.Context, k Kind, id uint64, in UpdateRequest) error
	Delete(ctx context.Context, k Kind, id uint64) (bool, string, error)
	ReplaceImage(ctx context.Context, k Kind, id uint64, key string) (string, error)
}

type Service struct {
	store    store
	files    storage.Storage
	maxBytes int64
}

func NewService(db *sql.DB, files storage.Storage, maxBytes int64) *Service {
	return &Service{store: NewStore(db), files: files, maxBytes: maxBytes}
}

func parseBoolish(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "1" || s == "true" || s == "yes" || s == "all"
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apierr.ErrInvalid("name is required")
	}
	return name, nil
}

func (s *Service) notFound(k Kind, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apierr.ErrNotFound(k.Label + " not found")
	}
	return err
}

func (s *Service) List(ctx context.Context, k Kind, q, all string, p paging.Page) (paging.List[Response], error) {
	rows, total, err := s.store.List(ctx, k, paging.OptString(q), parseBoolish(all), p)
	if err != nil {
		return paging.List[Response]{}, err
	}
	items := make([]Response, 0, len(rows))
	for i := range rows {
		items = append(items, s.toResponse(&rows[i]))
	}
	return paging.NewList(items, total, p), nil
}

func (s *Service) Get(ctx context.Context, k Kind, id uint64) (*Response, error) {
	e, err := s.store.Get(ctx, k, id)
	if err != nil {
		return nil, s.notFound(k, err)
	}
	res := s.toResponse(e)
	return &res, nil
}

func (s *Service) Create(ctx context.Context, k Kind, in CreateRequest) (*Response, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	var desc sql.NullString
	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		desc = sql.NullString{String: strings.TrimSpace(*in.Description), Valid: true}
	}
	id, err := s.store.Create(ctx, k, name, desc)
	if err != nil {
		if apierr.IsDuplicateKey(err) {
			return nil, apierr.ErrConflict(k.Label + " name already exists")
		}
		return nil, err
	}
	log.Printf("[INFO] %s created: id=%d name=%s", k.Label, id, name)
	return s.Get(ctx, k, id)
}

func (s *Service) Update(ctx context.Context, k Kind, id uint64, in UpdateRequest) (*Response, error) {
	if in.Name != nil {
		n, err := normalizeName(*in.Name)
		if err != nil {
			return nil, err
		}
		in.Name = &n
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
	}
	if err := s.store.Update(ctx, k, id, in); err != nil {
		if apierr.IsDuplicateKey(err) {
			return nil, apierr.ErrConflict(k.Label + " name already exists")
		}
		return nil, s.notFound(k, err)
	}
	return s.Get(ctx, k, id)
}

func (s *Service) Delete(ctx context.Context, k Kind, id uint64) (*DeleteResponse, error) {
	disabled, image, err := s.store.Delete(ctx, k, id)
	if err != nil {
		return nil, s.notFound(k, err)
	}
	if disabled {
		log.Printf("[INFO] %s %d is referenced by books; disabled instead of deleted", k.Label, id)
		return &DeleteResponse{ID: id, Disabled: true}, nil
	}
	storage.DeleteQuietly(ctx, s.files, image)
	return &DeleteResponse{ID: id, Deleted: true}, nil
}

func (s *Service) SetImage(ctx context.Context, k Kind, id uint64, fh *multipart.FileHeader) (*Response, error) {
	key, err := storage.SaveImage(ctx, s.files, k.Path, fh, s.maxBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			return nil, apierr.ErrInvalid("file too large")
		case errors.Is(err, storage.ErrUnsupportedType):
			return nil, apierr.ErrInvalid("file must be a jpeg, png, webp or gif image")
		}
		return nil, err
	}
	old, err := s.store.ReplaceImage(ctx, k, id, key)
	if err != nil {
		storage.DeleteQuietly(ctx, s.files, key)
		return nil, s.notFound(k, err)
	}
	storage.DeleteQuietly(ctx, s.files, old)
	return s.Get(ctx, k, id)
}

func (s *Service) toResponse(e *Entry) Response {
	res := Response{ID: e.ID, Name: e.Name, IsActive: e.IsActive, CreatedAt: e.CreatedAt}
	if e.Description.Valid {
		d := e.Description.String
		res.Description = &d
	}
	if e.ImagePath.Valid && e.ImagePath.String != "" && s.files != nil {
		u := s.files.URL(e.ImagePath.String)
		res.ImageURL = &u
	}
	return res
}
