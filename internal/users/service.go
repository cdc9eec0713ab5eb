package users

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/clock"
	"BIBLIO-backend/internal/platform/paging"
	"BIBLIO-backend/internal/platform/storage"
)

const credentialDir = "credentials"

type store interface {
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, f Filter, p paging.Page) ([]User, int64, error)
	SetRole(ctx context.Context, id, role string) error
	SetDisabled(ctx context.Context, id string, disabled bool) error
	Delete(ctx context.Context, id string) (string, error)
	SetCredential(ctx context.Context, id, key string, now time.Time) (string, error)
	VerifyCredential(ctx context.Context, id, by string, now time.Time) (int64, error)
	RejectCredential(ctx context.Context, id, reason string) (string, error)
}

type Service struct {
	store    store
	files    storage.Storage
	maxBytes int64
	clock    clock.Clock
}

func NewService(db *sql.DB, files storage.Storage, maxBytes int64) *Service {
	return &Service{store: NewStore(db), files: files, maxBytes: maxBytes, clock: clock.Real()}
}

func (s *Service) List(ctx context.Context, f Filter, p paging.Page) (paging.List[Response], error) {
	if f.Role != nil && !auth.ValidRole(*f.Role) {
		return paging.List[Response]{}, apierr.ErrInvalid("role must be reader, librarian or admin")
	}
	list, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return paging.List[Response]{}, err
	}
	items := make([]Response, 0, len(list))
	for i := range list {
		items = append(items, s.toResponse(&list[i]))
	}
	return paging.NewList(items, total, p), nil
}

// Get: 本人か職員のみ
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (*Response, error) {
	if !p.CanActFor(id) {
		return nil, apierr.ErrForbidden("not allowed to view this user")
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.toResponse(u)
	return &res, nil
}

func (s *Service) SetRole(ctx context.Context, p auth.Principal, id string, in RoleRequest) (*Response, error) {
	if !auth.ValidRole(in.Role) {
		return nil, apierr.ErrInvalid("role must be reader, librarian or admin")
	}
	if id == p.UserID {
		return nil, apierr.ErrUnprocessable("cannot change your own role")
	}
	if err := s.store.SetRole(ctx, id, in.Role); err != nil {
		return nil, err
	}
	log.Printf("[INFO] role changed: user=%s role=%s by=%s", id, in.Role, p.UserID)
	return s.Get(ctx, p, id)
}

func (s *Service) SetDisabled(ctx context.Context, p auth.Principal, id string, in StatusRequest) (*Response, error) {
	if in.IsDisabled == nil {
		return nil, apierr.ErrInvalid("is_disabled is required")
	}
	if id == p.UserID && *in.IsDisabled {
		return nil, apierr.ErrUnprocessable("cannot disable your own account")
	}
	if err := s.store.SetDisabled(ctx, id, *in.IsDisabled); err != nil {
		return nil, err
	}
	log.Printf("[INFO] user status changed: user=%s disabled=%t by=%s", id, *in.IsDisabled, p.UserID)
	return s.Get(ctx, p, id)
}

func (s *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if id == p.UserID {
		return apierr.ErrUnprocessable("cannot delete your own account")
	}
	cred, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	log.Printf("[INFO] user deleted: user=%s by=%s", id, p.UserID)
	storage.DeleteQuietly(ctx, s.files, cred)
	return nil
}

// UploadCredential: 本人の在籍証明を保存。確認状態はリセットされる
func (s *Service) UploadCredential(ctx context.Context, p auth.Principal, fh *multipart.FileHeader) (*Response, error) {
	key, err := storage.SaveImage(ctx, s.files, credentialDir, fh, s.maxBytes)
	if err != nil {
		return nil, uploadErr(err)
	}
	old, err := s.store.SetCredential(ctx, p.UserID, key, s.clock.Now())
	if err != nil {
		storage.DeleteQuietly(ctx, s.files, key)
		return nil, err
	}
	storage.DeleteQuietly(ctx, s.files, old)
	log.Printf("[INFO] credential uploaded: user=%s", p.UserID)
	return s.Get(ctx, p, p.UserID)
}

func (s *Service) VerifyCredential(ctx context.Context, p auth.Principal, id string) (*VerifyResponse, error) {
	n, err := s.store.VerifyCredential(ctx, id, p.UserID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] credential verified: user=%s by=%s promoted=%d", id, p.UserID, n)
	u, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return &VerifyResponse{User: *u, PromotedReservations: n}, nil
}

func (s *Service) RejectCredential(ctx context.Context, p auth.Principal, id string, in RejectCredentialRequest) (*Response, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apierr.ErrInvalid("reason is required")
	}
	old, err := s.store.RejectCredential(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	storage.DeleteQuietly(ctx, s.files, old)
	log.Printf("[INFO] credential rejected: user=%s by=%s", id, p.UserID)
	return s.Get(ctx, p, id)
}

func uploadErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return apierr.ErrInvalid("file too large")
	case errors.Is(err, storage.ErrUnsupportedType):
		return apierr.ErrInvalid("credential must be a jpeg, png, webp or gif image")
	}
	return err
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}

func (s *Service) toResponse(u *User) Response {
	res := Response{
		ID:                        u.ID,
		Name:                      u.Name,
		Email:                     strPtr(u.Email),
		Role:                      u.Role,
		IsDisabled:                u.IsDisabled,
		CredentialStatus:          u.CredentialStatus(),
		CredentialUploadedAt:      timePtr(u.CredentialUploadedAt),
		CredentialVerifiedAt:      timePtr(u.CredentialVerifiedAt),
		CredentialVerifiedBy:      strPtr(u.CredentialVerifiedBy),
		CredentialRejectionReason: strPtr(u.CredentialRejectionReason),
		CreatedAt:                 u.CreatedAt,
	}
	if u.CredentialPath.Valid && u.CredentialPath.String != "" && s.files != nil {
		url := s.files.URL(u.CredentialPath.String)
		res.CredentialURL = &url
	}
	return res
}
