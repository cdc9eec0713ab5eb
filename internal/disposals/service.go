package disposals

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/auth"
	"BIBLIO-backend/internal/platform/clock"
	"BIBLIO-backend/internal/platform/ident"
	"BIBLIO-backend/internal/platform/paging"
)

type store interface {
	Create(ctx context.Context, d *Disposal) (*inventory.Inventory, error)
	Get(ctx context.Context, ulid string) (*Disposal, error)
	List(ctx context.Context, f Filter, p paging.Page) ([]Disposal, int64, error)
}

type Service struct {
	store store
	clock clock.Clock
	ids   ident.IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), clock: clock.Real(), ids: ident.ULID()}
}

// Create: POST /books/:book_id/disposals
func (s *Service) Create(ctx context.Context, p auth.Principal, bookID uint64, in CreateRequest) (*Response, error) {
	if in.Quantity <= 0 {
		return nil, apierr.ErrInvalid("quantity must be > 0")
	}
	id, err := s.ids.New()
	if err != nil {
		return nil, err
	}
	d := &Disposal{
		DisposalULID: id,
		BookID:       bookID,
		Quantity:     in.Quantity,
		ProcessedBy:  sql.NullString{String: p.UserID, Valid: p.UserID != ""},
		DisposedAt:   s.clock.Now(),
	}
	if in.Reason != nil && strings.TrimSpace(*in.Reason) != "" {
		d.Reason = sql.NullString{String: strings.TrimSpace(*in.Reason), Valid: true}
	}

	after, err := s.store.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] disposal: book=%d qty=%d remaining=%d by=%s", bookID, d.Quantity, after.Quantity, p.UserID)

	res := ToResponse(d)
	res.RemainingQuantity = &after.Quantity
	return &res, nil
}

func (s *Service) Get(ctx context.Context, ulid string) (*Response, error) {
	if !ident.IsULID(ulid) {
		return nil, apierr.ErrInvalid("invalid disposal id")
	}
	d, err := s.store.Get(ctx, ulid)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apierr.ErrNotFound("disposal not found")
	}
	res := ToResponse(d)
	return &res, nil
}

func (s *Service) List(ctx context.Context, f Filter, p paging.Page) (paging.List[Response], error) {
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return paging.List[Response]{}, apierr.ErrInvalid("from must be before to")
	}
	list, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return paging.List[Response]{}, err
	}
	items := make([]Response, 0, len(list))
	for i := range list {
		items = append(items, ToResponse(&list[i]))
	}
	return paging.NewList(items, total, p), nil
}
