package inventory

import (
	"context"
	"database/sql"
	"strings"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/paging"
)

type store interface {
	GetByBook(ctx context.Context, bookID uint64) (*Inventory, error)
	BookExists(ctx context.Context, bookID uint64) (bool, error)
	Upsert(ctx context.Context, inv *Inventory) error
	Adjust(ctx context.Context, bookID uint64, delta int) (*Inventory, error)
	List(ctx context.Context, f Filter, lowStock int, p paging.Page) ([]row, int64, error)
}

type Service struct {
	store             store
	lowStockThreshold int
}

func NewService(db *sql.DB, lowStockThreshold int) *Service {
	return &Service{store: NewStore(db), lowStockThreshold: lowStockThreshold}
}

// ValidateInput: binding タグを通らない経路（書籍登録のネスト入力など）でも同じ検証をする
func ValidateInput(in Input) error {
	if in.Quantity != nil && *in.Quantity < 0 {
		return apierr.ErrInvalid("inventory.quantity must be >= 0")
	}
	if in.Condition != nil && !Condition(*in.Condition).Valid() {
		return apierr.ErrInvalid("inventory.condition must be one of nuevo, usado, deteriorado")
	}
	if in.Status != nil && !Status(*in.Status).Valid() {
		return apierr.ErrInvalid("inventory.status must be one of disponible, en_reparacion, baja")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, bookID uint64) (*Response, error) {
	inv, err := s.store.GetByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apierr.ErrNotFound("inventory not found")
	}
	return ToResponse(inv), nil
}

func (s *Service) Put(ctx context.Context, bookID uint64, in Input) (*Response, error) {
	if err := ValidateInput(in); err != nil {
		return nil, err
	}
	ok, err := s.store.BookExists(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.ErrNotFound("book not found")
	}

	cur, err := s.store.GetByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	next := in.Apply(cur)
	next.BookID = bookID
	if in.Location != nil {
		next.Location = strings.TrimSpace(*in.Location)
	}
	if err := s.store.Upsert(ctx, &next); err != nil {
		return nil, err
	}
	return s.Get(ctx, bookID)
}

func (s *Service) Adjust(ctx context.Context, bookID uint64, in AdjustRequest) (*Response, error) {
	if in.Delta == 0 {
		return nil, apierr.ErrInvalid("delta must not be 0")
	}
	inv, err := s.store.Adjust(ctx, bookID, in.Delta)
	if err != nil {
		return nil, err
	}
	return ToResponse(inv), nil
}

func (s *Service) List(ctx context.Context, f Filter, p paging.Page) (paging.List[Response], error) {
	if f.Condition != nil && !f.Condition.Valid() {
		return paging.List[Response]{}, apierr.ErrInvalid("invalid condition")
	}
	if f.Status != nil && !f.Status.Valid() {
		return paging.List[Response]{}, apierr.ErrInvalid("invalid status")
	}
	rows, total, err := s.store.List(ctx, f, s.lowStockThreshold, p)
	if err != nil {
		return paging.List[Response]{}, err
	}
	items := make([]Response, 0, len(rows))
	for i := range rows {
		r := ToResponse(&rows[i].Inventory)
		r.BookTitle = rows[i].BookTitle
		items = append(items, *r)
	}
	return paging.NewList(items, total, p), nil
}
