package books

import (
	"database/sql"
	"time"

	"BIBLIO-backend/internal/inventory"
)

// Book は books テーブルの1行 + 付随データ
type Book struct {
	BookID          uint64
	Title           string
	ISBN            string
	Folio           string
	PublicationYear sql.NullInt64
	CoverImage      sql.NullString
	IsActive        bool
	CategoryID      sql.NullInt64
	GenreID         sql.NullInt64
	PublisherID     sql.NullInt64
	CreatedAt       time.Time

	CategoryName  sql.NullString
	GenreName     sql.NullString
	PublisherName sql.NullString

	Detail    *Detail
	Inventory *inventory.Inventory
	Authors   []AuthorRef
}

type Detail struct {
	Description sql.NullString
	Pages       sql.NullInt64
	Language    sql.NullString
	Edition     sql.NullString
	Dimensions  sql.NullString
}

type AuthorRef struct {
	AuthorID uint64
	Name     string
}

// IsAvailable: 有効かつ在庫が1冊以上
func (b *Book) IsAvailable() bool {
	return IsAvailable(b.IsActive, b.Inventory)
}

func IsAvailable(active bool, inv *inventory.Inventory) bool {
	return active && inventory.QuantityOf(inv) > 0
}

// Filter: GET /books の検索条件
type Filter struct {
	Q           *string
	CategoryID  *uint64
	GenreID     *uint64
	PublisherID *uint64
	AuthorID    *uint64
	Available   *bool
	Active      *bool
}

// Apply: 入力を既存の詳細に重ねる
func (in DetailInput) Apply(cur *Detail) Detail {
	var out Detail
	if cur != nil {
		out = *cur
	}
	setStr := func(dst *sql.NullString, v *string) {
		if v != nil {
			*dst = sql.NullString{String: *v, Valid: *v != ""}
		}
	}
	setStr(&out.Description, in.Description)
	setStr(&out.Language, in.Language)
	setStr(&out.Edition, in.Edition)
	setStr(&out.Dimensions, in.Dimensions)
	if in.Pages != nil {
		out.Pages = sql.NullInt64{Int64: int64(*in.Pages), Valid: true}
	}
	return out
}
