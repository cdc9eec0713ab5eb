package books

import (
	"time"

	"BIBLIO-backend/internal/inventory"
)

type DetailInput struct {
	Description *string `json:"description,omitempty"`
	Pages       *int    `json:"pages,omitempty" binding:"omitempty,min=1"`
	Language    *string `json:"language,omitempty" binding:"omitempty,max=64"`
	Edition     *string `json:"edition,omitempty" binding:"omitempty,max=64"`
	Dimensions  *string `json:"dimensions,omitempty" binding:"omitempty,max=64"`
}

type CreateBookRequest struct {
	Title           string           `json:"title" binding:"required,max=255"`
	ISBN            string           `json:"isbn" binding:"required,isbn"`
	Folio           string           `json:"folio" binding:"required,max=64"`
	PublicationYear *int             `json:"publication_year,omitempty" binding:"omitempty,min=1000,max=9999"`
	IsActive        *bool            `json:"is_active,omitempty"`
	CategoryID      *uint64          `json:"category_id,omitempty"`
	GenreID         *uint64          `json:"genre_id,omitempty"`
	PublisherID     *uint64          `json:"publisher_id,omitempty"`
	AuthorIDs       []uint64         `json:"author_ids,omitempty"`
	Details         *DetailInput     `json:"details,omitempty"`
	Inventory       *inventory.Input `json:"inventory,omitempty"`
}

// UpdateBookRequest: nil のフィールドは変更しない。author_ids は指定時に丸ごと置き換え
type UpdateBookRequest struct {
	Title           *string          `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	ISBN            *string          `json:"isbn,omitempty" binding:"omitempty,isbn"`
	Folio           *string          `json:"folio,omitempty" binding:"omitempty,min=1,max=64"`
	PublicationYear *int             `json:"publication_year,omitempty" binding:"omitempty,min=1000,max=9999"`
	IsActive        *bool            `json:"is_active,omitempty"`
	CategoryID      *uint64          `json:"category_id,omitempty"`
	GenreID         *uint64          `json:"genre_id,omitempty"`
	PublisherID     *uint64          `json:"publisher_id,omitempty"`
	AuthorIDs       *[]uint64        `json:"author_ids,omitempty"`
	Details         *DetailInput     `json:"details,omitempty"`
	Inventory       *inventory.Input `json:"inventory,omitempty"`
}

type Ref struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type DetailResponse struct {
	Description *string `json:"description,omitempty"`
	Pages       *int64  `json:"pages,omitempty"`
	Language    *string `json:"language,omitempty"`
	Edition     *string `json:"edition,omitempty"`
	Dimensions  *string `json:"dimensions,omitempty"`
}

type BookResponse struct {
	BookID          uint64              `json:"book_id"`
	Title           string              `json:"title"`
	ISBN            string              `json:"isbn"`
	Folio           string              `json:"folio"`
	PublicationYear *int64              `json:"publication_year,omitempty"`
	CoverURL        *string             `json:"cover_url,omitempty"`
	IsActive        bool                `json:"is_active"`
	IsAvailable     bool                `json:"is_available"`
	Category        *Ref                `json:"category,omitempty"`
	Genre           *Ref                `json:"genre,omitempty"`
	Publisher       *Ref                `json:"publisher,omitempty"`
	Authors         []Ref               `json:"authors"`
	Details         *DetailResponse     `json:"details,omitempty"`
	Inventory       *inventory.Response `json:"inventory,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}
