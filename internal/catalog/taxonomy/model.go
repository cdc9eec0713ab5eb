package taxonomy

import (
	"database/sql"
	"time"
)

// Kind は辞書テーブルの種類（authors / categories / genres / publishers は同一構造）
type Kind struct {
	Path     string // URL とテーブル名
	IDColumn string
	Label    string
	refQuery string // 書籍から参照されている件数
}

var (
	Authors = Kind{
		Path: "authors", IDColumn: "author_id", Label: "author",
		refQuery: `SELECT COUNT(*) FROM book_authors WHERE author_id = ?`,
	}
	Categories = Kind{
		Path: "categories", IDColumn: "category_id", Label: "category",
		refQuery: `SELECT COUNT(*) FROM books WHERE category_id = ?`,
	}
	Genres = Kind{
		Path: "genres", IDColumn: "genre_id", Label: "genre",
		refQuery: `SELECT COUNT(*) FROM books WHERE genre_id = ?`,
	}
	Publishers = Kind{
		Path: "publishers", IDColumn: "publisher_id", Label: "publisher",
		refQuery: `SELECT COUNT(*) FROM books WHERE publisher_id = ?`,
	}
)

func Kinds() []Kind { return []Kind{Authors, Categories, Genres, Publishers} }

type Entry struct {
	ID          uint64
	Name        string
	Description sql.NullString
	ImagePath   sql.NullString
	IsActive    bool
	CreatedAt   time.Time
}
