package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql" // dialect 登録
	"github.com/doug-martin/goqu/v9/exp"

	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/db"
	"BIBLIO-backend/internal/platform/paging"
)

var dialect = goqu.Dialect("mysql")

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// ===== 検索クエリ =====

func fromBooks() *goqu.SelectDataset {
	return dialect.From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("inventories").As("i"), goqu.On(goqu.I("i.book_id").Eq(goqu.I("b.book_id"))))
}

// availableExpr: 有効かつ在庫 > 0（在庫行なしは 0 冊）
func availableExpr(want bool) exp.Expression {
	qty := goqu.COALESCE(goqu.I("i.quantity"), 0)
	if want {
		return goqu.And(goqu.I("b.is_active").IsTrue(), qty.Gt(0))
	}
	return goqu.Or(goqu.I("b.is_active").IsFalse(), qty.Lte(0))
}

func filterExpressions(f Filter) []exp.Expression {
	ex := make([]exp.Expression, 0, 8)
	if f.Q != nil {
		like := db.Contains(*f.Q)
		byAuthor := dialect.From(goqu.T("book_authors").As("ba")).
			Join(goqu.T("authors").As("a"), goqu.On(goqu.I("a.author_id").Eq(goqu.I("ba.author_id")))).
			Select(goqu.I("ba.book_id")).
			Where(goqu.I("a.name").ILike(like))
		ex = append(ex, goqu.Or(
			goqu.I("b.title").ILike(like),
			goqu.I("b.isbn").ILike(like),
			goqu.I("b.folio").ILike(like),
			goqu.I("b.book_id").In(byAuthor),
		))
	}
	if f.CategoryID != nil {
		ex = append(ex, goqu.I("b.category_id").Eq(*f.CategoryID))
	}
	if f.GenreID != nil {
		ex = append(ex, goqu.I("b.genre_id").Eq(*f.GenreID))
	}
	if f.PublisherID != nil {
		ex = append(ex, goqu.I("b.publisher_id").Eq(*f.PublisherID))
	}
	if f.AuthorID != nil {
		ex = append(ex, goqu.I("b.book_id").In(
			dialect.From("book_authors").Select("book_id").Where(goqu.C("author_id").Eq(*f.AuthorID)),
		))
	}
	if f.Active != nil {
		ex = append(ex, goqu.I("b.is_active").Eq(*f.Active))
	}
	if f.Available != nil {
		ex = append(ex, availableExpr(*f.Available))
	}
	return ex
}

func selectBooks() *goqu.SelectDataset {
	return fromBooks().
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.category_id").Eq(goqu.I("b.category_id")))).
		LeftJoin(goqu.T("genres").As("g"), goqu.On(goqu.I("g.genre_id").Eq(goqu.I("b.genre_id")))).
		LeftJoin(goqu.T("publishers").As("p"), goqu.On(goqu.I("p.publisher_id").Eq(goqu.I("b.publisher_id")))).
		Select(
			goqu.I("b.book_id"), goqu.I("b.title"), goqu.I("b.isbn"), goqu.I("b.folio"),
			goqu.I("b.publication_year"), goqu.I("b.cover_image"), goqu.I("b.is_active"),
			goqu.I("b.category_id"), goqu.I("b.genre_id"), goqu.I("b.publisher_id"), goqu.I("b.created_at"),
			goqu.I("c.name"), goqu.I("g.name"), goqu.I("p.name"),
			goqu.I("i.inventory_id"), goqu.I("i.quantity"), goqu.I("i.item_condition"),
			goqu.I("i.status"), goqu.I("i.location"), goqu.I("i.updated_at"),
		)
}

func listQuery(f Filter, p paging.Page) (string, []any, error) {
	ds := selectBooks().Where(filterExpressions(f)...)
	if p.Order == "asc" {
		ds = ds.Order(goqu.I("b.created_at").Asc(), goqu.I("b.book_id").Asc())
	} else {
		ds = ds.Order(goqu.I("b.created_at").Desc(), goqu.I("b.book_id").Desc())
	}
	return ds.Limit(uint(p.Limit)).Offset(uint(p.Offset)).Prepared(true).ToSQL()
}

func countQuery(f Filter) (string, []any, error) {
	return fromBooks().Select(goqu.COUNT(goqu.Star())).Where(filterExpressions(f)...).Prepared(true).ToSQL()
}

type scanner interface{ Scan(...any) error }

func scanBook(row scanner) (*Book, error) {
	var (
		b      Book
		invID  sql.NullInt64
		qty    sql.NullInt64
		cond   sql.NullString
		status sql.NullString
		loc    sql.NullString
		upd    sql.NullTime
	)
	err := row.Scan(
		&b.BookID, &b.Title, &b.ISBN, &b.Folio,
		&b.PublicationYear, &b.CoverImage, &b.IsActive,
		&b.CategoryID, &b.GenreID, &b.PublisherID, &b.CreatedAt,
		&b.CategoryName, &b.GenreName, &b.PublisherName,
		&invID, &qty, &cond, &status, &loc, &upd,
	)
	if err != nil {
		return nil, err
	}
	if invID.Valid {
		b.Inventory = &inventory.Inventory{
			InventoryID: uint64(invID.Int64),
			BookID:      b.BookID,
			Quantity:    int(qty.Int64),
			Condition:   inventory.Condition(cond.String),
			Status:      inventory.Status(status.String),
			Location:    loc.String,
			UpdatedAt:   upd.Time,
		}
	}
	return &b, nil
}

func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]Book, int64, error) {
	q, args, err := listQuery(f, p)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.attachAuthors(ctx, list); err != nil {
		return nil, 0, err
	}

	cq, cargs, err := countQuery(f)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cq, cargs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// attachAuthors: ページ分の著者を1クエリでまとめて引く
func (s *Store) attachAuthors(ctx context.Context, list []Book) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(list))
	idx := make(map[uint64]int, len(list))
	for i := range list {
		ids = append(ids, list[i].BookID)
		idx[list[i].BookID] = i
	}
	q, args, err := dialect.From(goqu.T("book_authors").As("ba")).
		Join(goqu.T("authors").As("a"), goqu.On(goqu.I("a.author_id").Eq(goqu.I("ba.author_id")))).
		Select(goqu.I("ba.book_id"), goqu.I("a.author_id"), goqu.I("a.name")).
		Where(goqu.I("ba.book_id").In(ids)).
		Order(goqu.I("a.name").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			bookID uint64
			a      AuthorRef
		)
		if err := rows.Scan(&bookID, &a.AuthorID, &a.Name); err != nil {
			return err
		}
		if i, ok := idx[bookID]; ok {
			list[i].Authors = append(list[i].Authors, a)
		}
	}
	return rows.Err()
}

// Get: 見つからなければ nil, nil
func (s *Store) Get(ctx context.Context, id uint64) (*Book, error) {
	q, args, err := selectBooks().Where(goqu.I("b.book_id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	b, err := scanBook(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.Detail, err = getDetailTx(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	one := []Book{*b}
	if err := s.attachAuthors(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func getDetailTx(ctx context.Context, q db.DBTX, bookID uint64) (*Detail, error) {
	const stmt = `SELECT description, pages, language, edition, dimensions FROM book_details WHERE book_id = ?`
	var d Detail
	err := q.QueryRowContext(ctx, stmt, bookID).Scan(&d.Description, &d.Pages, &d.Language, &d.Edition, &d.Dimensions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func upsertDetailTx(ctx context.Context, tx *sql.Tx, bookID uint64, d Detail) error {
	const stmt = `
	INSERT INTO book_details (book_id, description, pages, language, edition, dimensions)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
	description = VALUES(description),
	pages       = VALUES(pages),
	language    = VALUES(language),
	edition     = VALUES(edition),
	dimensions  = VALUES(dimensions)`
	var pages any
	if d.Pages.Valid {
		pages = d.Pages.Int64
	}
	_, err := tx.ExecContext(ctx, stmt, bookID,
		db.NullStrOrNil(d.Description), pages, db.NullStrOrNil(d.Language),
		db.NullStrOrNil(d.Edition), db.NullStrOrNil(d.Dimensions))
	return err
}

func replaceAuthorsTx(ctx context.Context, tx *sql.Tx, bookID uint64, authorIDs []uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_authors WHERE book_id = ?`, bookID); err != nil {
		return err
	}
	if len(authorIDs) == 0 {
		return nil
	}
	vals := make([]string, 0, len(authorIDs))
	args := make([]any, 0, len(authorIDs)*2)
	for _, a := range authorIDs {
		vals = append(vals, "(?, ?)")
		args = append(args, bookID, a)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO book_authors (book_id, author_id) VALUES `+strings.Join(vals, ", "), args...)
	return err
}

func nullInt(n sql.NullInt64) any {
	if n.Valid {
		return n.Int64
	}
	return nil
}

// Create: 書籍・詳細・著者・在庫を1トランザクションで登録
func (s *Store) Create(ctx context.Context, b *Book, d *Detail, authorIDs []uint64, inv inventory.Inventory) (uint64, error) {
	var id uint64
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
		INSERT INTO books (title, isbn, folio, publication_year, is_active, category_id, genre_id, publisher_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q, b.Title, b.ISBN, b.Folio, nullInt(b.PublicationYear), b.IsActive,
			nullInt(b.CategoryID), nullInt(b.GenreID), nullInt(b.PublisherID))
		if err != nil {
			return err
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = uint64(lastID)

		if d != nil {
			if err := upsertDetailTx(ctx, tx, id, *d); err != nil {
				return err
			}
		}
		if err := replaceAuthorsTx(ctx, tx, id, authorIDs); err != nil {
			return err
		}
		inv.BookID = id
		return inventory.UpsertTx(ctx, tx, &inv)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func lockBookTx(ctx context.Context, tx *sql.Tx, id uint64) (coverImage sql.NullString, err error) {
	err = tx.QueryRowContext(ctx, `SELECT cover_image FROM books WHERE book_id = ? FOR UPDATE`, id).Scan(&coverImage)
	if errors.Is(err, sql.ErrNoRows) {
		return coverImage, apierr.ErrNotFound("book not found")
	}
	return coverImage, err
}

// Update: 指定されたフィールドだけ更新（動的 SET）
func (s *Store) Update(ctx context.Context, id uint64, in UpdateBookRequest) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := lockBookTx(ctx, tx, id); err != nil {
			return err
		}

		sets := []string{}
		args := []any{}
		add := func(col string, v any) {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
		if in.Title != nil {
			add("title", *in.Title)
		}
		if in.ISBN != nil {
			add("isbn", *in.ISBN)
		}
		if in.Folio != nil {
			add("folio", *in.Folio)
		}
		if in.PublicationYear != nil {
			add("publication_year", *in.PublicationYear)
		}
		if in.IsActive != nil {
			add("is_active", *in.IsActive)
		}
		// 0 は関連の解除
		optRef := func(col string, v *uint64) {
			if v == nil {
				return
			}
			if *v == 0 {
				add(col, nil)
				return
			}
			add(col, *v)
		}
		optRef("category_id", in.CategoryID)
		optRef("genre_id", in.GenreID)
		optRef("publisher_id", in.PublisherID)

		if len(sets) > 0 {
			q := fmt.Sprintf(`UPDATE books SET %s WHERE book_id = ?`, strings.Join(sets, ", "))
			if _, err := tx.ExecContext(ctx, q, append(args, id)...); err != nil {
				return err
			}
		}

		if in.Details != nil {
			cur, err := getDetailTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := upsertDetailTx(ctx, tx, id, in.Details.Apply(cur)); err != nil {
				return err
			}
		}
		if in.AuthorIDs != nil {
			if err := replaceAuthorsTx(ctx, tx, id, *in.AuthorIDs); err != nil {
				return err
			}
		}
		if in.Inventory != nil {
			cur, err := inventory.GetByBookTx(ctx, tx, id)
			if err != nil {
				return err
			}
			next := in.Inventory.Apply(cur)
			next.BookID = id
			if err := inventory.UpsertTx(ctx, tx, &next); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete: 関連行を手動で消してから本体を削除。貸出中があれば 409
func (s *Store) Delete(ctx context.Context, id uint64) (string, error) {
	var cover sql.NullString
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		cover, err = lockBookTx(ctx, tx, id)
		if err != nil {
			return err
		}

		var active int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM loans WHERE book_id = ? AND status = 'active'`, id).Scan(&active); err != nil {
			return err
		}
		if active > 0 {
			return apierr.ErrConflict("book has active loans")
		}

		for _, q := range []string{
			`DELETE FROM loans WHERE book_id = ?`,
			`DELETE FROM reservations WHERE book_id = ?`,
			`DELETE FROM disposals WHERE book_id = ?`,
			`DELETE FROM book_authors WHERE book_id = ?`,
			`DELETE FROM book_details WHERE book_id = ?`,
			`DELETE FROM inventories WHERE book_id = ?`,
			`DELETE FROM books WHERE book_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return cover.String, nil
}

// ReplaceCover: 表紙キーを差し替えて旧キーを返す
func (s *Store) ReplaceCover(ctx context.Context, id uint64, key string) (string, error) {
	var old sql.NullString
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		old, err = lockBookTx(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE books SET cover_image = ? WHERE book_id = ?`, key, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return old.String, nil
}
