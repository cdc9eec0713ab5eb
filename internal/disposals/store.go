package disposals

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/db"
	"BIBLIO-backend/internal/platform/paging"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const selectCols = `
	d.disposal_id, d.disposal_ulid, d.book_id, d.quantity, d.reason, d.processed_by, d.disposed_at, b.title`

func scanDisposal(row interface{ Scan(...any) error }) (*Disposal, error) {
	var d Disposal
	if err := row.Scan(&d.DisposalID, &d.DisposalULID, &d.BookID, &d.Quantity, &d.Reason, &d.ProcessedBy,
		&d.DisposedAt, &d.BookTitle); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create: 在庫ロック → 減算（0 冊なら baja）→ 除籍記録。除籍後の在庫を返す
func (s *Store) Create(ctx context.Context, d *Disposal) (*inventory.Inventory, error) {
	var after inventory.Inventory
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		inv, err := inventory.LockTx(ctx, tx, d.BookID)
		if err != nil {
			return err
		}
		after, err = plan(inv, d.Quantity)
		if err != nil {
			return err
		}
		if err := inventory.UpsertTx(ctx, tx, &after); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO disposals (disposal_ulid, book_id, quantity, reason, processed_by, disposed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			d.DisposalULID, d.BookID, d.Quantity, db.NullStrOrNil(d.Reason), db.NullStrOrNil(d.ProcessedBy), d.DisposedAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		d.DisposalID = uint64(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &after, nil
}

// Get: 見つからなければ nil, nil
func (s *Store) Get(ctx context.Context, ulid string) (*Disposal, error) {
	d, err := scanDisposal(s.db.QueryRowContext(ctx, `SELECT `+selectCols+`
		FROM disposals d JOIN books b ON b.book_id = d.book_id
		WHERE d.disposal_ulid = ?`, ulid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]Disposal, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if f.BookID != nil {
		wheres = append(wheres, "d.book_id = ?")
		args = append(args, *f.BookID)
	}
	if f.From != nil {
		wheres = append(wheres, "d.disposed_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		wheres = append(wheres, "d.disposed_at < ?")
		args = append(args, *f.To)
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+selectCols+`
		FROM disposals d JOIN books b ON b.book_id = d.book_id`+where+`
		ORDER BY d.disposed_at `+p.SQLOrder()+`, d.disposal_id LIMIT ? OFFSET ?`,
		append(append([]any{}, args...), p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []Disposal{}
	for rows.Next() {
		d, err := scanDisposal(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disposals d`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
