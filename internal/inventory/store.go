package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/db"
	"BIBLIO-backend/internal/platform/paging"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const selectCols = `i.inventory_id, i.book_id, i.quantity, i.item_condition, i.status, i.location, i.updated_at`

func scanInventory(row interface{ Scan(...any) error }, inv *Inventory, extra ...any) error {
	dest := []any{&inv.InventoryID, &inv.BookID, &inv.Quantity, &inv.Condition, &inv.Status, &inv.Location, &inv.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

// GetByBook: 在庫行が無ければ nil, nil
func (s *Store) GetByBook(ctx context.Context, bookID uint64) (*Inventory, error) {
	return GetByBookTx(ctx, s.db, bookID)
}

func GetByBookTx(ctx context.Context, q db.DBTX, bookID uint64) (*Inventory, error) {
	var inv Inventory
	err := scanInventory(q.QueryRowContext(ctx, `SELECT `+selectCols+` FROM inventories i WHERE i.book_id = ?`, bookID), &inv)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Store) BookExists(ctx context.Context, bookID uint64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM books WHERE book_id = ?`, bookID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Upsert: book_id UNIQUE で INSERT または UPDATE
func (s *Store) Upsert(ctx context.Context, inv *Inventory) error {
	return UpsertTx(ctx, s.db, inv)
}

func UpsertTx(ctx context.Context, q db.DBTX, inv *Inventory) error {
	const stmt = `
	INSERT INTO inventories (book_id, quantity, item_condition, status, location)
	VALUES (?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
	quantity       = VALUES(quantity),
	item_condition = VALUES(item_condition),
	status         = VALUES(status),
	location       = VALUES(location)`
	_, err := q.ExecContext(ctx, stmt, inv.BookID, inv.Quantity, inv.Condition, inv.Status, inv.Location)
	return err
}

// LockTx: 書籍の在庫行を FOR UPDATE でロックする（貸出・返却用）
func LockTx(ctx context.Context, tx *sql.Tx, bookID uint64) (*Inventory, error) {
	var inv Inventory
	err := scanInventory(tx.QueryRowContext(ctx, `SELECT `+selectCols+` FROM inventories i WHERE i.book_id = ? LIMIT 1 FOR UPDATE`, bookID), &inv)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// AddQuantityTx: quantity += delta（0 未満にはしない）
func AddQuantityTx(ctx context.Context, tx db.DBTX, inventoryID uint64, delta int) error {
	// quantity は UNSIGNED なので負の式を作らずに比較する
	const q = `UPDATE inventories SET quantity = CAST(quantity AS SIGNED) + ? WHERE inventory_id = ? AND quantity >= ?`
	res, err := tx.ExecContext(ctx, q, delta, inventoryID, max(0, -delta))
	if err != nil {
		return err
	}
	if err := db.ExpectOne(res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.ErrUnprocessable("quantity cannot go below zero")
		}
		return err
	}
	return nil
}

func (s *Store) Adjust(ctx context.Context, bookID uint64, delta int) (*Inventory, error) {
	var out *Inventory
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		inv, err := LockTx(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apierr.ErrNotFound("inventory not found")
		}
		if _, err := Adjusted(inv.Quantity, delta); err != nil {
			return err
		}
		if err := AddQuantityTx(ctx, tx, inv.InventoryID, delta); err != nil {
			return err
		}
		out, err = GetByBookTx(ctx, tx, bookID)
		return err
	})
	return out, err
}

type row struct {
	Inventory
	BookTitle string
}

func (s *Store) List(ctx context.Context, f Filter, lowStock int, p paging.Page) ([]row, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if f.Condition != nil {
		wheres = append(wheres, "i.item_condition = ?")
		args = append(args, *f.Condition)
	}
	if f.Status != nil {
		wheres = append(wheres, "i.status = ?")
		args = append(args, *f.Status)
	}
	if f.Location != nil {
		wheres = append(wheres, "i.location LIKE ?")
		args = append(args, db.Contains(*f.Location))
	}
	if f.LowStock {
		wheres = append(wheres, "i.quantity <= ?")
		args = append(args, lowStock)
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	q := `SELECT ` + selectCols + `, b.title FROM inventories i JOIN books b ON b.book_id = i.book_id` +
		where + ` ORDER BY i.updated_at ` + p.SQLOrder() + `, i.inventory_id ` + p.SQLOrder() + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(append([]any{}, args...), p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var r row
		if err := scanInventory(rows, &r.Inventory, &r.BookTitle); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventories i`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
