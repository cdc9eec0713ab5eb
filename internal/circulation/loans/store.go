package loans

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"BIBLIO-backend/internal/circulation/reservations"
	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/db"
	"BIBLIO-backend/internal/platform/ident"
	"BIBLIO-backend/internal/platform/paging"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const selectCols = `
	l.loan_id, l.loan_ulid, l.user_id, l.book_id, l.librarian_id, l.reservation_id,
	l.status, l.borrowed_at, l.due_date, l.returned_at, l.fine_amount, l.note, u.name, b.title`

const fromJoined = `
	FROM loans l
	JOIN users u ON u.id = l.user_id
	JOIN books b ON b.book_id = l.book_id`

func scanLoan(row interface{ Scan(...any) error }) (*Loan, error) {
	var l Loan
	err := row.Scan(
		&l.LoanID, &l.LoanULID, &l.UserID, &l.BookID, &l.LibrarianID, &l.ReservationID,
		&l.Status, &l.BorrowedAt, &l.DueDate, &l.ReturnedAt, &l.FineAmount, &l.Note, &l.UserName, &l.BookTitle,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// keyWhere: 数値 ID と ULID のどちらでも引けるようにする
func keyWhere(key string) (string, any, bool) {
	if ident.IsULID(key) {
		return "l.loan_ulid = ?", key, true
	}
	if id, ok := paging.ParseUintParam(key); ok {
		return "l.loan_id = ?", id, true
	}
	return "", nil, false
}

func getTx(ctx context.Context, q db.DBTX, key string, lock bool) (*Loan, error) {
	where, arg, ok := keyWhere(key)
	if !ok {
		return nil, nil
	}
	stmt := `SELECT ` + selectCols + fromJoined + ` WHERE ` + where
	if lock {
		stmt += ` FOR UPDATE`
	}
	l, err := scanLoan(q.QueryRowContext(ctx, stmt, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// Get: 見つからなければ nil, nil
func (s *Store) Get(ctx context.Context, key string) (*Loan, error) {
	return getTx(ctx, s.db, key, false)
}

func (s *Store) gatherTx(ctx context.Context, tx *sql.Tx, l *Loan) (createFacts, error) {
	var f createFacts

	err := tx.QueryRowContext(ctx, `SELECT is_disabled FROM users WHERE id = ?`, l.UserID).Scan(&f.UserDisabled)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return f, nil
	case err != nil:
		return f, err
	}
	f.UserFound = true

	err = tx.QueryRowContext(ctx, `SELECT is_active FROM books WHERE book_id = ?`, l.BookID).Scan(&f.BookActive)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return f, nil
	case err != nil:
		return f, err
	}
	f.BookFound = true

	// 1. 在庫行ロック（同じ本への貸出はここで直列化される）
	if f.Inventory, err = inventory.LockTx(ctx, tx, l.BookID); err != nil {
		return f, err
	}

	// 2. 同じ利用者・同じ本の貸出中
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE user_id = ? AND book_id = ? AND status = ? FOR UPDATE`,
		l.UserID, l.BookID, StatusActive).Scan(&f.ActiveLoans); err != nil {
		return f, err
	}

	// 3. 予約
	if l.ReservationID.Valid {
		f.ReservationRequested = true
		if f.Reservation, err = reservations.LockTx(ctx, tx, uint64(l.ReservationID.Int64)); err != nil {
			return f, err
		}
	}
	return f, nil
}

// Create: 判定 → 予約完了 → 在庫 -1 → INSERT を1トランザクションで
func (s *Store) Create(ctx context.Context, l *Loan, now time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		facts, err := s.gatherTx(ctx, tx, l)
		if err != nil {
			return err
		}
		if err := facts.check(l, now); err != nil {
			return err
		}
		if facts.Reservation != nil {
			if err := reservations.SaveTx(ctx, tx, facts.Reservation, reservations.StatusApproved); err != nil {
				return err
			}
		}
		if err := inventory.AddQuantityTx(ctx, tx, facts.Inventory.InventoryID, -1); err != nil {
			return err
		}

		const q = `
		INSERT INTO loans
		(loan_ulid, user_id, book_id, librarian_id, reservation_id, status, borrowed_at, due_date, fine_amount, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
		var resv any
		if l.ReservationID.Valid {
			resv = l.ReservationID.Int64
		}
		res, err := tx.ExecContext(ctx, q, l.LoanULID, l.UserID, l.BookID, db.NullStrOrNil(l.LibrarianID), resv,
			l.Status, l.BorrowedAt, l.DueDate, db.NullStrOrNil(l.Note))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		l.LoanID = uint64(id)
		return nil
	})
}

// Apply: 行ロック → fn で状態遷移 → 保存。fn が返す stockDelta を在庫に反映する
func (s *Store) Apply(ctx context.Context, key string, fn func(l *Loan) (int, error)) (*Loan, error) {
	var out *Loan
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		l, err := getTx(ctx, tx, key, true)
		if err != nil {
			return err
		}
		if l == nil {
			return apierr.ErrNotFound("loan not found")
		}
		delta, err := fn(l)
		if err != nil {
			return err
		}

		const q = `
		UPDATE loans
		SET status = ?, due_date = ?, returned_at = ?, fine_amount = ?
		WHERE loan_id = ? AND status = ?`
		res, err := tx.ExecContext(ctx, q, l.Status, l.DueDate, db.NullTimeOrNil(l.ReturnedAt), l.FineAmount,
			l.LoanID, StatusActive)
		if err != nil {
			return err
		}
		if err := db.ExpectOne(res); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apierr.ErrUnprocessable("loan is not active")
			}
			return err
		}

		if delta != 0 {
			inv, err := inventory.LockTx(ctx, tx, l.BookID)
			if err != nil {
				return err
			}
			if inv != nil {
				if err := inventory.AddQuantityTx(ctx, tx, inv.InventoryID, delta); err != nil {
					return err
				}
			}
		}
		out = l
		return nil
	})
	return out, err
}

func (s *Store) List(ctx context.Context, f Filter, now time.Time, p paging.Page) ([]Loan, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if f.UserID != nil {
		wheres = append(wheres, "l.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.BookID != nil {
		wheres = append(wheres, "l.book_id = ?")
		args = append(args, *f.BookID)
	}
	if f.Status != nil {
		wheres = append(wheres, "l.status = ?")
		args = append(args, *f.Status)
	}
	if f.Overdue {
		wheres = append(wheres, "l.status = ? AND l.due_date < ?")
		args = append(args, StatusActive, now)
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	q := `SELECT ` + selectCols + fromJoined + where +
		` ORDER BY l.borrowed_at ` + p.SQLOrder() + `, l.loan_id ` + p.SQLOrder() + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(append([]any{}, args...), p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans l`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
