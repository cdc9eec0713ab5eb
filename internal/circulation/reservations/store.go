package reservations

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"BIBLIO-backend/internal/catalog/books"
	"BIBLIO-backend/internal/inventory"
	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/db"
	"BIBLIO-backend/internal/platform/ident"
	"BIBLIO-backend/internal/platform/paging"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const selectCols = `
	r.reservation_id, r.reservation_ulid, r.user_id, r.book_id, r.status,
	r.reserved_at, r.expires_at, r.planned_return_date, r.approved_at, r.approved_by,
	r.rejection_reason, r.note, u.name, b.title`

const fromJoined = `
	FROM reservations r
	JOIN users u ON u.id = r.user_id
	JOIN books b ON b.book_id = r.book_id`

func scanReservation(row interface{ Scan(...any) error }) (*Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ReservationID, &r.ReservationULID, &r.UserID, &r.BookID, &r.Status,
		&r.ReservedAt, &r.ExpiresAt, &r.PlannedReturnDate, &r.ApprovedAt, &r.ApprovedBy,
		&r.RejectionReason, &r.Note, &r.UserName, &r.BookTitle,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// keyWhere: 数値 ID と ULID のどちらでも引けるようにする
func keyWhere(key string) (string, any, bool) {
	if ident.IsULID(key) {
		return "r.reservation_ulid = ?", key, true
	}
	if id, ok := paging.ParseUintParam(key); ok {
		return "r.reservation_id = ?", id, true
	}
	return "", nil, false
}

// Get: 見つからなければ nil, nil
func (s *Store) Get(ctx context.Context, key string) (*Reservation, error) {
	where, arg, ok := keyWhere(key)
	if !ok {
		return nil, nil
	}
	r, err := scanReservation(s.db.QueryRowContext(ctx, `SELECT `+selectCols+fromJoined+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// LockTx: 貸出作成時に予約行をロックして読む
func LockTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (*Reservation, error) {
	stmt := `SELECT ` + selectCols + fromJoined + ` WHERE r.reservation_id = ? FOR UPDATE`
	r, err := scanReservation(tx.QueryRowContext(ctx, stmt, reservationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// SaveTx: 状態遷移後の行を保存。from 以外の状態に変わっていたら 422
func SaveTx(ctx context.Context, q db.DBTX, r *Reservation, from ...Status) error {
	marks := make([]string, 0, len(from))
	args := []any{r.Status, r.ExpiresAt, db.NullTimeOrNil(r.ApprovedAt), db.NullStrOrNil(r.ApprovedBy),
		db.NullStrOrNil(r.RejectionReason), r.ReservationID}
	for _, st := range from {
		marks = append(marks, "?")
		args = append(args, st)
	}
	stmt := `
	UPDATE reservations
	SET status = ?, expires_at = ?, approved_at = ?, approved_by = ?, rejection_reason = ?
	WHERE reservation_id = ? AND status IN (` + strings.Join(marks, ", ") + `)`
	res, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}
	if err := db.ExpectOne(res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.ErrUnprocessable("reservation status changed concurrently")
		}
		return err
	}
	return nil
}

func (s *Store) Save(ctx context.Context, r *Reservation, from ...Status) error {
	return SaveTx(ctx, s.db, r, from...)
}

// PromoteCredentialTx: 在籍証明の承認で pending_credential → pending
func PromoteCredentialTx(ctx context.Context, q db.DBTX, userID string) (int64, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE user_id = ? AND status = ?`,
		StatusPending, userID, StatusPendingCredential)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UserState: 見つからなければ nil, nil
func (s *Store) UserState(ctx context.Context, userID string) (*UserState, error) {
	var (
		st       UserState
		verified sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT is_disabled, credential_verified_at FROM users WHERE id = ?`, userID).Scan(&st.Disabled, &verified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.CredentialVerified = verified.Valid
	return &st, nil
}

// Create: 在庫行ロック → 貸出可否と重複チェック → INSERT
func (s *Store) Create(ctx context.Context, r *Reservation) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var active bool
		err := tx.QueryRowContext(ctx, `SELECT is_active FROM books WHERE book_id = ?`, r.BookID).Scan(&active)
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.ErrNotFound("book not found")
		}
		if err != nil {
			return err
		}
		inv, err := inventory.LockTx(ctx, tx, r.BookID)
		if err != nil {
			return err
		}
		if !books.IsAvailable(active, inv) {
			return apierr.ErrUnprocessable("book is not available")
		}

		var dup int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM reservations
			WHERE user_id = ? AND book_id = ? AND status IN (?, ?)
			FOR UPDATE`,
			r.UserID, r.BookID, StatusPending, StatusPendingCredential).Scan(&dup); err != nil {
			return err
		}
		if dup > 0 {
			return apierr.ErrUnprocessable("a pending reservation for this book already exists")
		}

		const q = `
		INSERT INTO reservations
		(reservation_ulid, user_id, book_id, status, reserved_at, expires_at, planned_return_date, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q, r.ReservationULID, r.UserID, r.BookID, r.Status,
			r.ReservedAt, r.ExpiresAt, db.NullTimeOrNil(r.PlannedReturnDate), db.NullStrOrNil(r.Note))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		r.ReservationID = uint64(id)
		return nil
	})
}

func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]Reservation, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if f.UserID != nil {
		wheres = append(wheres, "r.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.BookID != nil {
		wheres = append(wheres, "r.book_id = ?")
		args = append(args, *f.BookID)
	}
	if f.Status != nil {
		wheres = append(wheres, "r.status = ?")
		args = append(args, *f.Status)
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	q := `SELECT ` + selectCols + fromJoined + where +
		` ORDER BY r.reserved_at ` + p.SQLOrder() + `, r.reservation_id ` + p.SQLOrder() + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(append([]any{}, args...), p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
