package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"BIBLIO-backend/internal/circulation/reservations"
	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/db"
	"BIBLIO-backend/internal/platform/paging"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const selectCols = `
	id, name, email, role, is_disabled, school_credential_path, credential_uploaded_at,
	credential_verified_at, credential_verified_by, credential_rejection_reason, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsDisabled, &u.CredentialPath, &u.CredentialUploadedAt,
		&u.CredentialVerifiedAt, &u.CredentialVerifiedBy, &u.CredentialRejectionReason, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func getTx(ctx context.Context, q db.DBTX, id string, lock bool) (*User, error) {
	stmt := `SELECT ` + selectCols + ` FROM users WHERE id = ?`
	if lock {
		stmt += ` FOR UPDATE`
	}
	u, err := scanUser(q.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.ErrNotFound("user not found")
	}
	return u, err
}

func (s *Store) Get(ctx context.Context, id string) (*User, error) {
	return getTx(ctx, s.db, id, false)
}

func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]User, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if f.Q != nil {
		like := db.Contains(*f.Q)
		wheres = append(wheres, "(id LIKE ? OR name LIKE ? OR email LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Role != nil {
		wheres = append(wheres, "role = ?")
		args = append(args, *f.Role)
	}
	if f.Disabled != nil {
		wheres = append(wheres, "is_disabled = ?")
		args = append(args, *f.Disabled)
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	q := `SELECT ` + selectCols + ` FROM users` + where +
		` ORDER BY created_at ` + p.SQLOrder() + `, id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(append([]any{}, args...), p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// update: 1行だけの UPDATE（同値更新でも存在すれば成功）
func (s *Store) update(ctx context.Context, id, set string, args ...any) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := getTx(ctx, tx, id, true); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE users SET `+set+` WHERE id = ?`, append(args, id)...)
		return err
	})
}

func (s *Store) SetRole(ctx context.Context, id, role string) error {
	return s.update(ctx, id, "role = ?", role)
}

func (s *Store) SetDisabled(ctx context.Context, id string, disabled bool) error {
	return s.update(ctx, id, "is_disabled = ?", disabled)
}

// Delete: 貸出中があれば 409。履歴（貸出・予約）も消して本体を削除
func (s *Store) Delete(ctx context.Context, id string) (string, error) {
	var cred string
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		u, err := getTx(ctx, tx, id, true)
		if err != nil {
			return err
		}
		cred = u.CredentialPath.String

		var active int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM loans WHERE user_id = ? AND status = 'active'`, id).Scan(&active); err != nil {
			return err
		}
		if active > 0 {
			return apierr.ErrConflict("user has active loans")
		}
		for _, q := range []string{
			`DELETE FROM loans WHERE user_id = ?`,
			`DELETE FROM reservations WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
	return cred, err
}

// SetCredential: 在籍証明を差し替え、確認状態をリセットする。旧キーを返す
func (s *Store) SetCredential(ctx context.Context, id, key string, now time.Time) (string, error) {
	var old string
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		u, err := getTx(ctx, tx, id, true)
		if err != nil {
			return err
		}
		old = u.CredentialPath.String
		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET school_credential_path = ?, credential_uploaded_at = ?,
			    credential_verified_at = NULL, credential_verified_by = NULL, credential_rejection_reason = NULL
			WHERE id = ?`, key, now, id)
		return err
	})
	return old, err
}

// VerifyCredential: 確認済みにして pending_credential の予約を pending に戻す
func (s *Store) VerifyCredential(ctx context.Context, id, by string, now time.Time) (int64, error) {
	var promoted int64
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		u, err := getTx(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := verifiable(u); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET credential_verified_at = ?, credential_verified_by = ?, credential_rejection_reason = NULL
			WHERE id = ?`, now, by, id); err != nil {
			return err
		}
		promoted, err = reservations.PromoteCredentialTx(ctx, tx, id)
		return err
	})
	return promoted, err
}

// RejectCredential: 画像パスを消して理由を残す。旧キーを返す
func (s *Store) RejectCredential(ctx context.Context, id, reason string) (string, error) {
	var old string
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		u, err := getTx(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := rejectable(u); err != nil {
			return err
		}
		old = u.CredentialPath.String
		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET school_credential_path = NULL, credential_verified_at = NULL, credential_verified_by = NULL,
			    credential_rejection_reason = ?
			WHERE id = ?`, reason, id)
		return err
	})
	return old, err
}
