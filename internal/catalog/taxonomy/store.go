package taxonomy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"BIBLIO-backend/internal/platform/db"
	"BIBLIO-backend/internal/platform/paging"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// テーブル名・列名は Kind の固定値のみ（利用者入力は埋め込まない）
func cols(k Kind) string {
	return k.IDColumn + `, name, description, image_path, is_active, created_at`
}

func scanEntry(row interface{ Scan(...any) error }, e *Entry) error {
	return row.Scan(&e.ID, &e.Name, &e.Description, &e.ImagePath, &e.IsActive, &e.CreatedAt)
}

// GET /<kind>?q=&all=1
func (s *Store) List(ctx context.Context, k Kind, q *string, includeDisabled bool, p paging.Page) ([]Entry, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if !includeDisabled {
		wheres = append(wheres, "is_active = 1")
	}
	if q != nil {
		wheres = append(wheres, "name LIKE ?")
		args = append(args, db.Contains(*q))
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	order := "ASC"
	if p.Order == "desc" {
		order = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY name %s, %s LIMIT ? OFFSET ?`,
		cols(k), k.Path, where, order, k.IDColumn)
	rows, err := s.db.QueryContext(ctx, query, append(append([]any{}, args...), p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := make([]Entry, 0, 16)
	for rows.Next() {
		var e Entry
		if err := scanEntry(rows, &e); err != nil {
			return nil, 0, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+k.Path+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

// Get: 見つからなければ sql.ErrNoRows
func (s *Store) Get(ctx context.Context, k Kind, id uint64) (*Entry, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, cols(k), k.Path, k.IDColumn)
	var e Entry
	if err := scanEntry(s.db.QueryRowContext(ctx, q, id), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) Create(ctx context.Context, k Kind, name string, description sql.NullString) (uint64, error) {
	q := fmt.Sprintf(`INSERT INTO %s (name, description, is_active) VALUES (?, ?, 1)`, k.Path)
	r, err := s.db.ExecContext(ctx, q, name, db.NullStrOrNil(description))
	if err != nil {
		return 0, err
	}
	lastID, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(lastID), nil
}

func (s *Store) Update(ctx context.Context, k Kind, id uint64, in UpdateRequest) error {
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		if *in.Description == "" {
			args = append(args, nil)
		} else {
			args = append(args, *in.Description)
		}
	}
	if in.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *in.IsActive)
	}
	if len(sets) == 0 {
		// 変更なしでも存在確認はする
		_, err := s.Get(ctx, k, id)
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = ?`, k.Path, strings.Join(sets, ", "), k.IDColumn)
	if _, err := s.db.ExecContext(ctx, q, append(args, id)...); err != nil {
		return err
	}
	// 値が同じだと RowsAffected=0 になるので存在確認で判定
	_, err := s.Get(ctx, k, id)
	return err
}

// Delete: 参照されていれば is_active=0、無ければ物理削除。disabled=true なら無効化のみ
func (s *Store) Delete(ctx context.Context, k Kind, id uint64) (disabled bool, image string, err error) {
	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var img sql.NullString
		q := fmt.Sprintf(`SELECT image_path FROM %s WHERE %s = ? FOR UPDATE`, k.Path, k.IDColumn)
		if err := tx.QueryRowContext(ctx, q, id).Scan(&img); err != nil {
			return err
		}

		var refs int64
		if err := tx.QueryRowContext(ctx, k.refQuery, id).Scan(&refs); err != nil {
			return err
		}
		if refs > 0 {
			disabled = true
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET is_active = 0 WHERE %s = ?`, k.Path, k.IDColumn), id)
			return err
		}

		image = img.String
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, k.Path, k.IDColumn), id)
		return err
	})
	return disabled, image, err
}

// ReplaceImage: 画像キーを差し替えて旧キーを返す
func (s *Store) ReplaceImage(ctx context.Context, k Kind, id uint64, key string) (string, error) {
	var old sql.NullString
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		q := fmt.Sprintf(`SELECT image_path FROM %s WHERE %s = ? FOR UPDATE`, k.Path, k.IDColumn)
		if err := tx.QueryRowContext(ctx, q, id).Scan(&old); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET image_path = ? WHERE %s = ?`, k.Path, k.IDColumn), key, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return old.String, nil
}
