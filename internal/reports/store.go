package reports

import (
	"context"
	"database/sql"
	"strings"

	"BIBLIO-backend/internal/circulation/loans"
	"BIBLIO-backend/internal/circulation/reservations"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func rangeWhere(col string, r Range) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if r.From != nil {
		conds = append(conds, col+" >= ?")
		args = append(args, *r.From)
	}
	if r.To != nil {
		conds = append(conds, col+" < ?")
		args = append(args, *r.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) Loans(ctx context.Context, r Range) ([]loans.Loan, error) {
	where, args := rangeWhere("l.borrowed_at", r)
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.loan_ulid, l.user_id, u.name, l.book_id, b.title, l.librarian_id, l.status,
		       l.borrowed_at, l.due_date, l.returned_at, l.fine_amount
		FROM loans l
		JOIN users u ON u.id = l.user_id
		JOIN books b ON b.book_id = l.book_id`+where+`
		ORDER BY l.borrowed_at, l.loan_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []loans.Loan
	for rows.Next() {
		var l loans.Loan
		if err := rows.Scan(&l.LoanULID, &l.UserID, &l.UserName, &l.BookID, &l.BookTitle, &l.LibrarianID, &l.Status,
			&l.BorrowedAt, &l.DueDate, &l.ReturnedAt, &l.FineAmount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) Reservations(ctx context.Context, r Range) ([]reservations.Reservation, error) {
	where, args := rangeWhere("r.reserved_at", r)
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.reservation_ulid, r.user_id, u.name, r.book_id, b.title, r.status,
		       r.reserved_at, r.expires_at, r.approved_at, r.approved_by, r.rejection_reason
		FROM reservations r
		JOIN users u ON u.id = r.user_id
		JOIN books b ON b.book_id = r.book_id`+where+`
		ORDER BY r.reserved_at, r.reservation_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reservations.Reservation
	for rows.Next() {
		var x reservations.Reservation
		if err := rows.Scan(&x.ReservationULID, &x.UserID, &x.UserName, &x.BookID, &x.BookTitle, &x.Status,
			&x.ReservedAt, &x.ExpiresAt, &x.ApprovedAt, &x.ApprovedBy, &x.RejectionReason); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (s *Store) Books(ctx context.Context, r Range) ([]BookRow, error) {
	where, args := rangeWhere("b.created_at", r)
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.book_id, b.title, b.isbn, b.folio,
		       COALESCE(c.name, ''), COALESCE(p.name, ''),
		       COALESCE((SELECT GROUP_CONCAT(a.name ORDER BY a.name SEPARATOR ', ')
		                 FROM book_authors ba JOIN authors a ON a.author_id = ba.author_id
		                 WHERE ba.book_id = b.book_id), ''),
		       COALESCE(i.quantity, 0), COALESCE(i.location, ''), b.is_active, b.created_at
		FROM books b
		LEFT JOIN categories c ON c.category_id = b.category_id
		LEFT JOIN publishers p ON p.publisher_id = b.publisher_id
		LEFT JOIN inventories i ON i.book_id = b.book_id`+where+`
		ORDER BY b.title, b.book_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookRow
	for rows.Next() {
		var b BookRow
		if err := rows.Scan(&b.BookID, &b.Title, &b.ISBN, &b.Folio, &b.Category, &b.Publisher, &b.Authors,
			&b.Quantity, &b.Location, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
