package loans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"BIBLIO-backend/internal/platform/apierr"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func activeLoan(due time.Time) *Loan {
	return &Loan{LoanID: 1, UserID: "u1", BookID: 9, Status: StatusActive, BorrowedAt: due.AddDate(0, 0, -14), DueDate: due}
}

func TestCalculateFine(t *testing.T) {
	due := day(2024, 1, 10, 12)
	cases := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"five days late", day(2024, 1, 15, 9), 5.00},
		{"before due", day(2024, 1, 9, 12), 0},
		{"exactly at due", due, 0},
		{"later the same day", day(2024, 1, 10, 23), 0},
		{"next day early", day(2024, 1, 11, 1), 1.00},
		{"across a month", day(2024, 2, 10, 12), 31.00},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, activeLoan(due).CalculateFine(tc.now, 1.00), 0.0001)
		})
	}
	require.InDelta(t, 7.50, activeLoan(due).CalculateFine(day(2024, 1, 15, 9), 1.50), 0.0001)
}

func TestReturn(t *testing.T) {
	l := activeLoan(day(2024, 1, 10, 0))
	now := day(2024, 1, 15, 0)
	require.NoError(t, l.Return(now, 1.00))
	require.Equal(t, StatusReturned, l.Status)
	require.Equal(t, now, l.ReturnedAt.Time)
	require.InDelta(t, 5.00, l.FineAmount, 0.0001)

	// 2回目は何も変えない
	before := *l
	err := l.Return(day(2024, 2, 1, 0), 1.00)
	require.True(t, apierr.Is(err, apierr.CodeUnprocessable))
	require.Equal(t, before, *l)
}

func TestMarkLost(t *testing.T) {
	l := activeLoan(day(2024, 1, 10, 0))
	require.NoError(t, l.MarkLost(50))
	require.Equal(t, StatusLost, l.Status)
	require.InDelta(t, 50.00, l.FineAmount, 0.0001)
	require.False(t, l.ReturnedAt.Valid)

	require.Error(t, l.MarkLost(50))
	require.Error(t, l.Return(day(2024, 1, 11, 0), 1))
	require.Equal(t, StatusLost, l.Status)
}

func TestExtend(t *testing.T) {
	due := day(2024, 1, 10, 12)
	l := activeLoan(due)

	require.Error(t, l.Extend(day(2024, 1, 10, 0)))
	require.Error(t, l.Extend(due))
	require.Equal(t, due, l.DueDate)

	require.NoError(t, l.Extend(day(2024, 1, 20, 0)))
	require.Equal(t, day(2024, 1, 20, 0), l.DueDate)

	l.Status = StatusReturned
	require.Error(t, l.Extend(day(2024, 2, 1, 0)))
}

func TestOverdueFlags(t *testing.T) {
	l := activeLoan(day(2024, 1, 10, 12))
	require.False(t, l.IsOverdue(day(2024, 1, 10, 12)))
	require.True(t, l.IsOverdue(day(2024, 1, 12, 0)))
	require.Equal(t, 2, l.DaysOverdue(day(2024, 1, 12, 0)))

	l.Status = StatusReturned
	require.False(t, l.IsOverdue(day(2024, 1, 12, 0)))
}
