package reports

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return &Table{
		Title:       "Loans",
		GeneratedAt: time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC),
		Header:      []string{"Loan", "Book", "Fine"},
		Rows: [][]string{
			{"01HZX", "Cien años de soledad", "5.00"},
			{"01HZY", "Título, con coma", "0.00"},
		},
	}
}

func TestWriteCSV_BOMAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))

	raw := buf.Bytes()
	require.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])

	recs, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, []string{"Loan", "Book", "Fine"}, recs[0])
	require.Equal(t, "Cien años de soledad", recs[1][1])
	require.Equal(t, "Título, con coma", recs[2][1])
}

func TestWritePDF(t *testing.T) {
	tbl := sampleTable()
	// 改ページを跨ぐ行数
	for i := 0; i < 80; i++ {
		tbl.Rows = append(tbl.Rows, []string{"01HZZ", strings.Repeat("largo ", 30), "1.00"})
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, tbl))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestColumnWidths(t *testing.T) {
	w := columnWidths(sampleTable(), 100)
	require.Len(t, w, 3)
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	require.InDelta(t, 100, sum, 1e-9)
	require.Greater(t, w[1], w[2])
}
