package reports

import "time"

type Kind string

const (
	KindLoans        Kind = "loans"
	KindBooks        Kind = "books"
	KindReservations Kind = "reservations"
)

func (k Kind) Valid() bool {
	return k == KindLoans || k == KindBooks || k == KindReservations
}

type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel" // BOM 付き CSV
	FormatPDF   Format = "pdf"
)

func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatExcel || f == FormatPDF
}

func (f Format) Ext() string {
	if f == FormatPDF {
		return ".pdf"
	}
	return ".csv"
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Range: [From, To) 。nil は無制限
type Range struct {
	From *time.Time
	To   *time.Time
}

type BookRow struct {
	BookID    uint64
	Title     string
	ISBN      string
	Folio     string
	Category  string
	Publisher string
	Authors   string
	Quantity  int
	Location  string
	IsActive  bool
	CreatedAt time.Time
}

// Table は出力形式に依存しない表
type Table struct {
	Title       string
	GeneratedAt time.Time
	Header      []string
	Rows        [][]string
}
