// Package sheet describes the spreadsheet a batch run reads from and writes
// back to, and how its raw cells map onto rows.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoCredentials is returned by an Opener when no service account
// credentials are configured.
var ErrNoCredentials = errors.New("no spreadsheet credentials configured")

// Store reads a whole worksheet and updates single cells. Row and column
// indices are 1-based.
type Store interface {
	ReadRows(ctx context.Context) ([][]string, error)
	UpdateCell(ctx context.Context, row, col int, value string) error
}

// Opener connects to the configured worksheet. It is called once per run so
// credential problems surface as a failed run instead of a startup error.
type Opener interface {
	Open(ctx context.Context) (Store, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Store, error)

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context) (Store, error) {
	return f(ctx)
}

// Layout maps row fields to 1-based column numbers.
type Layout struct {
	FirstDataRow int `mapstructure:"first_data_row"`
	Date         int `mapstructure:"date"`
	Keyword      int `mapstructure:"keyword"`
	Title        int `mapstructure:"title"`
	Link         int `mapstructure:"link"`
	Eligible     int `mapstructure:"eligible"`
	Result       int `mapstructure:"result"`
}

// DefaultLayout is the layout of the publishing log worksheet: two header
// rows, date in A, keyword in E, title in O, link in Q, the eligibility
// checkbox in T and the exposure result in W.
func DefaultLayout() Layout {
	return Layout{
		FirstDataRow: 3,
		Date:         1,
		Keyword:      5,
		Title:        15,
		Link:         17,
		Eligible:     20,
		Result:       23,
	}
}

// Validate checks that every index is positive.
func (l Layout) Validate() error {
	fields := map[string]int{
		"first_data_row": l.FirstDataRow,
		"date":           l.Date,
		"keyword":        l.Keyword,
		"title":          l.Title,
		"link":           l.Link,
		"eligible":       l.Eligible,
		"result":         l.Result,
	}
	for name, v := range fields {
		if v < 1 {
			return fmt.Errorf("sheet layout %s must be >= 1, got %d", name, v)
		}
	}
	return nil
}

// Row is one data row of the worksheet with trimmed cell values.
type Row struct {
	Number   int
	Date     string
	Keyword  string
	Title    string
	Link     string
	Eligible bool
	Result   string
}

// Rows converts raw worksheet values into data rows, skipping header rows.
// Short rows are padded with empty cells.
func (l Layout) Rows(values [][]string) []Row {
	first := l.FirstDataRow - 1
	if first < 0 {
		first = 0
	}
	if first >= len(values) {
		return nil
	}
	rows := make([]Row, 0, len(values)-first)
	for i := first; i < len(values); i++ {
		raw := values[i]
		rows = append(rows, Row{
			Number:   i + 1,
			Date:     cell(raw, l.Date),
			Keyword:  cell(raw, l.Keyword),
			Title:    cell(raw, l.Title),
			Link:     cell(raw, l.Link),
			Eligible: strings.EqualFold(cell(raw, l.Eligible), "TRUE"),
			Result:   cell(raw, l.Result),
		})
	}
	return rows
}

func cell(raw []string, col int) string {
	if col < 1 || col > len(raw) {
		return ""
	}
	return strings.TrimSpace(raw[col-1])
}
