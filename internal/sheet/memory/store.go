// Package memory provides an in-memory worksheet for development and tests.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/JakeFAU/blog-exposure-checker/internal/sheet"
)

// Write records one UpdateCell call.
type Write struct {
	Row   int
	Col   int
	Value string
}

// Store holds worksheet cells in memory.
type Store struct {
	mu        sync.RWMutex
	rows      [][]string
	writes    []Write
	readErr   error
	writeErr  error
	readCount int
}

// NewStore constructs a Store seeded with a copy of rows.
func NewStore(rows [][]string) *Store {
	return &Store{rows: copyRows(rows)}
}

// LoadCSV seeds a Store from a CSV export of the worksheet.
func LoadCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return NewStore(rows), nil
}

// Opener returns an opener that always hands out s.
func (s *Store) Opener() sheet.Opener {
	return sheet.OpenerFunc(func(context.Context) (sheet.Store, error) {
		return s, nil
	})
}

// ReadRows returns a copy of every row.
func (s *Store) ReadRows(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readCount++
	if s.readErr != nil {
		return nil, s.readErr
	}
	return copyRows(s.rows), nil
}

// UpdateCell sets the cell at row, col, growing the sheet as needed.
func (s *Store) UpdateCell(_ context.Context, row, col int, value string) error {
	if row < 1 || col < 1 {
		return errors.New("row and column must be >= 1")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	for len(s.rows) < row {
		s.rows = append(s.rows, nil)
	}
	for len(s.rows[row-1]) < col {
		s.rows[row-1] = append(s.rows[row-1], "")
	}
	s.rows[row-1][col-1] = value
	s.writes = append(s.writes, Write{Row: row, Col: col, Value: value})
	return nil
}

// Cell returns the current value at row, col.
func (s *Store) Cell(row, col int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row < 1 || row > len(s.rows) || col < 1 || col > len(s.rows[row-1]) {
		return ""
	}
	return s.rows[row-1][col-1]
}

// Writes returns the UpdateCell calls made so far, in order.
func (s *Store) Writes() []Write {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Write(nil), s.writes...)
}

// Reads reports how many times ReadRows was called.
func (s *Store) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readCount
}

// FailReads makes subsequent ReadRows calls return err. A nil err clears it.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes subsequent UpdateCell calls return err. A nil err clears it.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
