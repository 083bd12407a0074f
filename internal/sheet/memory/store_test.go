package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreReadWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore([][]string{{"h"}, {"h"}, {"2/1", "kw"}})

	rows, err := store.ReadRows(ctx)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	rows[2][0] = "modified"
	if store.Cell(3, 1) != "2/1" {
		t.Fatal("expected ReadRows to return a copy")
	}

	if err := store.UpdateCell(ctx, 3, 23, "5"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	if got := store.Cell(3, 23); got != "5" {
		t.Fatalf("Cell(3, 23) = %q, want 5", got)
	}
	if err := store.UpdateCell(ctx, 6, 2, "x"); err != nil {
		t.Fatalf("UpdateCell() beyond last row error = %v", err)
	}
	if got := store.Cell(6, 2); got != "x" {
		t.Fatalf("Cell(6, 2) = %q, want x", got)
	}
	if err := store.UpdateCell(ctx, 0, 1, "x"); err == nil {
		t.Fatal("expected error for row 0")
	}

	writes := store.Writes()
	if len(writes) != 2 || writes[0] != (Write{Row: 3, Col: 23, Value: "5"}) {
		t.Fatalf("unexpected writes: %+v", writes)
	}
	if store.Reads() != 1 {
		t.Fatalf("Reads() = %d, want 1", store.Reads())
	}
}

func TestStoreFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(nil)
	boom := errors.New("boom")

	store.FailReads(boom)
	if _, err := store.ReadRows(ctx); !errors.Is(err, boom) {
		t.Fatalf("ReadRows() error = %v, want boom", err)
	}
	store.FailWrites(boom)
	if err := store.UpdateCell(ctx, 1, 1, "v"); !errors.Is(err, boom) {
		t.Fatalf("UpdateCell() error = %v, want boom", err)
	}
	store.FailReads(nil)
	if _, err := store.ReadRows(ctx); err != nil {
		t.Fatalf("ReadRows() after clear error = %v", err)
	}
}

func TestLoadCSVAndOpener(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sheet.csv")
	if err := os.WriteFile(path, []byte("날짜,키워드\n\n2/15,커피,TRUE\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	store, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	opened, err := store.Opener().Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rows, err := opened.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 2 || rows[1][2] != "TRUE" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}
