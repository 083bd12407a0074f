// Package google implements sheet.Store on the Google Sheets API.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/sheet"
)

const valueInputOption = "USER_ENTERED"

// Config identifies the worksheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	Worksheet       string
	CredentialsFile string
	// CredentialsJSON holds an inline service account key and takes
	// precedence over CredentialsFile.
	CredentialsJSON string
}

// Opener builds a Store per run.
type Opener struct {
	cfg    Config
	opts   []option.ClientOption
	logger *zap.Logger
}

// NewOpener constructs an Opener. Extra client options are appended after
// the credential option.
func NewOpener(cfg Config, logger *zap.Logger, opts ...option.ClientOption) *Opener {
	return &Opener{cfg: cfg, opts: opts, logger: logging.OrNop(logger)}
}

// Open implements sheet.Opener. It returns sheet.ErrNoCredentials when neither
// inline credentials nor a readable credentials file are configured.
func (o *Opener) Open(ctx context.Context) (sheet.Store, error) {
	credOpt, err := o.credentials()
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{
		credOpt,
		option.WithScopes(sheets.SpreadsheetsScope),
	}, o.opts...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	o.logger.Debug("opened worksheet",
		zap.String("spreadsheet_id", o.cfg.SpreadsheetID),
		zap.String("worksheet", o.cfg.Worksheet),
	)
	return NewStore(svc, o.cfg.SpreadsheetID, o.cfg.Worksheet), nil
}

func (o *Opener) credentials() (option.ClientOption, error) {
	if strings.TrimSpace(o.cfg.CredentialsJSON) != "" {
		return option.WithCredentialsJSON([]byte(o.cfg.CredentialsJSON)), nil
	}
	if o.cfg.CredentialsFile == "" {
		return nil, sheet.ErrNoCredentials
	}
	if _, err := os.Stat(o.cfg.CredentialsFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, sheet.ErrNoCredentials
		}
		return nil, fmt.Errorf("stat credentials file: %w", err)
	}
	return option.WithCredentialsFile(o.cfg.CredentialsFile), nil
}

// Store reads and writes one worksheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewStore wraps an existing Sheets service.
func NewStore(svc *sheets.Service, spreadsheetID, worksheet string) *Store {
	return &Store{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}
}

// ReadRows returns every row of the worksheet as formatted strings.
func (s *Store) ReadRows(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(s.worksheet)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", s.worksheet, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}
	return rows, nil
}

// UpdateCell writes value into the cell at row, col.
func (s *Store) UpdateCell(ctx context.Context, row, col int, value string) error {
	ref, err := A1(row, col)
	if err != nil {
		return err
	}
	rng := quoteSheet(s.worksheet) + "!" + ref
	body := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, body).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update cell %s: %w", rng, err)
	}
	return nil
}

// A1 converts 1-based row and column numbers into A1 notation.
func A1(row, col int) (string, error) {
	if row < 1 || col < 1 {
		return "", fmt.Errorf("invalid cell position row=%d col=%d", row, col)
	}
	var letters []byte
	for n := col; n > 0; n = (n - 1) / 26 {
		letters = append([]byte{byte('A' + (n-1)%26)}, letters...)
	}
	return fmt.Sprintf("%s%d", letters, row), nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
