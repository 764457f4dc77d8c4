package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"panel/internal/core"
	"panel/internal/records"
	"panel/internal/sources"
)

// Ensure interface conformance
var (
	_ sources.RecordSource = (*Client)(nil)
	_ sources.Pinger       = (*Client)(nil)
)

// Config names the spreadsheet, its tabs and the service account used to
// read them.
type Config struct {
	SpreadsheetID      string
	ServicesSheet      string
	ExpensesSheet      string
	FixedExpensesSheet string
	CategoriesSheet    string // optional
	CredentialsJSON    string
	CredentialsFile    string
}

// Client reads header-row tabs of a spreadsheet as raw records.
type Client struct {
	svc   *gsheet.Service
	cfg   Config
	dates core.DateParser
}

func New(ctx context.Context, cfg Config, dates core.DateParser) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, cfg: cfg, dates: dates}, nil
}

// newSheetsService initializes a read-only Sheets service from service
// account credentials, inline or from a file. GOOGLE_APPLICATION_CREDENTIALS
// is used when neither is configured.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsFile := strings.TrimSpace(cfg.CredentialsFile)
	if cfg.CredentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// readTab returns every data row of the tab as a raw record. Numbers come
// back unformatted; dates keep their displayed text.
func (c *Client) readTab(ctx context.Context, sheet string) (records.Collection, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := quoteSheet(sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return rowsToCollection(resp.Values), nil
}

func (c *Client) FetchBundle(ctx context.Context, rng core.DateRange) (records.Bundle, error) {
	if err := rng.Validate(); err != nil {
		return records.Bundle{}, err
	}

	var b records.Bundle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := c.readTab(gctx, c.cfg.ServicesSheet)
		if err != nil {
			return err
		}
		b.Services = records.WithinRange(all, rng, c.dates)
		return nil
	})
	g.Go(func() error {
		all, err := c.readTab(gctx, c.cfg.ExpensesSheet)
		if err != nil {
			return err
		}
		b.Expenses = records.WithinRange(all, rng, c.dates)
		return nil
	})
	g.Go(func() error {
		all, err := c.readTab(gctx, c.cfg.FixedExpensesSheet)
		if err != nil {
			return err
		}
		b.FixedExpenses = all
		return nil
	})
	if err := g.Wait(); err != nil {
		return records.Bundle{}, err
	}

	slog.DebugContext(ctx, "Fetched records from Google Sheets",
		"services", len(b.Services),
		"expenses", len(b.Expenses),
		"fixed_expenses", len(b.FixedExpenses))
	return b, nil
}

func (c *Client) FetchCategories(ctx context.Context) (records.Collection, error) {
	if c.cfg.CategoriesSheet == "" {
		return records.Collection{}, nil
	}
	return c.readTab(ctx, c.cfg.CategoriesSheet)
}

// Ping reads the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if _, err := c.svc.Spreadsheets.Get(c.cfg.SpreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	return nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
