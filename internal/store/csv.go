package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CSVBackend keeps the table in a spreadsheet-style CSV file with a header row.
// Replaces write a temp file in the same directory and rename it over the original.
type CSVBackend struct {
	path string
}

func NewCSVBackend(path string) *CSVBackend {
	return &CSVBackend{path: path}
}

func (c *CSVBackend) Name() string { return "csv" }
func (c *CSVBackend) Close() error { return nil }

// Ensure creates the file with only the header when it does not exist.
func (c *CSVBackend) Ensure(_ context.Context) error {
	if _, err := os.Stat(c.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return c.write(nil)
}

func (c *CSVBackend) ReadAll(_ context.Context) ([]Row, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.path, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < len(Header) {
			return nil, fmt.Errorf("parse %s: line %d has %d fields", c.path, i+2, len(rec))
		}
		rows = append(rows, Row{Date: rec[0], Ticker: rec[1], Name: rec[2]})
	}
	return rows, nil
}

func (c *CSVBackend) ReplaceAll(_ context.Context, rows []Row) error {
	return c.write(rows)
}

func (c *CSVBackend) write(rows []Row) error {
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Header); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Date, r.Ticker, r.Name}); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace %s: %w", c.path, err)
	}
	return nil
}
