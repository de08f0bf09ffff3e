// Package dataset reads and seeds the sample sales CSV used by the
// agent recipes. The format is two columns: region name, numeric sales
// figure.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var header = []string{"region", "sales"}

type Row struct {
	Region string
	Sales  float64
}

// Load parses the CSV, validating the header and the numeric sales
// column. Row order is preserved and the file is never modified.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty, expected header %q", path, strings.Join(header, ","))
	}

	got := records[0]
	if len(got) != len(header) || !strings.EqualFold(got[0], header[0]) || !strings.EqualFold(got[1], header[1]) {
		return nil, fmt.Errorf("%s has header %q, expected %q", path, strings.Join(got, ","), strings.Join(header, ","))
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		sales, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: sales %q is not numeric", path, i+1, rec[1])
		}
		rows = append(rows, Row{Region: rec[0], Sales: sales})
	}
	return rows, nil
}

// Seed writes the documented sample file if it does not already exist.
// An existing file is left untouched.
func Seed(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sample dataset: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	records := [][]string{
		header,
		{"North America", "120500.50"},
		{"Europe", "98750.25"},
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("writing sample dataset: %w", err)
	}
	return nil
}
