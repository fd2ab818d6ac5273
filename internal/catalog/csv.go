package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a catalog export into a MemStore. The header row names the
// columns; cell values that parse as numbers are stored as float64 and
// everything else is kept as a categorical string. Empty cells are treated
// as missing and omitted from the record.
func LoadCSV(path string) (*MemStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	store, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return store, nil
}

// ReadCSV parses catalog rows from r. See LoadCSV.
func ReadCSV(r io.Reader) (*MemStore, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range header {
		header[i] = NormalizeKey(h)
	}

	store := &MemStore{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row at line %d: %w", line, err)
		}

		rec := make(FeatureRecord, len(header))
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if n, err := strconv.ParseFloat(cell, 64); err == nil {
				rec[header[i]] = n
			} else {
				rec[header[i]] = cell
			}
		}
		store.rows = append(store.rows, rec)
	}

	return store, nil
}
