// internal/countries/load.go
//
// Loading the country table.
//
// Initialization behavior (Init):
//  1. If COUNTRIES_FILE is set and ends in .xlsx, read its first sheet
//     (columns: name, code, latitude, longitude; row 1 is a header).
//  2. If COUNTRIES_FILE is set otherwise, read it as JSON (same shape as the
//     embedded file).
//  3. If unset, use the embedded countries.json.
//
// Init runs once (sync.Once); Default returns the loaded table.
package countries

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

//go:embed countries.json
var embeddedCountries []byte

var (
	initOnce     sync.Once
	defaultTable *Table
	initErr      error
)

// Init loads the default table exactly once.
func Init() error {
	initOnce.Do(func() {
		defaultTable, initErr = LoadFile(os.Getenv("COUNTRIES_FILE"))
	})
	return initErr
}

// Default returns the table loaded by Init, falling back to the embedded
// table if Init was never called or failed.
func Default() *Table {
	if err := Init(); err != nil || defaultTable == nil {
		t, _ := Embedded()
		return t
	}
	return defaultTable
}

// Embedded parses the table compiled into the binary.
func Embedded() (*Table, error) {
	return ParseJSON(embeddedCountries)
}

// LoadFile reads a table from path; an empty path means the embedded table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Embedded()
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadXLSX(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseJSON(b)
}

// ParseJSON decodes a JSON array of countries and builds a Table.
func ParseJSON(b []byte) (*Table, error) {
	var list []Country
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("parse countries json: %w", err)
	}
	return New(list)
}

// LoadXLSX reads the first sheet of a workbook.
// Rows with fewer than four cells or unparsable coordinates are skipped.
func LoadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var list []Country
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue
		}
		lat, err1 := parseCoord(row[2])
		lon, err2 := parseCoord(row[3])
		if err1 != nil || err2 != nil {
			continue
		}
		list = append(list, Country{Name: row[0], Code: row[1], Latitude: lat, Longitude: lon})
	}
	return New(list)
}

// parseCoord accepts both "12.5" and "12,5".
func parseCoord(val string) (float64, error) {
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(val, 64)
}
