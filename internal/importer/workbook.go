// Package importer reads emission factor tables and survey exports from XLSX
// or CSV files into the types the footprint package understands.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/acbay/co2survey/internal/footprint"
)

// Workbook is a set of named sheets, each a grid of cell text with the header
// in the first row.
type Workbook interface {
	SheetNames() []string
	Rows(sheet string) ([][]string, error)
	Close() error
}

type xlsxWorkbook struct {
	f *excelize.File
}

// OpenXLSX reads a whole XLSX document from r.
func OpenXLSX(r io.Reader) (Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	return &xlsxWorkbook{f: f}, nil
}

func (w *xlsxWorkbook) SheetNames() []string { return w.f.GetSheetList() }

func (w *xlsxWorkbook) Close() error { return w.f.Close() }

func (w *xlsxWorkbook) Rows(sheet string) ([][]string, error) {
	rows, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

type csvWorkbook struct {
	name string
	rows [][]string
}

// OpenCSV reads r as a single sheet called name. The delimiter is sniffed from
// the header line so German Excel exports using ';' work unchanged.
func OpenCSV(r io.Reader, name string) (Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return &csvWorkbook{name: name, rows: rows}, nil
}

func (w *csvWorkbook) SheetNames() []string { return []string{w.name} }

func (w *csvWorkbook) Close() error { return nil }

func (w *csvWorkbook) Rows(sheet string) ([][]string, error) {
	if sheet != w.name {
		return nil, nil
	}
	return w.rows, nil
}

func sniffDelimiter(data []byte) rune {
	line, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	if strings.Count(string(line), ";") > strings.Count(string(line), ",") {
		return ';'
	}
	return ','
}

// Open picks the reader by file extension. CSV files become a single sheet
// named after sheet.
func Open(filename string, r io.Reader, sheet string) (Workbook, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return OpenXLSX(r)
	case ".csv", ".txt":
		return OpenCSV(r, sheet)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}

// findSheet matches sheet names the way headers are matched, so
// "Warmeerzeugung" without the umlaut still resolves.
func findSheet(wb Workbook, name string) (string, bool) {
	want := footprint.NormalizeText(name)
	for _, s := range wb.SheetNames() {
		if footprint.NormalizeText(s) == want {
			return s, true
		}
	}
	return "", false
}

// grid is a sheet with its header row resolved to column positions.
type grid struct {
	header map[string]int
	rows   [][]string
}

func newGrid(rows [][]string) *grid {
	g := &grid{header: map[string]int{}}
	if len(rows) == 0 {
		return g
	}
	for i, h := range rows[0] {
		key := footprint.NormalizeText(h)
		if _, dup := g.header[key]; !dup && key != "" {
			g.header[key] = i
		}
	}
	g.rows = rows[1:]
	return g
}

// column returns the position of the first alias present in the header.
func (g *grid) column(aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := g.header[footprint.NormalizeText(a)]; ok {
			return i, true
		}
	}
	return 0, false
}

// cell returns the first non-blank value among the alias columns.
func (g *grid) cell(row []string, aliases []string) string {
	for _, a := range aliases {
		i, ok := g.header[footprint.NormalizeText(a)]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

func at(row []string, i int, ok bool) string {
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
