package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// ErrUnknownSource is returned by Open for paths that are neither a
// workbook, a CSV file nor a directory.
var ErrUnknownSource = errors.New("unknown source type")

// Sheet is one named table: rows of raw cell values, header row included.
type Sheet struct {
	Name string
	Rows [][]any
}

// Source is a named collection of sheets.
type Source struct {
	Name   string
	Sheets []Sheet
}

// Sheet returns the sheet with the given folded name.
func (s Source) Sheet(name string) (Sheet, bool) {
	key := FoldKey(name)
	for _, sh := range s.Sheets {
		if FoldKey(sh.Name) == key {
			return sh, true
		}
	}
	return Sheet{}, false
}

// StringRows builds sheet rows from plain strings.
func StringRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		out[i] = cells
	}
	return out
}

// Open reads a source from disk: an .xlsx/.xlsm workbook, a single .csv
// file, or a directory whose .csv files each become one sheet.
func Open(path string) (Source, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("read source %s: %w", path, err)
	}
	if st.IsDir() {
		return ReadCSVDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx":
		f, err := os.Open(path)
		if err != nil {
			return Source{}, fmt.Errorf("read source %s: %w", path, err)
		}
		defer f.Close()
		return ReadWorkbook(filepath.Base(path), f)
	case ".csv", ".txt":
		sheet, err := readCSVFile(path)
		if err != nil {
			return Source{}, err
		}
		return Source{Name: filepath.Base(path), Sheets: []Sheet{sheet}}, nil
	default:
		return Source{}, fmt.Errorf("%w: %s", ErrUnknownSource, path)
	}
}

// ReadWorkbook reads every worksheet of an xlsx workbook. Cells are read
// unformatted, so dates arrive as serial numbers and amounts without
// currency formatting.
func ReadWorkbook(name string, r io.Reader) (Source, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Source{}, fmt.Errorf("read source %s: %w", name, err)
	}
	defer f.Close()

	src := Source{Name: name}
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return Source{}, fmt.Errorf("read source %s sheet %s: %w", name, sheetName, err)
		}
		src.Sheets = append(src.Sheets, Sheet{Name: sheetName, Rows: StringRows(rows)})
	}
	if len(src.Sheets) == 0 {
		return Source{}, fmt.Errorf("read source %s: no sheets", name)
	}
	return src, nil
}

// ReadCSVDir reads every .csv file in dir; the file stem is the sheet name.
func ReadCSVDir(dir string) (Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Source{}, fmt.Errorf("read source %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return Source{}, fmt.Errorf("read source %s: no sheets", dir)
	}

	src := Source{Name: filepath.Base(dir)}
	for _, n := range names {
		sheet, err := readCSVFile(filepath.Join(dir, n))
		if err != nil {
			return Source{}, err
		}
		src.Sheets = append(src.Sheets, sheet)
	}
	return src, nil
}

func readCSVFile(path string) (Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("read source %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadCSV(name, f)
}

// ReadCSV reads one CSV sheet. A UTF-8 byte order mark is dropped and
// invalid UTF-8 is replaced with U+FFFD.
func ReadCSV(name string, r io.Reader) (Sheet, error) {
	decoded := transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		runes.ReplaceIllFormed(),
	))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("read source %s: %w", name, err)
	}
	return Sheet{Name: name, Rows: StringRows(records)}, nil
}

// Read decodes an uploaded source, choosing the format from the extension
// of name.
func Read(name string, r io.Reader) (Source, error) {
	name = filepath.Base(name)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx":
		return ReadWorkbook(name, r)
	case ".csv", ".txt":
		sheet, err := ReadCSV(strings.TrimSuffix(name, filepath.Ext(name)), r)
		if err != nil {
			return Source{}, err
		}
		return Source{Name: name, Sheets: []Sheet{sheet}}, nil
	default:
		return Source{}, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
}
