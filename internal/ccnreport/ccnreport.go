// Package ccnreport turns a Lizard cyclomatic-complexity text report into a
// spreadsheet.
package ccnreport

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the rows are written to.
const SheetName = "Sheet1"

// Header is the first spreadsheet row.
var Header = []string{"File", "Function", "Complexity"}

// Columns: NLOC CCN token PARAM length, then file::function.
var reFunctionLine = regexp.MustCompile(`(\d+)\s+(\d+)\s+\d+\s+\d+\s+\d+\s+(.+?)::(.+)`)

// Row is one function entry of the report.
type Row struct {
	File       string
	Function   string
	Complexity int
	NLOC       int
}

// Parse extracts function rows from a Lizard report. Lines that do not look
// like function entries are skipped.
func Parse(r io.Reader) ([]Row, error) {
	var rows []Row
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		m := reFunctionLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		nloc, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ccn, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		rows = append(rows, Row{File: m[3], Function: m[4], Complexity: ccn, NLOC: nloc})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ccnreport: read: %w", err)
	}
	return rows, nil
}

// WriteXLSX writes rows under Header to a new workbook at path.
func WriteXLSX(rows []Row, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("ccnreport: header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &[]any{r.File, r.Function, r.Complexity}); err != nil {
			return fmt.Errorf("ccnreport: row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("ccnreport: save %s: %w", path, err)
	}
	return nil
}

// ReadXLSX loads rows written by WriteXLSX.
func ReadXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ccnreport: open %s: %w", path, err)
	}
	defer f.Close()
	grid, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("ccnreport: rows: %w", err)
	}
	var rows []Row
	for i, rec := range grid {
		if i == 0 || len(rec) < 3 {
			continue
		}
		ccn, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("ccnreport: row %d complexity %q: %w", i+1, rec[2], err)
		}
		rows = append(rows, Row{File: rec[0], Function: rec[1], Complexity: ccn})
	}
	return rows, nil
}

// Convert parses the report at in and writes the spreadsheet to out.
func Convert(in, out string) ([]Row, error) {
	fh, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("ccnreport: %w", err)
	}
	defer fh.Close()
	rows, err := Parse(fh)
	if err != nil {
		return nil, err
	}
	if err := WriteXLSX(rows, out); err != nil {
		return nil, err
	}
	return rows, nil
}
