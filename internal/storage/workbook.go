// Package storage writes experiment results into a named range of an
// existing spreadsheet.
package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

var (
	ErrSheetNotFound = errors.New("storage: sheet not found")
	ErrInvalidRange  = errors.New("storage: invalid range")
	ErrOutOfRange    = errors.New("storage: cell outside range")
)

// Workbook is a spreadsheet held fully in memory until Save.
type Workbook struct {
	path string
	file *excelize.File
}

// Open loads an existing workbook.
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{path: path, file: f}, nil
}

// Create writes a new workbook containing a single empty sheet.
func Create(path, sheet string) (*Workbook, error) {
	f := excelize.NewFile()
	if sheet != "" && sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", sheet, err)
		}
	}

	w := &Workbook{path: path, file: f}
	if err := w.Save(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Workbook) Path() string { return w.path }

// Sheets lists the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Range resolves an A1-style reference such as "J28:O43" on an existing sheet.
func (w *Workbook) Range(sheet, ref string) (*Range, error) {
	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSheetNotFound, sheet, err)
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	left, top, right, bottom, err := parseRef(ref)
	if err != nil {
		return nil, err
	}

	return &Range{
		wb:    w,
		sheet: sheet,
		ref:   ref,
		left:  left,
		top:   top,
		cols:  right - left + 1,
		rows:  bottom - top + 1,
	}, nil
}

// Bytes serializes the workbook.
func (w *Workbook) Bytes() ([]byte, error) {
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Save persists the workbook to its path in one write.
func (w *Workbook) Save() error {
	data, err := w.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Dimensions reports the size of an A1-style range without a workbook.
func Dimensions(ref string) (rows, cols int, err error) {
	left, top, right, bottom, err := parseRef(ref)
	if err != nil {
		return 0, 0, err
	}
	return bottom - top + 1, right - left + 1, nil
}

func parseRef(ref string) (left, top, right, bottom int, err error) {
	first, last, ok := strings.Cut(strings.TrimSpace(ref), ":")
	if !ok {
		last = first
	}

	left, top, err = excelize.CellNameToCoordinates(first)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidRange, ref, err)
	}
	right, bottom, err = excelize.CellNameToCoordinates(last)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidRange, ref, err)
	}

	if right < left {
		left, right = right, left
	}
	if bottom < top {
		top, bottom = bottom, top
	}
	return left, top, right, bottom, nil
}

// Range addresses cells relative to its top-left anchor.
type Range struct {
	wb    *Workbook
	sheet string
	ref   string
	left  int
	top   int
	cols  int
	rows  int
}

func (r *Range) Rows() int { return r.rows }
func (r *Range) Cols() int { return r.cols }

func (r *Range) String() string { return r.sheet + "!" + r.ref }

func (r *Range) cell(row, col int) (string, error) {
	if row < 0 || row >= r.rows || col < 0 || col >= r.cols {
		return "", fmt.Errorf("%w: (%d, %d) in %s", ErrOutOfRange, row, col, r)
	}
	return excelize.CoordinatesToCellName(r.left+col, r.top+row)
}

// SetCellValue writes v at (row, col) relative to the anchor. Non-finite
// floats are written as text so the file stays readable.
func (r *Range) SetCellValue(row, col int, v any) error {
	cell, err := r.cell(row, col)
	if err != nil {
		return err
	}
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		v = fmt.Sprint(f)
	}
	return r.wb.file.SetCellValue(r.sheet, cell, v)
}

// CellValue reads the formatted value at (row, col) relative to the anchor.
func (r *Range) CellValue(row, col int) (string, error) {
	cell, err := r.cell(row, col)
	if err != nil {
		return "", err
	}
	return r.wb.file.GetCellValue(r.sheet, cell)
}

// WriteRows writes rows top-down from the anchor. The whole block must fit.
func WriteRows(r *Range, rows [][]any) error {
	if len(rows) > r.rows {
		return fmt.Errorf("%w: %d rows do not fit in %s (%d rows)", ErrOutOfRange, len(rows), r, r.rows)
	}
	for i, row := range rows {
		if len(row) > r.cols {
			return fmt.Errorf("%w: row %d has %d values, %s has %d columns", ErrOutOfRange, i, len(row), r, r.cols)
		}
	}

	for i, row := range rows {
		for j, v := range row {
			if err := r.SetCellValue(i, j, v); err != nil {
				return err
			}
		}
	}
	return nil
}
