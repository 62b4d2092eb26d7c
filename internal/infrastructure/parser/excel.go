package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/inventory-importer/internal/domain/entity"
)

// Workbook wraps one open spreadsheet file and exposes it as a typed cell
// grid plus an index of embedded pictures by anchor cell.
type Workbook struct {
	file  *excelize.File
	sheet string

	// pictureCells is built lazily: 0-based (row, col) → A1 anchor.
	pictureCells map[[2]int]string
}

// OpenWorkbook opens the spreadsheet at path and selects the working sheet.
// An empty sheet name selects the first visible sheet.
func OpenWorkbook(path, sheet string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	wb := &Workbook{file: f}
	if sheet != "" {
		found := false
		for _, name := range f.GetSheetList() {
			if name == sheet {
				found = true
				break
			}
		}
		if !found {
			_ = f.Close()
			return nil, fmt.Errorf("sheet %q not found in %s", sheet, path)
		}
		wb.sheet = sheet
		return wb, nil
	}

	for _, name := range f.GetSheetList() {
		visible, err := f.GetSheetVisible(name)
		if err != nil || !visible {
			continue
		}
		wb.sheet = name
		break
	}
	if wb.sheet == "" {
		_ = f.Close()
		return nil, fmt.Errorf("no visible sheet in %s", path)
	}
	return wb, nil
}

// Sheet returns the name of the selected sheet.
func (wb *Workbook) Sheet() string { return wb.sheet }

// Grid reads the selected sheet into an immutable snapshot of tagged cells.
func (wb *Workbook) Grid() (entity.Grid, error) {
	rows, err := wb.file.GetRows(wb.sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", wb.sheet, err)
	}

	grid := make(entity.Grid, len(rows))
	for i, row := range rows {
		cells := make([]entity.Cell, len(row))
		for j, raw := range row {
			cells[j] = entity.ClassifyCell(raw)
		}
		grid[i] = cells
	}
	return grid, nil
}

// PictureAt returns the bytes and extension of an image anchored at the
// 0-based (row, col) cell. ok is false when no picture is anchored there.
func (wb *Workbook) PictureAt(row, col int) (data []byte, ext string, ok bool) {
	if wb.pictureCells == nil {
		wb.indexPictures()
	}
	anchor, found := wb.pictureCells[[2]int{row, col}]
	if !found {
		return nil, "", false
	}
	pics, err := wb.file.GetPictures(wb.sheet, anchor)
	if err != nil || len(pics) == 0 {
		return nil, "", false
	}
	return pics[0].File, pics[0].Extension, true
}

func (wb *Workbook) indexPictures() {
	wb.pictureCells = make(map[[2]int]string)
	cells, err := wb.file.GetPictureCells(wb.sheet)
	if err != nil {
		return
	}
	for _, cell := range cells {
		colNum, rowNum, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			continue
		}
		wb.pictureCells[[2]int{rowNum - 1, colNum - 1}] = cell
	}
}

// Close releases the underlying file handle.
func (wb *Workbook) Close() error {
	if wb.file == nil {
		return nil
	}
	return wb.file.Close()
}
