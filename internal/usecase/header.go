package usecase

import (
	"strings"

	"github.com/yourusername/inventory-importer/internal/domain/entity"
)

// headerMarkers are the tokens whose presence identifies the real header row
// inside an otherwise unstructured sheet.
var headerMarkers = []string{"SR No", "DESCRIPTION", "IMAGE NO"}

// ColumnMap maps every logical field to a physical column index. The map is
// total: unresolved fields fall back to the canonical layout below.
type ColumnMap struct {
	Description int
	Quantity    int
	ImageRef    int
	Image       int // the column carrying embedded pictures, not a logical field
	Rack        int
	Remarks     int
}

// fallbackColumns is the canonical sheet layout assumed when header matching
// fails: serial, description, qty, image-no, image, rack, remarks. Keeping it
// in one place makes the positional assumption auditable.
var fallbackColumns = ColumnMap{
	Description: 1,
	Quantity:    2,
	ImageRef:    3,
	Image:       4,
	Rack:        5,
	Remarks:     6,
}

// LocateHeader scans the first maxScanRows rows for a cell containing any
// header marker and returns the index of the first such row. When no marker
// is found it returns defaultRow: a deliberate silent fallback, downstream
// consumers must tolerate a heuristic header position.
func LocateHeader(grid entity.Grid, maxScanRows, defaultRow int) int {
	limit := maxScanRows
	if limit > grid.Rows() {
		limit = grid.Rows()
	}
	for i := 0; i < limit; i++ {
		for _, cell := range grid[i] {
			if cell.Kind != entity.CellText {
				continue
			}
			for _, marker := range headerMarkers {
				if strings.Contains(cell.Text, marker) {
					return i
				}
			}
		}
	}
	return defaultRow
}

// ResolveColumns maps logical fields onto the header row by substring match,
// first matching column wins. Unmatched fields take the fallback index, so
// the result is always total; the cost is silent misalignment if the sheet
// ever deviates from the canonical layout.
func ResolveColumns(headerCells []entity.Cell) ColumnMap {
	cols := fallbackColumns
	cols.Description = matchColumn(headerCells, "DESCRIPTION", fallbackColumns.Description)
	cols.Quantity = matchColumn(headerCells, "QTY", fallbackColumns.Quantity)
	cols.ImageRef = matchColumn(headerCells, "IMAGE NO", fallbackColumns.ImageRef)
	cols.Rack = matchColumn(headerCells, "RACK", fallbackColumns.Rack)
	cols.Remarks = matchColumn(headerCells, "REMARKS", fallbackColumns.Remarks)
	cols.Image = exactColumn(headerCells, "IMAGE", fallbackColumns.Image)
	return cols
}

func matchColumn(cells []entity.Cell, marker string, fallback int) int {
	for i, cell := range cells {
		if cell.Kind == entity.CellText && strings.Contains(strings.ToUpper(cell.Text), marker) {
			return i
		}
	}
	return fallback
}

// exactColumn is used for the IMAGE column only: a substring match would
// collide with "IMAGE NO".
func exactColumn(cells []entity.Cell, label string, fallback int) int {
	for i, cell := range cells {
		if cell.Kind == entity.CellText && strings.EqualFold(strings.TrimSpace(cell.Text), label) {
			return i
		}
	}
	return fallback
}
