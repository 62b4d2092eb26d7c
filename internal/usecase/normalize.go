package usecase

import (
	"strings"

	"github.com/yourusername/inventory-importer/internal/domain/entity"
)

// NormalizePolicy controls per-field coercion of raw rows.
type NormalizePolicy struct {
	// QuantityDefault is substituted when the quantity cell is missing,
	// unparseable or negative. Callers differ on 0 vs 1.
	QuantityDefault int
}

// NormalizeRow coerces one data row into a typed record. ok is false when
// the row is a blank separator, trailing artifact, or a header label
// repeated inside the data region.
func NormalizeRow(grid entity.Grid, row int, cols ColumnMap, policy NormalizePolicy) (entity.NormalizedRow, bool) {
	desc := grid.At(row, cols.Description)
	name := strings.TrimSpace(desc.String())
	if name == "" {
		return entity.NormalizedRow{}, false
	}
	if strings.EqualFold(name, "DESCRIPTION") {
		return entity.NormalizedRow{}, false
	}

	return entity.NormalizedRow{
		Row:         row,
		Description: name,
		Quantity:    parseQuantity(grid.At(row, cols.Quantity), policy.QuantityDefault),
		ImageRef:    optionalString(grid.At(row, cols.ImageRef)),
		Rack:        optionalString(grid.At(row, cols.Rack)),
		Remarks:     optionalString(grid.At(row, cols.Remarks)),
	}, true
}

func parseQuantity(cell entity.Cell, fallback int) int {
	if cell.Kind != entity.CellNumber {
		return fallback
	}
	q := int(cell.Number)
	if q < 0 {
		return fallback
	}
	return q
}

// optionalString keeps nil distinct from the empty string: a missing cell is
// nil, a present-but-blank cell is also nil after trimming.
func optionalString(cell entity.Cell) *string {
	if cell.IsEmpty() {
		return nil
	}
	v := strings.TrimSpace(cell.String())
	if v == "" {
		return nil
	}
	return &v
}
