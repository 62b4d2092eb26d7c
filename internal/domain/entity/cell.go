package entity

import (
	"strconv"
	"strings"
	"time"
)

// CellKind tags the raw value carried by a grid cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell is one raw spreadsheet value, classified at the grid boundary.
// Business logic never sees untyped cell values.
type Cell struct {
	Kind   CellKind  `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number float64   `json:"number,omitempty"`
	Date   time.Time `json:"date,omitempty"`
}

// ClassifyCell turns a raw cell string into a tagged Cell.
func ClassifyCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{Kind: CellEmpty}
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Cell{Kind: CellNumber, Number: n, Text: trimmed}
	}
	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Cell{Kind: CellDate, Date: t, Text: trimmed}
		}
	}
	return Cell{Kind: CellText, Text: trimmed}
}

var cellDateLayouts = []string{
	"2006-01-02",
	"01-02-06",
	"1/2/06 15:04",
	"2006-01-02 15:04:05",
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String returns the trimmed textual form of the cell, "" when empty.
func (c Cell) String() string {
	return c.Text
}

// Grid is an immutable snapshot of one sheet: 0-indexed rows of cells.
type Grid [][]Cell

// At returns the cell at (row, col); out-of-range addresses read as empty.
func (g Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g) {
		return Cell{Kind: CellEmpty}
	}
	r := g[row]
	if col < 0 || col >= len(r) {
		return Cell{Kind: CellEmpty}
	}
	return r[col]
}

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int { return len(g) }
