package usecase

import (
	"testing"
)

var testCols = ColumnMap{Description: 1, Quantity: 2, ImageRef: 3, Image: 4, Rack: 5, Remarks: 6}

func TestNormalizeRow_FullRow(t *testing.T) {
	grid := gridFrom([][]string{
		{"1", "Office Chair A", "5", "IMG_8454", "", "R1", "scratched"},
	})

	rec, ok := NormalizeRow(grid, 0, testCols, NormalizePolicy{})
	if !ok {
		t.Fatal("NormalizeRow rejected a valid row")
	}
	if rec.Description != "Office Chair A" {
		t.Errorf("Description = %q", rec.Description)
	}
	if rec.Quantity != 5 {
		t.Errorf("Quantity = %d, want 5", rec.Quantity)
	}
	if rec.ImageRef == nil || *rec.ImageRef != "IMG_8454" {
		t.Errorf("ImageRef = %v, want IMG_8454", rec.ImageRef)
	}
	if rec.Rack == nil || *rec.Rack != "R1" {
		t.Errorf("Rack = %v, want R1", rec.Rack)
	}
	if rec.Remarks == nil || *rec.Remarks != "scratched" {
		t.Errorf("Remarks = %v, want scratched", rec.Remarks)
	}
}

func TestNormalizeRow_SkipsBlankDescription(t *testing.T) {
	grid := gridFrom([][]string{
		{"7", "", "3", "IMG_1", "", "R2"},
		{},
	})

	if _, ok := NormalizeRow(grid, 0, testCols, NormalizePolicy{}); ok {
		t.Error("row with blank description was not skipped")
	}
	if _, ok := NormalizeRow(grid, 1, testCols, NormalizePolicy{}); ok {
		t.Error("empty row was not skipped")
	}
}

func TestNormalizeRow_SkipsRepeatedHeaderLabel(t *testing.T) {
	grid := gridFrom([][]string{
		{"SR NO", "Description", "QTY"},
	})

	if _, ok := NormalizeRow(grid, 0, testCols, NormalizePolicy{}); ok {
		t.Error("repeated header label was not skipped")
	}
}

func TestNormalizeRow_QuantityFallback(t *testing.T) {
	cases := []struct {
		name string
		qty  string
		def  int
		want int
	}{
		{"missing", "", 0, 0},
		{"missing with default one", "", 1, 1},
		{"text", "n/a", 1, 1},
		{"negative", "-4", 1, 1},
		{"decimal truncates", "5.9", 0, 5},
		{"plain", "12", 0, 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grid := gridFrom([][]string{
				{"1", "Chair", tc.qty},
			})
			rec, ok := NormalizeRow(grid, 0, testCols, NormalizePolicy{QuantityDefault: tc.def})
			if !ok {
				t.Fatal("row rejected")
			}
			if rec.Quantity != tc.want {
				t.Errorf("Quantity = %d, want %d", rec.Quantity, tc.want)
			}
		})
	}
}

func TestNormalizeRow_OptionalFieldsNilWhenMissing(t *testing.T) {
	grid := gridFrom([][]string{
		{"1", "Table B", "3"},
	})

	rec, ok := NormalizeRow(grid, 0, testCols, NormalizePolicy{})
	if !ok {
		t.Fatal("row rejected")
	}
	if rec.ImageRef != nil || rec.Rack != nil || rec.Remarks != nil {
		t.Errorf("optional fields not nil: image=%v rack=%v remarks=%v", rec.ImageRef, rec.Rack, rec.Remarks)
	}
}
