package entity

import "time"

// Location types as stored in the locations table.
const (
	LocationTypeGeneric   = "Generic"
	LocationTypeRack      = "Rack"
	LocationTypeWarehouse = "Warehouse"
)

// Transaction types for the append-only audit trail.
const (
	TxReceive  = "receive"
	TxIssue    = "issue"
	TxTransfer = "transfer"
	TxAdjust   = "adjust"
	TxCount    = "count"
)

// Category groups products. Identity is the exact name.
type Category struct {
	ID          string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Location is a storage place. Identity is the (name, type) pair.
type Location struct {
	ID          string    `json:"location_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product is one catalog entry. Whether a repeated description maps to the
// same product depends on the configured identity policy.
type Product struct {
	ID          string    `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SKU         string    `json:"sku"`
	ImagePath   string    `json:"image_path,omitempty"`
	CategoryID  string    `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Inventory is the stock position for one (product, location) pair.
type Inventory struct {
	ID          string    `json:"inventory_id"`
	ProductID   string    `json:"product_id"`
	LocationID  string    `json:"location_id"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	MaxQuantity int       `json:"max_quantity,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InventoryTransaction is one append-only audit record for a stock change.
type InventoryTransaction struct {
	ID               string    `json:"transaction_id"`
	ProductID        string    `json:"product_id"`
	LocationID       string    `json:"location_id"`
	Type             string    `json:"transaction_type"`
	Quantity         int       `json:"quantity"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Notes            string    `json:"notes,omitempty"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// StockLevel is one row of the inventory level view, with the stock
// classified against the position's min/max thresholds.
type StockLevel struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"stock_status"` // Low, OK, Overstocked
}

// NormalizedRow is one spreadsheet data row after field coercion. It is
// consumed immediately by the reconciler and not retained.
type NormalizedRow struct {
	Row         int     // 0-based grid row the record came from
	Description string  // never empty; empty descriptions are skipped earlier
	Quantity    int     // non-negative
	ImageRef    *string // nil when the cell was empty
	Rack        *string
	Remarks     *string
}

// ImageStrategy names the resolver step that produced a product image.
type ImageStrategy string

const (
	ImageEmbedded    ImageStrategy = "embedded"
	ImageFile        ImageStrategy = "file"
	ImageRemote      ImageStrategy = "remote"
	ImagePlaceholder ImageStrategy = "placeholder"
	ImageNone        ImageStrategy = "none"
)

// RowError records a per-row failure without aborting the run.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// ImportSummary is the structured report of one import run.
type ImportSummary struct {
	RowsRead int                   `json:"rows_read"`
	Created  int                   `json:"created"`
	Skipped  int                   `json:"skipped"`
	Images   map[ImageStrategy]int `json:"images"`
	Errors   []RowError            `json:"errors,omitempty"`
}

// NewImportSummary returns a summary with the image counters initialized.
func NewImportSummary() ImportSummary {
	return ImportSummary{Images: make(map[ImageStrategy]int)}
}

// RecordError appends one row-level failure.
func (s *ImportSummary) RecordError(row int, err error) {
	s.Errors = append(s.Errors, RowError{Row: row, Err: err.Error()})
}
