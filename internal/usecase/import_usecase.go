package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/inventory-importer/config"
	"github.com/yourusername/inventory-importer/internal/domain/entity"
	"github.com/yourusername/inventory-importer/internal/domain/repository"
)

const defaultWarehouseName = "Main Warehouse"

// ImportUseCase drives one reconciliation run: header location, column
// resolution, row normalization, entity creation and image resolution.
type ImportUseCase struct {
	store  repository.InventoryStore
	images *ImageResolver
	cfg    *config.Config

	now   func() time.Time
	newID func() string

	// per-run state
	skuSeq    int
	nameCount map[string]int
}

// NewImportUseCase wires the reconciler. images may be nil to disable image
// resolution entirely (dry runs).
func NewImportUseCase(store repository.InventoryStore, images *ImageResolver, cfg *config.Config) *ImportUseCase {
	return &ImportUseCase{
		store:     store,
		images:    images,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
		nameCount: make(map[string]int),
	}
}

// Run reconciles the whole grid against the store. One bad row never aborts
// the run: per-row failures land in the summary's error list and processing
// continues. Only structural store failures (category bootstrap) are fatal.
func (u *ImportUseCase) Run(ctx context.Context, grid entity.Grid, source ImageSource) (entity.ImportSummary, error) {
	summary := entity.NewImportSummary()

	headerRow := LocateHeader(grid, u.cfg.HeaderScanRows, u.cfg.HeaderDefaultRow)
	var headerCells []entity.Cell
	if headerRow < grid.Rows() {
		headerCells = grid[headerRow]
	}
	cols := ResolveColumns(headerCells)
	log.Printf("[import] header row %d, columns desc=%d qty=%d image_no=%d rack=%d remarks=%d",
		headerRow, cols.Description, cols.Quantity, cols.ImageRef, cols.Rack, cols.Remarks)

	category, err := u.ensureCategory(ctx)
	if err != nil {
		return summary, fmt.Errorf("bootstrap category: %w", err)
	}
	defaultLoc, err := u.ensureLocation(ctx, defaultWarehouseName, entity.LocationTypeWarehouse, "Default location for items without a rack")
	if err != nil {
		return summary, fmt.Errorf("bootstrap default location: %w", err)
	}

	policy := NormalizePolicy{QuantityDefault: u.cfg.QuantityDefault}
	for row := headerRow + 1; row < grid.Rows(); row++ {
		summary.RowsRead++
		rec, ok := NormalizeRow(grid, row, cols, policy)
		if !ok {
			continue
		}
		if err := u.reconcileRow(ctx, rec, cols, category, defaultLoc, source, &summary); err != nil {
			summary.RecordError(rec.Row, err)
			log.Printf("[import] row %d: %v", rec.Row, err)
		}
	}

	return summary, nil
}

func (u *ImportUseCase) reconcileRow(ctx context.Context, rec entity.NormalizedRow, cols ColumnMap,
	category *entity.Category, defaultLoc *entity.Location, source ImageSource, summary *entity.ImportSummary) error {

	loc := defaultLoc
	if rec.Rack != nil {
		var err error
		loc, err = u.ensureLocation(ctx, *rec.Rack, entity.LocationTypeRack, "Rack location "+*rec.Rack)
		if err != nil {
			return fmt.Errorf("resolve rack %q: %w", *rec.Rack, err)
		}
	}

	product, created, err := u.resolveProduct(ctx, rec, category)
	if err != nil {
		return err
	}
	if created {
		summary.Created++
	} else {
		summary.Skipped++
	}

	if err := u.upsertInventory(ctx, product, loc, rec.Quantity); err != nil {
		return err
	}

	// Image resolution never fails the row: the product record stands on
	// its own, resolver exhaustion is just reported. Reused products with a
	// stray path (a bare token instead of a managed file) get repaired here.
	if u.images != nil && (created || !managedImagePath(product.ImagePath)) {
		strategy := u.resolveImage(ctx, product, rec, cols, source)
		summary.Images[strategy]++
	}
	return nil
}

// resolveProduct applies the configured identity policy. Under "skip" an
// existing description reuses the stored product; under "suffix" every row
// creates a new product, repeats disambiguated with " (n)".
func (u *ImportUseCase) resolveProduct(ctx context.Context, rec entity.NormalizedRow, category *entity.Category) (*entity.Product, bool, error) {
	name := rec.Description

	switch u.cfg.IdentityPolicy {
	case config.PolicySkipExisting:
		existing, err := u.store.FindProductByName(ctx, name)
		if err != nil {
			return nil, false, fmt.Errorf("lookup product %q: %w", name, err)
		}
		if existing != nil {
			return existing, false, nil
		}
	case config.PolicySuffix:
		if n, seen := u.nameCount[name]; seen {
			u.nameCount[name] = n + 1
			name = fmt.Sprintf("%s (%d)", name, n+1)
		} else {
			u.nameCount[name] = 0
		}
	}

	description := "Imported product: " + rec.Description
	if rec.Remarks != nil {
		description = *rec.Remarks
	}

	now := u.now()
	product := entity.Product{
		ID:          u.newID(),
		Name:        name,
		Description: description,
		SKU:         u.generateSKU(rec.Description),
		CategoryID:  category.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.store.CreateProduct(ctx, product); err != nil {
		return nil, false, fmt.Errorf("create product %q: %w", name, err)
	}
	return &product, true, nil
}

// upsertInventory keeps one position per (product, location). A fresh insert
// records previous_quantity 0 and a receive transaction; an existing position
// is adjusted, never silently overwritten.
func (u *ImportUseCase) upsertInventory(ctx context.Context, product *entity.Product, loc *entity.Location, quantity int) error {
	existing, err := u.store.FindInventory(ctx, product.ID, loc.ID)
	if err != nil {
		return fmt.Errorf("lookup inventory: %w", err)
	}

	now := u.now()
	if existing == nil {
		inv := entity.Inventory{
			ID:         u.newID(),
			ProductID:  product.ID,
			LocationID: loc.ID,
			Quantity:   quantity,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := u.store.CreateInventory(ctx, inv); err != nil {
			return fmt.Errorf("create inventory: %w", err)
		}
		return u.appendTransaction(ctx, product.ID, loc.ID, entity.TxReceive, quantity, 0, quantity, "Initial import")
	}

	previous := existing.Quantity
	if previous == quantity {
		return nil
	}
	if err := u.store.UpdateInventoryQuantity(ctx, existing.ID, quantity); err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	return u.appendTransaction(ctx, product.ID, loc.ID, entity.TxAdjust, quantity-previous, previous, quantity, "Import adjustment")
}

func (u *ImportUseCase) appendTransaction(ctx context.Context, productID, locationID, txType string, delta, previous, next int, notes string) error {
	tx := entity.InventoryTransaction{
		ID:               u.newID(),
		ProductID:        productID,
		LocationID:       locationID,
		Type:             txType,
		Quantity:         delta,
		PreviousQuantity: previous,
		NewQuantity:      next,
		Notes:            notes,
		CreatedBy:        u.cfg.Actor,
		CreatedAt:        u.now(),
	}
	if err := u.store.AppendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("append %s transaction: %w", txType, err)
	}
	return nil
}

func (u *ImportUseCase) resolveImage(ctx context.Context, product *entity.Product, rec entity.NormalizedRow, cols ColumnMap, source ImageSource) entity.ImageStrategy {
	path, strategy := u.images.Resolve(ctx, ResolveRequest{
		ProductID:   product.ID,
		ProductName: product.Name,
		SKU:         product.SKU,
		ImageRef:    rec.ImageRef,
		SheetRow:    rec.Row,
		ImageCols:   []int{cols.Image, cols.ImageRef},
		Source:      source,
	})
	if strategy == entity.ImageNone || path == "" {
		return entity.ImageNone
	}
	if err := u.store.UpdateProductImage(ctx, product.ID, path); err != nil {
		log.Printf("[import] persist image path for %s: %v", product.Name, err)
		return entity.ImageNone
	}
	product.ImagePath = path
	return strategy
}

func (u *ImportUseCase) ensureCategory(ctx context.Context) (*entity.Category, error) {
	existing, err := u.store.FindCategoryByName(ctx, u.cfg.CategoryName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	now := u.now()
	c := entity.Category{
		ID:          u.newID(),
		Name:        u.cfg.CategoryName,
		Description: "Products imported from spreadsheet",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (u *ImportUseCase) ensureLocation(ctx context.Context, name, locType, description string) (*entity.Location, error) {
	existing, err := u.store.FindLocation(ctx, name, locType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	now := u.now()
	l := entity.Location{
		ID:          u.newID(),
		Name:        name,
		Type:        locType,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.store.CreateLocation(ctx, l); err != nil {
		return nil, err
	}
	return &l, nil
}

// generateSKU derives a stable SKU from the product name plus a sequence and
// timestamp component so colliding names still get distinct SKUs.
func (u *ImportUseCase) generateSKU(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 8 {
			break
		}
	}
	prefix := strings.ToUpper(b.String())
	if prefix == "" {
		prefix = "PRODUCT"
	}
	u.skuSeq++
	return fmt.Sprintf("%s-%03d-%d", prefix, u.skuSeq, u.now().Unix())
}
