package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourusername/inventory-importer/config"
	"github.com/yourusername/inventory-importer/internal/domain/entity"
	"github.com/yourusername/inventory-importer/internal/infrastructure/storage"
)

func testConfig(policy string) *config.Config {
	return &config.Config{
		HeaderScanRows:   10,
		HeaderDefaultRow: 0,
		IdentityPolicy:   policy,
		QuantityDefault:  0,
		CategoryName:     "Imported Products",
		Actor:            "tester",
	}
}

func testImporter(store *storage.MemoryStore, policy string) *ImportUseCase {
	u := NewImportUseCase(store, nil, testConfig(policy))
	u.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	seq := 0
	u.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	return u
}

func importSheet(rows ...[]string) entity.Grid {
	all := [][]string{
		{"SR NO", "DESCRIPTION", "QTY", "IMAGE NO", "IMAGE", "RACK NO", "REMARKS"},
	}
	all = append(all, rows...)
	return gridFrom(all)
}

func TestImportRun_CreatesEntities(t *testing.T) {
	store := storage.NewMemoryStore()
	u := testImporter(store, config.PolicySkipExisting)

	grid := importSheet(
		[]string{"1", "Office Chair A", "5", "IMG_8454", "", "R1", ""},
		[]string{"2", "Table B", "3"},
	)

	summary, err := u.Run(context.Background(), grid, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.RowsRead != 2 || summary.Created != 2 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v, want 2 read, 2 created, 0 skipped", summary)
	}

	ctx := context.Background()
	chair, err := store.FindProductByName(ctx, "Office Chair A")
	if err != nil || chair == nil {
		t.Fatalf("product Office Chair A not created: %v", err)
	}
	if chair.SKU == "" {
		t.Error("product has no SKU")
	}

	rack, _ := store.FindLocation(ctx, "R1", entity.LocationTypeRack)
	if rack == nil {
		t.Fatal("rack location R1 not created")
	}
	warehouse, _ := store.FindLocation(ctx, "Main Warehouse", entity.LocationTypeWarehouse)
	if warehouse == nil {
		t.Fatal("default warehouse not created")
	}

	inv, _ := store.FindInventory(ctx, chair.ID, rack.ID)
	if inv == nil || inv.Quantity != 5 {
		t.Fatalf("chair inventory = %+v, want quantity 5 at rack", inv)
	}

	table, _ := store.FindProductByName(ctx, "Table B")
	inv, _ = store.FindInventory(ctx, table.ID, warehouse.ID)
	if inv == nil || inv.Quantity != 3 {
		t.Fatalf("rackless product inventory = %+v, want quantity 3 at warehouse", inv)
	}

	txs := store.Transactions()
	if len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
	for _, tx := range txs {
		if tx.Type != entity.TxReceive {
			t.Errorf("transaction type = %s, want receive", tx.Type)
		}
		if tx.PreviousQuantity != 0 {
			t.Errorf("previous quantity = %d, want 0", tx.PreviousQuantity)
		}
		if tx.CreatedBy != "tester" {
			t.Errorf("created_by = %s, want tester", tx.CreatedBy)
		}
	}
}

func TestImportRun_SkipPolicyIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	grid := importSheet(
		[]string{"1", "Office Chair A", "5", "", "", "R1", ""},
		[]string{"2", "Table B", "3"},
	)

	first, err := testImporter(store, config.PolicySkipExisting).Run(context.Background(), grid, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := testImporter(store, config.PolicySkipExisting).Run(context.Background(), grid, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Created != 2 || second.Created != 0 || second.Skipped != 2 {
		t.Fatalf("first created %d, second created %d skipped %d; want 2, 0, 2",
			first.Created, second.Created, second.Skipped)
	}

	levels, _ := store.StockLevels(context.Background())
	if len(levels) != 2 {
		t.Fatalf("stock positions = %d, want 2 (no duplicates)", len(levels))
	}
}

func TestImportRun_ReimportAdjustsQuantity(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	if _, err := testImporter(store, config.PolicySkipExisting).Run(ctx, importSheet(
		[]string{"1", "Office Chair A", "5", "", "", "R1", ""},
	), nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := testImporter(store, config.PolicySkipExisting).Run(ctx, importSheet(
		[]string{"1", "Office Chair A", "8", "", "", "R1", ""},
	), nil); err != nil {
		t.Fatalf("second run: %v", err)
	}

	chair, _ := store.FindProductByName(ctx, "Office Chair A")
	rack, _ := store.FindLocation(ctx, "R1", entity.LocationTypeRack)
	inv, _ := store.FindInventory(ctx, chair.ID, rack.ID)
	if inv.Quantity != 8 {
		t.Fatalf("quantity after reimport = %d, want 8", inv.Quantity)
	}

	txs := store.Transactions()
	if len(txs) != 2 {
		t.Fatalf("transactions = %d, want receive + adjust", len(txs))
	}
	adjust := txs[1]
	if adjust.Type != entity.TxAdjust {
		t.Fatalf("second transaction type = %s, want adjust", adjust.Type)
	}
	if adjust.PreviousQuantity != 5 || adjust.NewQuantity != 8 || adjust.Quantity != 3 {
		t.Fatalf("adjust = prev %d new %d delta %d, want 5/8/3",
			adjust.PreviousQuantity, adjust.NewQuantity, adjust.Quantity)
	}
}

func TestImportRun_ReimportSameQuantityWritesNothing(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	grid := importSheet([]string{"1", "Office Chair A", "5", "", "", "R1", ""})

	if _, err := testImporter(store, config.PolicySkipExisting).Run(ctx, grid, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := testImporter(store, config.PolicySkipExisting).Run(ctx, grid, nil); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if txs := store.Transactions(); len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1 (no adjust for unchanged quantity)", len(txs))
	}
}

func TestImportRun_SuffixPolicyDisambiguates(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	summary, err := testImporter(store, config.PolicySuffix).Run(ctx, importSheet(
		[]string{"1", "Stacking Chair", "2", "", "", "R1", ""},
		[]string{"2", "Stacking Chair", "4", "", "", "R2", ""},
		[]string{"3", "Stacking Chair", "1", "", "", "R3", ""},
	), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Created != 3 {
		t.Fatalf("created = %d, want 3", summary.Created)
	}

	for _, name := range []string{"Stacking Chair", "Stacking Chair (1)", "Stacking Chair (2)"} {
		p, _ := store.FindProductByName(ctx, name)
		if p == nil {
			t.Errorf("product %q not created", name)
		}
	}
}

func TestImportRun_BlankRowsIgnored(t *testing.T) {
	store := storage.NewMemoryStore()

	summary, err := testImporter(store, config.PolicySkipExisting).Run(context.Background(), importSheet(
		[]string{"1", "Office Chair A", "5"},
		[]string{"", "", ""},
		[]string{"2", "Table B", "3"},
	), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.RowsRead != 3 || summary.Created != 2 {
		t.Fatalf("summary = %+v, want 3 read, 2 created", summary)
	}
}

// failingStore rejects one product by name so a mid-run failure can be
// observed without a real database.
type failingStore struct {
	*storage.MemoryStore
	rejectName string
}

func (f *failingStore) CreateProduct(ctx context.Context, p entity.Product) error {
	if p.Name == f.rejectName {
		return fmt.Errorf("constraint violation")
	}
	return f.MemoryStore.CreateProduct(ctx, p)
}

func TestImportRun_RowErrorDoesNotAbort(t *testing.T) {
	mem := storage.NewMemoryStore()
	store := &failingStore{MemoryStore: mem, rejectName: "Broken Lamp"}
	u := NewImportUseCase(store, nil, testConfig(config.PolicySkipExisting))

	summary, err := u.Run(context.Background(), importSheet(
		[]string{"1", "Office Chair A", "5"},
		[]string{"2", "Broken Lamp", "2"},
		[]string{"3", "Table B", "3"},
	), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Created != 2 {
		t.Errorf("created = %d, want 2", summary.Created)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(summary.Errors))
	}
	if summary.Errors[0].Row != 2 {
		t.Errorf("error row = %d, want 2", summary.Errors[0].Row)
	}
	if p, _ := mem.FindProductByName(context.Background(), "Table B"); p == nil {
		t.Error("row after the failing one was not processed")
	}
}

func TestImportRun_PlaceholderWhenAllStrategiesFail(t *testing.T) {
	store := storage.NewMemoryStore()
	cfg := testConfig(config.PolicySkipExisting)
	resolver := NewImageResolver(nil, t.TempDir(), false, time.Second, 1, 0)
	u := NewImportUseCase(store, resolver, cfg)

	summary, err := u.Run(context.Background(), importSheet(
		[]string{"1", "Mystery Item", "1", "NO_SUCH_REF", "", "", ""},
	), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Images[entity.ImagePlaceholder] != 1 {
		t.Fatalf("images = %v, want one placeholder", summary.Images)
	}

	p, _ := store.FindProductByName(context.Background(), "Mystery Item")
	if p == nil || p.ImagePath == "" {
		t.Fatalf("product image path not set: %+v", p)
	}
}

func TestImportRun_RepairsStrayImagePath(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "IMG_8454.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	resolver := NewImageResolver([]string{srcDir}, t.TempDir(), false, time.Second, 1, 0)

	// A product imported before image handling existed: the sheet token was
	// stored as-is instead of a managed file.
	if err := store.CreateProduct(ctx, entity.Product{
		ID: "p-legacy", Name: "Office Chair A", SKU: "OFFICECH-001-1", ImagePath: "IMG_8454",
	}); err != nil {
		t.Fatal(err)
	}

	grid := importSheet([]string{"1", "Office Chair A", "5", "IMG_8454", "", "R1", ""})
	summary, err := NewImportUseCase(store, resolver, testConfig(config.PolicySkipExisting)).Run(ctx, grid, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Created != 0 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v, want reuse of the seeded product", summary)
	}
	if summary.Images[entity.ImageFile] != 1 {
		t.Fatalf("images = %v, want one file resolution", summary.Images)
	}

	p, _ := store.FindProductByName(ctx, "Office Chair A")
	if p.ImagePath != "/uploads/products/product_p-legacy.jpg" {
		t.Fatalf("image path = %q, want repaired managed path", p.ImagePath)
	}

	// A repaired path is left alone on the next run.
	again, err := NewImportUseCase(store, resolver, testConfig(config.PolicySkipExisting)).Run(ctx, grid, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(again.Images) != 0 {
		t.Fatalf("second run images = %v, want none", again.Images)
	}
}

func TestGenerateSKU_Format(t *testing.T) {
	u := testImporter(storage.NewMemoryStore(), config.PolicySkipExisting)

	sku := u.generateSKU("Office Chair A-12")
	want := fmt.Sprintf("OFFICECH-001-%d", u.now().Unix())
	if sku != want {
		t.Fatalf("sku = %q, want %q", sku, want)
	}

	if next := u.generateSKU("Office Chair A-12"); next == sku {
		t.Error("sequence component did not advance")
	}
}
