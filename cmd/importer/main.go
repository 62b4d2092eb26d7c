package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yourusername/inventory-importer/config"
	"github.com/yourusername/inventory-importer/internal/domain/entity"
	"github.com/yourusername/inventory-importer/internal/domain/repository"
	"github.com/yourusername/inventory-importer/internal/infrastructure/parser"
	"github.com/yourusername/inventory-importer/internal/infrastructure/storage"
	"github.com/yourusername/inventory-importer/internal/usecase"
	"github.com/yourusername/inventory-importer/pkg/logger"
)

type dirList []string

func (d *dirList) String() string     { return strings.Join(*d, string(os.PathListSeparator)) }
func (d *dirList) Set(v string) error { *d = append(*d, v); return nil }

func main() {
	logger.Init()
	logger.InfoLogger.Println("🚀 Inventory importer starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	var imageDirs dirList
	file := flag.String("file", cfg.InputFile, "spreadsheet to import (.xlsx)")
	sheet := flag.String("sheet", cfg.SheetName, "sheet name (default: first visible sheet)")
	flag.Var(&imageDirs, "images-dir", "directory to search for product images (repeatable)")
	out := flag.String("out", cfg.OutputDir, "directory resolved images are written to")
	policy := flag.String("policy", cfg.IdentityPolicy, "identity policy for repeated descriptions: skip or suffix")
	qtyDefault := flag.Int("qty-default", cfg.QuantityDefault, "quantity substituted when the cell is not numeric")
	fetch := flag.Bool("fetch", cfg.FetchEnabled, "allow fetching stock photos for products without images")
	dryRun := flag.Bool("dry-run", cfg.DryRun, "parse and report without touching the database or filesystem")
	dbDriver := flag.String("db-driver", cfg.DBDriver, "database driver: postgres or sqlite3")
	dbDSN := flag.String("db-dsn", cfg.DBDSN, "database DSN or sqlite file path")
	flag.Parse()

	cfg.InputFile = *file
	cfg.SheetName = *sheet
	cfg.OutputDir = *out
	cfg.IdentityPolicy = *policy
	cfg.QuantityDefault = *qtyDefault
	cfg.FetchEnabled = *fetch
	cfg.DryRun = *dryRun
	cfg.DBDriver = *dbDriver
	cfg.DBDSN = *dbDSN
	if len(imageDirs) > 0 {
		cfg.ImageDirs = imageDirs
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Workbook
	wb, err := parser.OpenWorkbook(cfg.InputFile, cfg.SheetName)
	if err != nil {
		log.Fatalf("❌ Failed to open workbook: %v", err)
	}
	defer wb.Close()
	logger.InfoLogger.Printf("✅ Workbook open: %s (sheet %q)", cfg.InputFile, wb.Sheet())

	grid, err := wb.Grid()
	if err != nil {
		log.Fatalf("❌ Failed to read sheet: %v", err)
	}

	// 2. Store (dry runs write to memory only)
	var store repository.InventoryStore
	if cfg.DryRun {
		store = storage.NewMemoryStore()
		logger.InfoLogger.Println("✅ Dry run: in-memory store, nothing is persisted")
	} else {
		store, err = storage.NewSQLStore(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			log.Fatalf("❌ Failed to open store: %v", err)
		}
		logger.InfoLogger.Printf("✅ Store ready (%s)", cfg.DBDriver)
	}
	defer store.Close()

	// 3. Image resolver (skipped entirely on dry runs)
	var resolver *usecase.ImageResolver
	if !cfg.DryRun {
		resolver = usecase.NewImageResolver(cfg.ImageDirs, cfg.OutputDir, cfg.FetchEnabled, cfg.FetchTimeout, cfg.RetryAttempts, cfg.RetryBackoff)
	}

	// 4. Import
	importer := usecase.NewImportUseCase(store, resolver, cfg)
	summary, err := importer.Run(ctx, grid, wb)
	if err != nil {
		log.Fatalf("❌ Import failed: %v", err)
	}

	reportSummary(summary)
	reportStockLevels(ctx, store)
	logger.InfoLogger.Println("✅ Done.")
}

func reportSummary(summary entity.ImportSummary) {
	logger.InfoLogger.Printf("📦 Rows read: %d, products created: %d, skipped: %d", summary.RowsRead, summary.Created, summary.Skipped)
	for _, strategy := range []entity.ImageStrategy{entity.ImageEmbedded, entity.ImageFile, entity.ImageRemote, entity.ImagePlaceholder, entity.ImageNone} {
		if n := summary.Images[strategy]; n > 0 {
			logger.InfoLogger.Printf("🖼  Images via %s: %d", strategy, n)
		}
	}
	for _, rowErr := range summary.Errors {
		logger.ErrorLogger.Printf("row %d: %s", rowErr.Row, rowErr.Err)
	}
	if len(summary.Errors) > 0 {
		logger.ErrorLogger.Printf("%d row(s) failed", len(summary.Errors))
	}
}

func reportStockLevels(ctx context.Context, store repository.InventoryStore) {
	levels, err := store.StockLevels(ctx)
	if err != nil {
		logger.ErrorLogger.Printf("stock level report: %v", err)
		return
	}
	low := 0
	for _, lvl := range levels {
		if lvl.Status == "Low" {
			low++
		}
	}
	logger.InfoLogger.Printf("📊 Stock positions: %d (%d low)", len(levels), low)
}
