package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/yourusername/inventory-importer/internal/domain/entity"
	"github.com/yourusername/inventory-importer/internal/domain/repository"
)

// DriverPostgres and DriverSQLite are the supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type sqlStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens the database for the given driver, bootstraps the schema
// and returns the store. The schema statements are idempotent so repeated
// runs against the same database are safe.
func NewSQLStore(driver, dsn string) (repository.InventoryStore, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = openPostgresWithRetry(dsn)
	case DriverSQLite:
		db, err = openSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	s := &sqlStore{db: db, driver: driver}
	if err := s.bootstrapSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return s, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		category_id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		location_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (name, type)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id TEXT PRIMARY KEY,
		sku TEXT UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		category_id TEXT,
		image_path TEXT,
		unit_of_measure TEXT DEFAULT 'each',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories (category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		inventory_id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		min_quantity INTEGER DEFAULT 0,
		max_quantity INTEGER,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (product_id) REFERENCES products (product_id),
		FOREIGN KEY (location_id) REFERENCES locations (location_id),
		UNIQUE (product_id, location_id)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_transactions (
		transaction_id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		previous_quantity INTEGER NOT NULL,
		new_quantity INTEGER NOT NULL,
		notes TEXT,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (product_id) REFERENCES products (product_id),
		FOREIGN KEY (location_id) REFERENCES locations (location_id),
		CONSTRAINT valid_transaction_type CHECK (transaction_type IN ('receive', 'issue', 'transfer', 'adjust', 'count'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_product ON inventory (product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_location ON inventory (location_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_product ON inventory_transactions (product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON inventory_transactions (created_at)`,
}

const inventoryLevelsView = `
	SELECT
		p.product_id,
		p.name AS product_name,
		p.sku,
		c.name AS category,
		l.name AS location,
		i.quantity,
		i.min_quantity,
		i.max_quantity,
		CASE
			WHEN i.quantity <= i.min_quantity THEN 'Low'
			WHEN i.max_quantity IS NOT NULL AND i.quantity >= i.max_quantity THEN 'Overstocked'
			ELSE 'OK'
		END AS stock_status
	FROM inventory i
	JOIN products p ON i.product_id = p.product_id
	LEFT JOIN categories c ON p.category_id = c.category_id
	JOIN locations l ON i.location_id = l.location_id`

func (s *sqlStore) bootstrapSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}

	viewDDL := "CREATE VIEW IF NOT EXISTS vw_inventory_levels AS" + inventoryLevelsView
	if s.driver == DriverPostgres {
		viewDDL = "CREATE OR REPLACE VIEW vw_inventory_levels AS" + inventoryLevelsView
	}
	if _, err := s.db.Exec(viewDDL); err != nil {
		return fmt.Errorf("create inventory levels view: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres. Queries are written once
// in sqlite form and rebound per driver.
func (s *sqlStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) FindCategoryByName(ctx context.Context, name string) (*entity.Category, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT category_id, name, description, created_at, updated_at
		FROM categories WHERE name = ?`), name)

	var c entity.Category
	var description sql.NullString
	err := row.Scan(&c.ID, &c.Name, &description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan category: %w", err)
	}
	c.Description = description.String
	return &c, nil
}

func (s *sqlStore) CreateCategory(ctx context.Context, c entity.Category) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO categories (category_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert category %q: %w", c.Name, err)
	}
	return nil
}

func (s *sqlStore) FindLocation(ctx context.Context, name, locType string) (*entity.Location, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT location_id, name, type, description, created_at, updated_at
		FROM locations WHERE name = ? AND type = ?`), name, locType)

	var l entity.Location
	var description sql.NullString
	err := row.Scan(&l.ID, &l.Name, &l.Type, &description, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan location: %w", err)
	}
	l.Description = description.String
	return &l, nil
}

func (s *sqlStore) CreateLocation(ctx context.Context, l entity.Location) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO locations (location_id, name, type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		l.ID, l.Name, l.Type, l.Description, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert location %q: %w", l.Name, err)
	}
	return nil
}

func (s *sqlStore) FindProductByName(ctx context.Context, name string) (*entity.Product, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT product_id, sku, name, description, category_id, image_path, created_at, updated_at
		FROM products WHERE name = ?`), name)
	return scanProduct(row)
}

func scanProduct(row *sql.Row) (*entity.Product, error) {
	var p entity.Product
	var sku, description, categoryID, imagePath sql.NullString
	err := row.Scan(&p.ID, &sku, &p.Name, &description, &categoryID, &imagePath, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.SKU = sku.String
	p.Description = description.String
	p.CategoryID = categoryID.String
	p.ImagePath = imagePath.String
	return &p, nil
}

func (s *sqlStore) CreateProduct(ctx context.Context, p entity.Product) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO products (product_id, sku, name, description, category_id, image_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.SKU, p.Name, p.Description, p.CategoryID, nullString(p.ImagePath), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product %q: %w", p.Name, err)
	}
	return nil
}

func (s *sqlStore) UpdateProductImage(ctx context.Context, productID, imagePath string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE products SET image_path = ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ?`), imagePath, productID)
	if err != nil {
		return fmt.Errorf("update product image: %w", err)
	}
	return nil
}

func (s *sqlStore) FindInventory(ctx context.Context, productID, locationID string) (*entity.Inventory, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT inventory_id, product_id, location_id, quantity, min_quantity, max_quantity, created_at, updated_at
		FROM inventory WHERE product_id = ? AND location_id = ?`), productID, locationID)

	var inv entity.Inventory
	var minQty, maxQty sql.NullInt64
	err := row.Scan(&inv.ID, &inv.ProductID, &inv.LocationID, &inv.Quantity, &minQty, &maxQty, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan inventory: %w", err)
	}
	inv.MinQuantity = int(minQty.Int64)
	inv.MaxQuantity = int(maxQty.Int64)
	return &inv, nil
}

func (s *sqlStore) CreateInventory(ctx context.Context, inv entity.Inventory) error {
	maxQty := sql.NullInt64{Int64: int64(inv.MaxQuantity), Valid: inv.MaxQuantity > 0}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO inventory (inventory_id, product_id, location_id, quantity, min_quantity, max_quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		inv.ID, inv.ProductID, inv.LocationID, inv.Quantity, inv.MinQuantity, maxQty, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory: %w", err)
	}
	return nil
}

func (s *sqlStore) UpdateInventoryQuantity(ctx context.Context, inventoryID string, quantity int) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE inventory SET quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE inventory_id = ?`), quantity, inventoryID)
	if err != nil {
		return fmt.Errorf("update inventory quantity: %w", err)
	}
	return nil
}

func (s *sqlStore) AppendTransaction(ctx context.Context, tx entity.InventoryTransaction) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO inventory_transactions
			(transaction_id, product_id, location_id, transaction_type, quantity, previous_quantity, new_quantity, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		tx.ID, tx.ProductID, tx.LocationID, tx.Type, tx.Quantity, tx.PreviousQuantity, tx.NewQuantity, tx.Notes, tx.CreatedBy, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert %s transaction: %w", tx.Type, err)
	}
	return nil
}

func (s *sqlStore) StockLevels(ctx context.Context) ([]entity.StockLevel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, sku, category, location, quantity, stock_status
		FROM vw_inventory_levels ORDER BY product_name, location`)
	if err != nil {
		return nil, fmt.Errorf("query inventory levels: %w", err)
	}
	defer rows.Close()

	var levels []entity.StockLevel
	for rows.Next() {
		var lvl entity.StockLevel
		var sku, category sql.NullString
		if err := rows.Scan(&lvl.ProductID, &lvl.ProductName, &sku, &category, &lvl.Location, &lvl.Quantity, &lvl.Status); err != nil {
			return nil, fmt.Errorf("scan inventory level: %w", err)
		}
		lvl.SKU = sku.String
		lvl.Category = category.String
		levels = append(levels, lvl)
	}
	return levels, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
