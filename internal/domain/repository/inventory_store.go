package repository

import (
	"context"

	"github.com/yourusername/inventory-importer/internal/domain/entity"
)

// InventoryStore is the relational persistence boundary. Lookups return
// (nil, nil) when the entity is absent so callers can run the
// lookup-then-create-if-absent sequence without error juggling.
//
// The importer exclusively owns creation of categories, locations, products,
// inventory positions and transactions; the image resolver only ever touches
// a product's image path.
type InventoryStore interface {
	FindCategoryByName(ctx context.Context, name string) (*entity.Category, error)
	CreateCategory(ctx context.Context, c entity.Category) error

	FindLocation(ctx context.Context, name, locType string) (*entity.Location, error)
	CreateLocation(ctx context.Context, l entity.Location) error

	FindProductByName(ctx context.Context, name string) (*entity.Product, error)
	CreateProduct(ctx context.Context, p entity.Product) error
	UpdateProductImage(ctx context.Context, productID, imagePath string) error

	FindInventory(ctx context.Context, productID, locationID string) (*entity.Inventory, error)
	CreateInventory(ctx context.Context, inv entity.Inventory) error
	UpdateInventoryQuantity(ctx context.Context, inventoryID string, quantity int) error

	AppendTransaction(ctx context.Context, tx entity.InventoryTransaction) error

	StockLevels(ctx context.Context) ([]entity.StockLevel, error)

	Close() error
}
