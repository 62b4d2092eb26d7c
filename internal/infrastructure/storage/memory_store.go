package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yourusername/inventory-importer/internal/domain/entity"
	"github.com/yourusername/inventory-importer/internal/domain/repository"
)

type MemoryStore struct {
	mu           sync.RWMutex
	categories   map[string]entity.Category // key: category ID
	locations    map[string]entity.Location
	products     map[string]entity.Product
	inventory    map[string]entity.Inventory
	transactions []entity.InventoryTransaction
}

var _ repository.InventoryStore = (*MemoryStore)(nil)

// NewMemoryStore keeps everything in process memory. Used for dry runs and
// in tests; the interface contract matches the SQL store exactly.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[string]entity.Category),
		locations:  make(map[string]entity.Location),
		products:   make(map[string]entity.Product),
		inventory:  make(map[string]entity.Inventory),
	}
}

func (m *MemoryStore) FindCategoryByName(ctx context.Context, name string) (*entity.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateCategory(ctx context.Context, c entity.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return fmt.Errorf("category already exists: %s", c.Name)
		}
	}
	m.categories[c.ID] = c
	return nil
}

func (m *MemoryStore) FindLocation(ctx context.Context, name, locType string) (*entity.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.locations {
		if l.Name == name && l.Type == locType {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateLocation(ctx context.Context, l entity.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.locations {
		if existing.Name == l.Name && existing.Type == l.Type {
			return fmt.Errorf("location already exists: %s (%s)", l.Name, l.Type)
		}
	}
	m.locations[l.ID] = l
	return nil
}

func (m *MemoryStore) FindProductByName(ctx context.Context, name string) (*entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateProduct(ctx context.Context, p entity.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.products {
		if existing.SKU != "" && existing.SKU == p.SKU {
			return fmt.Errorf("duplicate sku: %s", p.SKU)
		}
	}
	m.products[p.ID] = p
	return nil
}

func (m *MemoryStore) UpdateProductImage(ctx context.Context, productID, imagePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.products[productID]
	if !exists {
		return fmt.Errorf("product not found: %s", productID)
	}
	p.ImagePath = imagePath
	m.products[productID] = p
	return nil
}

func (m *MemoryStore) FindInventory(ctx context.Context, productID, locationID string) (*entity.Inventory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, inv := range m.inventory {
		if inv.ProductID == productID && inv.LocationID == locationID {
			return &inv, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateInventory(ctx context.Context, inv entity.Inventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.inventory {
		if existing.ProductID == inv.ProductID && existing.LocationID == inv.LocationID {
			return fmt.Errorf("inventory position already exists for product %s at location %s", inv.ProductID, inv.LocationID)
		}
	}
	m.inventory[inv.ID] = inv
	return nil
}

func (m *MemoryStore) UpdateInventoryQuantity(ctx context.Context, inventoryID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, exists := m.inventory[inventoryID]
	if !exists {
		return fmt.Errorf("inventory position not found: %s", inventoryID)
	}
	inv.Quantity = quantity
	m.inventory[inventoryID] = inv
	return nil
}

func (m *MemoryStore) AppendTransaction(ctx context.Context, tx entity.InventoryTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transactions = append(m.transactions, tx)
	return nil
}

// StockLevels mirrors the SQL view's classification against min/max
// thresholds.
func (m *MemoryStore) StockLevels(ctx context.Context) ([]entity.StockLevel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var levels []entity.StockLevel
	for _, inv := range m.inventory {
		p, ok := m.products[inv.ProductID]
		if !ok {
			continue
		}
		l, ok := m.locations[inv.LocationID]
		if !ok {
			continue
		}

		status := "OK"
		if inv.Quantity <= inv.MinQuantity {
			status = "Low"
		} else if inv.MaxQuantity > 0 && inv.Quantity >= inv.MaxQuantity {
			status = "Overstocked"
		}

		var categoryName string
		if c, ok := m.categories[p.CategoryID]; ok {
			categoryName = c.Name
		}

		levels = append(levels, entity.StockLevel{
			ProductID:   p.ID,
			ProductName: p.Name,
			SKU:         p.SKU,
			Category:    categoryName,
			Location:    l.Name,
			Quantity:    inv.Quantity,
			Status:      status,
		})
	}

	sort.Slice(levels, func(i, j int) bool {
		if levels[i].ProductName == levels[j].ProductName {
			return levels[i].Location < levels[j].Location
		}
		return levels[i].ProductName < levels[j].ProductName
	})
	return levels, nil
}

// Transactions returns a copy of the audit trail in append order.
func (m *MemoryStore) Transactions() []entity.InventoryTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entity.InventoryTransaction, len(m.transactions))
	copy(out, m.transactions)
	return out
}

func (m *MemoryStore) Close() error {
	return nil
}
