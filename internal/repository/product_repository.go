package repository

import (
	"context"

	"github.com/fiestaliquor/storefront/internal/models"
)

// ProductRepository defines the interface for catalog access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
}

// FileProductRepository implements ProductRepository over the products JSON
// file.
type FileProductRepository struct {
	file *jsonFile[models.Product]
}

// NewFileProductRepository creates a product repository backed by
// <dir>/products.json.
func NewFileProductRepository(dir string) *FileProductRepository {
	return &FileProductRepository{file: newJSONFile[models.Product](dir, "products.json")}
}

// GetAll returns the full catalog.
func (r *FileProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.file.view(func(items []models.Product) error {
		out = append(out, items...)
		return nil
	})
	return out, err
}

// GetByID returns a product by its ID.
func (r *FileProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var found *models.Product
	err := r.file.view(func(items []models.Product) error {
		for i := range items {
			if items[i].ID == id {
				p := items[i]
				found = &p
				return nil
			}
		}
		return ErrProductNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Seed replaces the catalog with the given products. Used by the storectl
// seed-products command.
func (r *FileProductRepository) Seed(ctx context.Context, products []models.Product) error {
	return r.file.update(func([]models.Product) ([]models.Product, error) {
		return products, nil
	})
}
