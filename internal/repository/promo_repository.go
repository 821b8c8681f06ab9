package repository

import (
	"context"
	"strings"
	"time"

	"github.com/fiestaliquor/storefront/internal/models"
)

// PromoRepository defines the interface for promo code persistence.
type PromoRepository interface {
	List(ctx context.Context) ([]models.PromoCode, error)
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
	Create(ctx context.Context, promo *models.PromoCode) error
	Update(ctx context.Context, promo *models.PromoCode) error
	Delete(ctx context.Context, id int64) error
	// MarkUsed appends the user identifier to the code's usedBy set and
	// bumps the usage count.
	MarkUsed(ctx context.Context, code, userIdent string) (*models.PromoCode, error)
}

// FilePromoRepository implements PromoRepository over the promo-codes JSON
// file.
type FilePromoRepository struct {
	file *jsonFile[models.PromoCode]
}

// NewFilePromoRepository creates a promo repository backed by
// <dir>/promo-codes.json.
func NewFilePromoRepository(dir string) *FilePromoRepository {
	return &FilePromoRepository{file: newJSONFile[models.PromoCode](dir, "promo-codes.json")}
}

// List returns all promo codes.
func (r *FilePromoRepository) List(ctx context.Context) ([]models.PromoCode, error) {
	var out []models.PromoCode
	err := r.file.view(func(promos []models.PromoCode) error {
		out = append(out, promos...)
		return nil
	})
	return out, err
}

// GetByCode returns a promo code, matched case-insensitively.
func (r *FilePromoRepository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var found *models.PromoCode
	err := r.file.view(func(promos []models.PromoCode) error {
		for i := range promos {
			if strings.EqualFold(promos[i].Code, code) {
				p := promos[i]
				found = &p
				return nil
			}
		}
		return ErrPromoNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Create stores a new promo code, assigning the next id. Duplicate codes are
// rejected.
func (r *FilePromoRepository) Create(ctx context.Context, promo *models.PromoCode) error {
	return r.file.update(func(promos []models.PromoCode) ([]models.PromoCode, error) {
		var maxID int64
		for i := range promos {
			if strings.EqualFold(promos[i].Code, promo.Code) {
				return nil, ErrCodeTaken
			}
			if promos[i].ID > maxID {
				maxID = promos[i].ID
			}
		}
		promo.ID = maxID + 1
		promo.Version = 1
		if promo.CreatedAt.IsZero() {
			promo.CreatedAt = time.Now().UTC()
		}
		if promo.UsedBy == nil {
			promo.UsedBy = []string{}
		}
		return append(promos, *promo), nil
	})
}

// Update persists a modified promo code with a version check.
func (r *FilePromoRepository) Update(ctx context.Context, promo *models.PromoCode) error {
	return r.file.update(func(promos []models.PromoCode) ([]models.PromoCode, error) {
		for i := range promos {
			if promos[i].ID == promo.ID {
				if promos[i].Version != promo.Version {
					return nil, ErrVersionConflict
				}
				promo.Version++
				promos[i] = *promo
				return promos, nil
			}
		}
		return nil, ErrPromoNotFound
	})
}

// Delete removes a promo code.
func (r *FilePromoRepository) Delete(ctx context.Context, id int64) error {
	return r.file.update(func(promos []models.PromoCode) ([]models.PromoCode, error) {
		for i := range promos {
			if promos[i].ID == id {
				return append(promos[:i], promos[i+1:]...), nil
			}
		}
		return nil, ErrPromoNotFound
	})
}

// MarkUsed records a redemption by the given user.
func (r *FilePromoRepository) MarkUsed(ctx context.Context, code, userIdent string) (*models.PromoCode, error) {
	var updated *models.PromoCode
	err := r.file.update(func(promos []models.PromoCode) ([]models.PromoCode, error) {
		for i := range promos {
			if strings.EqualFold(promos[i].Code, code) {
				if userIdent != "" && !promos[i].UsedByUser(userIdent) {
					promos[i].UsedBy = append(promos[i].UsedBy, userIdent)
				}
				promos[i].UsageCount++
				promos[i].Version++
				p := promos[i]
				updated = &p
				return promos, nil
			}
		}
		return nil, ErrPromoNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
