package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/pricing"
)

// SettingsRepository defines access to the single store settings record.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, settings *models.Settings) error
}

// FileSettingsRepository persists the settings record as one JSON object in
// <dir>/settings.json. Unlike the slice-backed stores there is exactly one
// record, so reads fall back to defaults instead of an empty slice.
type FileSettingsRepository struct {
	path string
	mu   sync.RWMutex
}

// NewFileSettingsRepository creates a settings repository backed by
// <dir>/settings.json.
func NewFileSettingsRepository(dir string) *FileSettingsRepository {
	return &FileSettingsRepository{path: filepath.Join(dir, "settings.json")}
}

// DefaultSettings returns the record written on first read. Fee and tax
// fields start at the pricing pipeline's rates.
func DefaultSettings() *models.Settings {
	hours := map[string]models.DayHours{
		"monday":    {Open: "10:00", Close: "20:30", Enabled: true},
		"tuesday":   {Open: "10:00", Close: "20:30", Enabled: true},
		"wednesday": {Open: "10:00", Close: "20:30", Enabled: true},
		"thursday":  {Open: "10:00", Close: "20:30", Enabled: true},
		"friday":    {Open: "10:00", Close: "20:30", Enabled: true},
		"saturday":  {Open: "10:00", Close: "20:30", Enabled: true},
		"sunday":    {Open: "00:00", Close: "00:00", Enabled: false},
	}
	return &models.Settings{
		DeliveryFee:        pricing.DeliveryFee,
		MinimumOrder:       25.00,
		TaxRate:            pricing.TaxRate,
		ProcessingFeeRate:  pricing.ProcessingRate,
		ProcessingFeeFixed: pricing.ProcessingFixed,
		BusinessHours:      hours,
		Notifications:      models.NotificationPrefs{SMSEnabled: true, EmailEnabled: true},
	}
}

// Get returns the settings record, creating it with defaults on first read.
func (r *FileSettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	return &settings, nil
}

// Update replaces the settings record.
func (r *FileSettingsRepository) Update(ctx context.Context, settings *models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
