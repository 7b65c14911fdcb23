package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AzielCF/az-pricing/pricing/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type pricingTableModel struct {
	ID          string  `gorm:"primaryKey"`
	SupplierID  string  `gorm:"index:idx_pricing_tables_supplier;not null"`
	ServiceName string  `gorm:"not null"`
	PriceAmount float64 `gorm:"not null;default:0"`
	PriceUnit   string  `gorm:"not null"`
	Features    string  `gorm:"type:text;default:'[]'"` // JSON
	Duration    string
	Includes    string
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (pricingTableModel) TableName() string {
	return "pricing_tables"
}

// --- Repository Implementation ---

type PricingGormRepository struct {
	db *gorm.DB
}

func NewPricingGormRepository(db *gorm.DB) *PricingGormRepository {
	return &PricingGormRepository{db: db}
}

func (r *PricingGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&pricingTableModel{})
}

func (r *PricingGormRepository) ListBySupplier(ctx context.Context, supplierID string) ([]*domain.PricingTable, error) {
	var models []pricingTableModel
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	tables := make([]*domain.PricingTable, len(models))
	for i, m := range models {
		t, err := fromPricingTableModel(m)
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}
	return tables, nil
}

func (r *PricingGormRepository) GetByID(ctx context.Context, supplierID, id string) (*domain.PricingTable, error) {
	var m pricingTableModel
	if err := r.db.WithContext(ctx).Where("id = ? AND supplier_id = ?", id, supplierID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPricingTableNotFound
		}
		return nil, err
	}
	return fromPricingTableModel(m)
}

func (r *PricingGormRepository) Create(ctx context.Context, table *domain.PricingTable) error {
	if table.ID == "" {
		table.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if table.CreatedAt.IsZero() {
		table.CreatedAt = now
	}
	table.UpdatedAt = now
	if table.Features == nil {
		table.Features = []domain.Feature{}
	}

	model, err := toPricingTableModel(table)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *PricingGormRepository) Update(ctx context.Context, supplierID, id string, patch domain.PricingTablePatch) (*domain.PricingTable, error) {
	updates, err := patchToUpdates(patch)
	if err != nil {
		return nil, err
	}
	updates["updated_at"] = time.Now().UTC()

	var updated *domain.PricingTable
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&pricingTableModel{}).
			Where("id = ? AND supplier_id = ?", id, supplierID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrPricingTableNotFound
		}

		var m pricingTableModel
		if err := tx.Where("id = ? AND supplier_id = ?", id, supplierID).First(&m).Error; err != nil {
			return err
		}
		t, convErr := fromPricingTableModel(m)
		if convErr != nil {
			return convErr
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PricingGormRepository) Delete(ctx context.Context, supplierID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND supplier_id = ?", id, supplierID).Delete(&pricingTableModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPricingTableNotFound
	}
	return nil
}

// --- Mappers ---

func patchToUpdates(patch domain.PricingTablePatch) (map[string]interface{}, error) {
	updates := make(map[string]interface{})
	if patch.ServiceName != nil {
		updates["service_name"] = *patch.ServiceName
	}
	if patch.PriceAmount != nil {
		updates["price_amount"] = *patch.PriceAmount
	}
	if patch.PriceUnit != nil {
		updates["price_unit"] = *patch.PriceUnit
	}
	if patch.Features != nil {
		features := *patch.Features
		if features == nil {
			features = []domain.Feature{}
		}
		data, err := json.Marshal(features)
		if err != nil {
			return nil, fmt.Errorf("failed to encode features: %w", err)
		}
		updates["features"] = string(data)
	}
	if patch.Duration != nil {
		updates["duration"] = *patch.Duration
	}
	if patch.Includes != nil {
		updates["includes"] = *patch.Includes
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	return updates, nil
}

func toPricingTableModel(t *domain.PricingTable) (pricingTableModel, error) {
	features, err := json.Marshal(t.Features)
	if err != nil {
		return pricingTableModel{}, fmt.Errorf("failed to encode features: %w", err)
	}
	return pricingTableModel{
		ID:          t.ID,
		SupplierID:  t.SupplierID,
		ServiceName: t.ServiceName,
		PriceAmount: t.PriceAmount,
		PriceUnit:   t.PriceUnit,
		Features:    string(features),
		Duration:    t.Duration,
		Includes:    t.Includes,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

func fromPricingTableModel(m pricingTableModel) (*domain.PricingTable, error) {
	t := &domain.PricingTable{
		ID:          m.ID,
		SupplierID:  m.SupplierID,
		ServiceName: m.ServiceName,
		PriceAmount: m.PriceAmount,
		PriceUnit:   m.PriceUnit,
		Duration:    m.Duration,
		Includes:    m.Includes,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Features != "" {
		if err := json.Unmarshal([]byte(m.Features), &t.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features for %s: %w", m.ID, err)
		}
	}
	if t.Features == nil {
		t.Features = []domain.Feature{}
	}
	return t, nil
}
