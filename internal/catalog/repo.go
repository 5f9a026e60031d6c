package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// ItemCounts is the result of a full rescan of a category's items. Retired
// items are excluded everywhere; a tombstone is not inventory.
type ItemCounts struct {
	Total            int
	Assigned         int
	UnderMaintenance int
}

// Repository manages persistence for asset categories.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, category *models.AssetCategory) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AssetCategory, error)
	FindByName(ctx context.Context, name string) (*models.AssetCategory, error)
	List(ctx context.Context, params pagination.Params) ([]models.AssetCategory, error)
	UpdateDescription(ctx context.Context, id uuid.UUID, description *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountItems(ctx context.Context, categoryID uuid.UUID) (int64, error)
	ScanItemCounts(ctx context.Context, categoryID uuid.UUID) (ItemCounts, error)
	WriteAggregates(ctx context.Context, categoryID uuid.UUID, counts ItemCounts, utilization decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, category *models.AssetCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AssetCategory, error) {
	var category models.AssetCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.AssetCategory, error) {
	var category models.AssetCategory
	if err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.AssetCategory, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		if cursor != nil {
			query = query.Where(
				"(created_at < ?) OR (created_at = ? AND id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
	}

	var categories []models.AssetCategory
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) UpdateDescription(ctx context.Context, id uuid.UUID, description *string) error {
	return r.db.WithContext(ctx).
		Model(&models.AssetCategory{}).
		Where("id = ?", id).
		Update("description", description).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.AssetCategory{}, "id = ?", id).Error
}

func (r *repository) CountItems(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssetItem{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// ScanItemCounts rescans the category's items in one pass. This is the only
// source of truth for the aggregate columns.
func (r *repository) ScanItemCounts(ctx context.Context, categoryID uuid.UUID) (ItemCounts, error) {
	var counts ItemCounts
	err := r.db.WithContext(ctx).
		Model(&models.AssetItem{}).
		Select(
			"COALESCE(SUM(CASE WHEN status <> 'retired' THEN 1 ELSE 0 END), 0) AS total, "+
				"COALESCE(SUM(CASE WHEN status = 'assigned' THEN 1 ELSE 0 END), 0) AS assigned, "+
				"COALESCE(SUM(CASE WHEN status = 'under_maintenance' THEN 1 ELSE 0 END), 0) AS under_maintenance",
		).
		Where("category_id = ?", categoryID).
		Scan(&counts).Error
	return counts, err
}

func (r *repository) WriteAggregates(ctx context.Context, categoryID uuid.UUID, counts ItemCounts, utilization decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.AssetCategory{}).
		Where("id = ?", categoryID).
		Updates(map[string]any{
			"total_items":             counts.Total,
			"assigned_items":          counts.Assigned,
			"under_maintenance_items": counts.UnderMaintenance,
			"utilization_rate":        utilization,
		}).Error
}
