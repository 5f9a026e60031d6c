package items

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// Repository manages persistence for asset items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.AssetItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AssetItem, error)
	FindByTag(ctx context.Context, tag string) (*models.AssetItem, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.AssetItem, error)
	CompareAndSetState(ctx context.Context, id uuid.UUID, expectedVersion int64, status enums.AssetStatus, assignedCount int) (bool, error)
	UpdateLifecycle(ctx context.Context, item *models.AssetItem) (bool, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.AssetItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AssetItem, error) {
	var item models.AssetItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByTag(ctx context.Context, tag string) (*models.AssetItem, error) {
	var item models.AssetItem
	if err := r.db.WithContext(ctx).First(&item, "tag = ?", tag).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.AssetItem, error) {
	query := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
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

	var found []models.AssetItem
	if err := query.Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// CompareAndSetState writes the item's assignment state guarded by the lock
// version. It returns false without error when another writer got there first;
// the caller reloads and retries.
func (r *repository) CompareAndSetState(ctx context.Context, id uuid.UUID, expectedVersion int64, status enums.AssetStatus, assignedCount int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AssetItem{}).
		Where("id = ? AND lock_version = ?", id, expectedVersion).
		Updates(map[string]any{
			"status":         status,
			"assigned_count": assignedCount,
			"lock_version":   expectedVersion + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateLifecycle persists a status transition that is not driven by the
// assignment engine (maintenance, retirement, return to service). It carries
// the same version guard so lifecycle edits and assignments never interleave.
func (r *repository) UpdateLifecycle(ctx context.Context, item *models.AssetItem) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AssetItem{}).
		Where("id = ? AND lock_version = ?", item.ID, item.LockVersion).
		Updates(map[string]any{
			"status":       item.Status,
			"retired_at":   item.RetiredAt,
			"lock_version": item.LockVersion + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) UpdateDetails(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.AssetItem{}).
		Where("id = ?", id).
		Updates(fields).Error
}
