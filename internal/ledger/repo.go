package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// Repository manages persistence for assignment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.AssignmentRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AssignmentRecord, error)
	FindActive(ctx context.Context, itemID, assigneeID uuid.UUID) (*models.AssignmentRecord, error)
	ListActiveByItem(ctx context.Context, itemID uuid.UUID) ([]models.AssignmentRecord, error)
	Close(ctx context.Context, record *models.AssignmentRecord) error
	ListByItem(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.AssignmentRecord, error)
	CountActiveWithoutItemAssignee(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.AssignmentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AssignmentRecord, error) {
	var record models.AssignmentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindActive(ctx context.Context, itemID, assigneeID uuid.UUID) (*models.AssignmentRecord, error) {
	var record models.AssignmentRecord
	err := r.db.WithContext(ctx).
		Where("asset_item_id = ? AND assignee_id = ? AND is_active", itemID, assigneeID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListActiveByItem(ctx context.Context, itemID uuid.UUID) ([]models.AssignmentRecord, error) {
	var records []models.AssignmentRecord
	err := r.db.WithContext(ctx).
		Where("asset_item_id = ? AND is_active", itemID).
		Order("assigned_at ASC").
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close persists the closed state of the record. The caller decides whether
// closing is legal; this only writes the two fields an unassignment touches.
func (r *repository) Close(ctx context.Context, record *models.AssignmentRecord) error {
	return r.db.WithContext(ctx).
		Model(&models.AssignmentRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"unassigned_at": record.UnassignedAt,
			"is_active":     false,
		}).Error
}

func (r *repository) ListByItem(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.AssignmentRecord, error) {
	query := r.db.WithContext(ctx).
		Where("asset_item_id = ?", itemID).
		Order("assigned_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		if cursor != nil {
			query = query.Where(
				"(assigned_at < ?) OR (assigned_at = ? AND id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
	}

	var records []models.AssignmentRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountActiveWithoutItemAssignee counts active records whose item no longer
// carries any assignee. A non-zero result is a consistency bug, surfaced by
// the reconciler.
func (r *repository) CountActiveWithoutItemAssignee(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssignmentRecord{}).
		Joins("JOIN asset_items ON asset_items.id = assignment_records.asset_item_id").
		Where("assignment_records.is_active AND asset_items.assigned_count = 0").
		Count(&count).Error
	return count, err
}
