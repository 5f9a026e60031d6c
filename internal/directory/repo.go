package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// Repository manages persistence for directory assignees.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignee *models.Assignee) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assignee, error)
	List(ctx context.Context, params pagination.Params) ([]models.Assignee, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a directory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, assignee *models.Assignee) error {
	return r.db.WithContext(ctx).Create(assignee).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignee, error) {
	var assignee models.Assignee
	if err := r.db.WithContext(ctx).First(&assignee, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignee, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Assignee, error) {
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

	var found []models.Assignee
	if err := query.Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Assignee{}).
		Where("id = ?", id).
		Update("active", active).Error
}
