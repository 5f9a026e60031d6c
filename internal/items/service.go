package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// Service defines intake and lifecycle operations for asset items. Assignment
// state itself is owned by the assignment engine; this service only exposes
// the guarded write it needs.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Create(ctx context.Context, input CreateItemInput) (*models.AssetItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AssetItem, error)
	GetByTag(ctx context.Context, tag string) (*models.AssetItem, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.AssetItem, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.AssetItem, error)
	MarkUnderMaintenance(ctx context.Context, id uuid.UUID) (*models.AssetItem, error)
	ReturnToService(ctx context.Context, id uuid.UUID) (*models.AssetItem, error)
	Retire(ctx context.Context, id uuid.UUID) (*models.AssetItem, error)
	CommitAssignmentState(ctx context.Context, item *models.AssetItem, status enums.AssetStatus, assignedCount int) (*models.AssetItem, error)
}

// CreateItemInput describes a new unit entering inventory.
type CreateItemInput struct {
	CategoryID   uuid.UUID
	Tag          string
	Name         string
	SerialNumber *string
	Condition    enums.AssetCondition
	Notes        *string
}

// UpdateItemInput carries optional descriptive edits. Nil fields are left
// untouched.
type UpdateItemInput struct {
	Name          *string
	SerialNumber  *string
	Condition     *enums.AssetCondition
	IsOperational *bool
	Notes         *string
}

type service struct {
	repo Repository
}

// NewService wires an item service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Create(ctx context.Context, input CreateItemInput) (*models.AssetItem, error) {
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	tag := strings.TrimSpace(input.Tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset tag is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset name is required")
	}
	condition := input.Condition
	if condition == "" {
		condition = enums.AssetConditionGood
	}
	if !condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid condition %q", condition))
	}

	if _, err := s.repo.FindByTag(ctx, tag); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("asset tag %q already in use", tag))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check asset tag")
	}

	item := &models.AssetItem{
		ID:            uuid.New(),
		CategoryID:    input.CategoryID,
		Tag:           tag,
		Name:          strings.TrimSpace(input.Name),
		SerialNumber:  input.SerialNumber,
		Status:        enums.AssetStatusAvailable,
		Condition:     condition,
		IsOperational: true,
		Notes:         input.Notes,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_asset_items_tag") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("asset tag %q already exists", tag))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create asset item")
	}
	return item, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.AssetItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset item id is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset item")
	}
	return item, nil
}

func (s *service) GetByTag(ctx context.Context, tag string) (*models.AssetItem, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset tag is required")
	}
	item, err := s.repo.FindByTag(ctx, tag)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset item")
	}
	return item, nil
}

func (s *service) ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.AssetItem, error) {
	if categoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	found, err := s.repo.ListByCategory(ctx, categoryID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list asset items")
	}
	return found, nil
}

func (s *service) UpdateDetails(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.AssetItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status == enums.AssetStatusRetired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "retired asset items are read only")
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset name cannot be empty")
		}
		fields["name"] = name
	}
	if input.SerialNumber != nil {
		fields["serial_number"] = *input.SerialNumber
	}
	if input.Condition != nil {
		if !input.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid condition %q", *input.Condition))
		}
		fields["condition"] = *input.Condition
	}
	if input.IsOperational != nil {
		fields["is_operational"] = *input.IsOperational
	}
	if input.Notes != nil {
		fields["notes"] = *input.Notes
	}
	if len(fields) == 0 {
		return item, nil
	}

	if err := s.repo.UpdateDetails(ctx, id, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update asset item")
	}
	return s.Get(ctx, id)
}

func (s *service) MarkUnderMaintenance(ctx context.Context, id uuid.UUID) (*models.AssetItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch item.Status {
	case enums.AssetStatusAvailable:
	case enums.AssetStatusUnderMaintenance:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "asset item is already under maintenance")
	case enums.AssetStatusAssigned:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "asset item must be unassigned before maintenance")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("asset item cannot enter maintenance from status %q", item.Status))
	}

	item.Status = enums.AssetStatusUnderMaintenance
	return s.commitLifecycle(ctx, item)
}

func (s *service) ReturnToService(ctx context.Context, id uuid.UUID) (*models.AssetItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status != enums.AssetStatusUnderMaintenance {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "asset item is not under maintenance")
	}

	item.Status = enums.AssetStatusAvailable
	return s.commitLifecycle(ctx, item)
}

// Retire tombstones the item. The row stays in place so ledger history keeps a
// valid referent.
func (s *service) Retire(ctx context.Context, id uuid.UUID) (*models.AssetItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status == enums.AssetStatusRetired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "asset item is already retired")
	}
	if item.AssignedCount > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "asset item must be unassigned before retirement")
	}

	retiredAt := time.Now().UTC()
	item.Status = enums.AssetStatusRetired
	item.RetiredAt = &retiredAt
	return s.commitLifecycle(ctx, item)
}

func (s *service) commitLifecycle(ctx context.Context, item *models.AssetItem) (*models.AssetItem, error) {
	updated, err := s.repo.UpdateLifecycle(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update asset item lifecycle")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "asset item was modified concurrently")
	}
	item.LockVersion++
	return item, nil
}

// CommitAssignmentState applies the assignment engine's computed state using
// the lock version carried on item. A lost race surfaces as a conflict so the
// engine can reload and retry.
func (s *service) CommitAssignmentState(ctx context.Context, item *models.AssetItem, status enums.AssetStatus, assignedCount int) (*models.AssetItem, error) {
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset item is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}
	if assignedCount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assigned count cannot be negative")
	}

	updated, err := s.repo.CompareAndSetState(ctx, item.ID, item.LockVersion, status, assignedCount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write asset item state")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "asset item was modified concurrently")
	}

	item.Status = status
	item.AssignedCount = assignedCount
	item.LockVersion++
	return item, nil
}
