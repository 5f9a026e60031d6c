package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// Service defines category policy and aggregate operations.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Create(ctx context.Context, input CreateCategoryInput) (*models.AssetCategory, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AssetCategory, error)
	List(ctx context.Context, params pagination.Params) ([]models.AssetCategory, error)
	UpdateDescription(ctx context.Context, id uuid.UUID, description *string) (*models.AssetCategory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, id uuid.UUID) (*models.AssetCategory, error)
	RecomputeAggregates(ctx context.Context, id uuid.UUID) (*models.AssetCategory, error)
}

// CreateCategoryInput describes a new category and its assignment policy. The
// policy is immutable after creation; changing the rules under existing
// assignments would invalidate them retroactively.
type CreateCategoryInput struct {
	Name                     string
	Description              *string
	AssignableTo             enums.AssigneeType
	AllowMultipleAssignments bool
	MaxAssignments           int
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*models.AssetCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	assignableTo := input.AssignableTo
	if assignableTo == "" {
		assignableTo = enums.AssigneeTypeEmployee
	}
	if !assignableTo.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid assignee type %q", assignableTo))
	}
	maxAssignments := input.MaxAssignments
	if maxAssignments == 0 {
		maxAssignments = 1
	}
	if maxAssignments < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max assignments must be at least 1")
	}
	if !input.AllowMultipleAssignments && maxAssignments != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "single-assignment categories must have max assignments of 1")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("category %q already exists", name))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}

	category := &models.AssetCategory{
		ID:                       uuid.New(),
		Name:                     name,
		Description:              input.Description,
		AssignableTo:             assignableTo,
		AllowMultipleAssignments: input.AllowMultipleAssignments,
		MaxAssignments:           maxAssignments,
		UtilizationRate:          decimal.Zero,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_asset_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("category %q already exists", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return category, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.AssetCategory, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.AssetCategory, error) {
	categories, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) UpdateDescription(ctx context.Context, id uuid.UUID, description *string) (*models.AssetCategory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDescription(ctx, id, description); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return s.Get(ctx, id)
}

// Delete removes an empty category. Categories with items, retired ones
// included, must keep their row so item history stays resolvable.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountItems(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category items")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "category still has asset items")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

// Stats recomputes and returns the category's aggregates so readers never see
// a stale cache.
func (s *service) Stats(ctx context.Context, id uuid.UUID) (*models.AssetCategory, error) {
	return s.RecomputeAggregates(ctx, id)
}

func (s *service) RecomputeAggregates(ctx context.Context, id uuid.UUID) (*models.AssetCategory, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.ScanItemCounts(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan category items")
	}

	utilization := decimal.Zero
	if counts.Total > 0 {
		utilization = decimal.NewFromInt(int64(counts.Assigned)).
			Div(decimal.NewFromInt(int64(counts.Total))).
			Round(4)
	}

	if err := s.repo.WriteAggregates(ctx, id, counts, utilization); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write category aggregates")
	}

	category.TotalItems = counts.Total
	category.AssignedItems = counts.Assigned
	category.UnderMaintenanceItems = counts.UnderMaintenance
	category.UtilizationRate = utilization
	return category, nil
}
