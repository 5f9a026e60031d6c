package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// Service exposes the directory of entities assets can be assigned to.
// Resolve is the assignment engine's eligibility lookup; the rest is plumbing
// for keeping the local mirror current.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Create(ctx context.Context, input CreateAssigneeInput) (*models.Assignee, error)
	Resolve(ctx context.Context, id uuid.UUID) (*models.Assignee, error)
	List(ctx context.Context, params pagination.Params) ([]models.Assignee, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CreateAssigneeInput describes a new directory entry.
type CreateAssigneeInput struct {
	DisplayName string
	EntityType  enums.AssigneeType
	Email       *string
	Department  *string
	Location    *string
}

type service struct {
	repo Repository
}

// NewService wires a directory service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("directory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Create(ctx context.Context, input CreateAssigneeInput) (*models.Assignee, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}
	if !input.EntityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid entity type %q", input.EntityType))
	}

	assignee := &models.Assignee{
		ID:          uuid.New(),
		DisplayName: name,
		EntityType:  input.EntityType,
		Email:       input.Email,
		Department:  input.Department,
		Location:    input.Location,
		Active:      true,
	}
	if err := s.repo.Create(ctx, assignee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignee")
	}
	return assignee, nil
}

// Resolve loads an assignee for eligibility checks. Deactivated entries
// resolve as ineligible rather than missing so callers can tell the two
// apart.
func (s *service) Resolve(ctx context.Context, id uuid.UUID) (*models.Assignee, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee id is required")
	}
	assignee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignee")
	}
	if !assignee.Active {
		return nil, pkgerrors.New(pkgerrors.CodeIneligibleAssignee, "assignee is deactivated")
	}
	return assignee, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Assignee, error) {
	found, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignees")
	}
	return found, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Resolve(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate assignee")
	}
	return nil
}
