package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// Service defines operations on the append-only assignment ledger. Records are
// only ever opened or closed; nothing here deletes or rewrites history.
type Service interface {
	WithTx(tx *gorm.DB) Service
	OpenRecord(ctx context.Context, input OpenRecordInput) (*models.AssignmentRecord, error)
	CloseRecord(ctx context.Context, recordID uuid.UUID) (*models.AssignmentRecord, error)
	ListActive(ctx context.Context, itemID uuid.UUID) ([]models.AssignmentRecord, error)
	ListHistory(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.AssignmentRecord, error)
}

// OpenRecordInput captures the immutable snapshot a new assignment record
// stores. Department and location describe the assignee at assignment time and
// are intentionally never refreshed afterwards.
type OpenRecordInput struct {
	AssetItemID           uuid.UUID
	AssigneeID            uuid.UUID
	EntityType            enums.AssigneeType
	ConditionAtAssignment enums.AssetCondition
	Department            *string
	Location              *string
	Notes                 *string
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), now: s.now}
}

func (s *service) OpenRecord(ctx context.Context, input OpenRecordInput) (*models.AssignmentRecord, error) {
	if input.AssetItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset item id is required")
	}
	if input.AssigneeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee id is required")
	}
	if !input.EntityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid entity type %q", input.EntityType))
	}
	if !input.ConditionAtAssignment.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid condition %q", input.ConditionAtAssignment))
	}

	existing, err := s.repo.FindActive(ctx, input.AssetItemID, input.AssigneeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active assignment record")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "active assignment record already exists for this item and assignee")
	}

	record := &models.AssignmentRecord{
		ID:                     uuid.New(),
		AssetItemID:            input.AssetItemID,
		AssigneeID:             input.AssigneeID,
		EntityType:             input.EntityType,
		AssignedAt:             s.now(),
		IsActive:               true,
		ConditionAtAssignment:  input.ConditionAtAssignment,
		DepartmentAtAssignment: input.Department,
		LocationAtAssignment:   input.Location,
		Notes:                  input.Notes,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment record")
	}
	return record, nil
}

// CloseRecord stamps unassigned_at and deactivates the record. Closing an
// already-closed record is a caller bug and is surfaced, not swallowed, so
// duplicate unassign requests stay visible to operators.
func (s *service) CloseRecord(ctx context.Context, recordID uuid.UUID) (*models.AssignmentRecord, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}

	record, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment record")
	}
	if !record.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment record already closed")
	}

	closedAt := s.now()
	record.UnassignedAt = &closedAt
	record.IsActive = false
	if err := s.repo.Close(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close assignment record")
	}
	return record, nil
}

func (s *service) ListActive(ctx context.Context, itemID uuid.UUID) ([]models.AssignmentRecord, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset item id is required")
	}
	records, err := s.repo.ListActiveByItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active assignment records")
	}
	return records, nil
}

func (s *service) ListHistory(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.AssignmentRecord, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset item id is required")
	}
	records, err := s.repo.ListByItem(ctx, itemID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignment history")
	}
	return records, nil
}
