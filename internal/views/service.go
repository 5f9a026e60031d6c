package views

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/catalog"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/directory"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/items"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/ledger"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

// CurrentAssignee is one active holder of an item, joined with the directory.
type CurrentAssignee struct {
	AssigneeID  uuid.UUID          `json:"assignee_id"`
	DisplayName string             `json:"display_name"`
	EntityType  enums.AssigneeType `json:"entity_type"`
	AssignedAt  time.Time          `json:"assigned_at"`
	RecordID    uuid.UUID          `json:"record_id"`
}

// HistoryEntry is one ledger record with the assignee's display name resolved
// at read time. The snapshot columns keep their assignment-time values.
type HistoryEntry struct {
	Record      models.AssignmentRecord `json:"record"`
	DisplayName string                  `json:"display_name"`
}

// Service is the read-only facade over items, ledger and catalog.
type Service interface {
	GetCurrentAssignees(ctx context.Context, itemID uuid.UUID) ([]CurrentAssignee, error)
	GetHistory(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]HistoryEntry, error)
	GetCategoryStats(ctx context.Context, categoryID uuid.UUID) (*models.AssetCategory, error)
}

type service struct {
	items     items.Service
	ledger    ledger.Service
	catalog   catalog.Service
	directory directory.Repository
}

// NewService wires the query facade. It takes the directory repository, not
// the service, so history lookups still resolve names for deactivated
// assignees.
func NewService(itemSvc items.Service, ledgerSvc ledger.Service, catalogSvc catalog.Service, directoryRepo directory.Repository) (Service, error) {
	if itemSvc == nil || ledgerSvc == nil || catalogSvc == nil || directoryRepo == nil {
		return nil, fmt.Errorf("all view dependencies are required")
	}
	return &service{
		items:     itemSvc,
		ledger:    ledgerSvc,
		catalog:   catalogSvc,
		directory: directoryRepo,
	}, nil
}

func (s *service) GetCurrentAssignees(ctx context.Context, itemID uuid.UUID) ([]CurrentAssignee, error) {
	if _, err := s.items.Get(ctx, itemID); err != nil {
		return nil, err
	}
	active, err := s.ledger.ListActive(ctx, itemID)
	if err != nil {
		return nil, err
	}

	out := make([]CurrentAssignee, 0, len(active))
	for _, record := range active {
		out = append(out, CurrentAssignee{
			AssigneeID:  record.AssigneeID,
			DisplayName: s.displayName(ctx, record.AssigneeID),
			EntityType:  record.EntityType,
			AssignedAt:  record.AssignedAt,
			RecordID:    record.ID,
		})
	}
	return out, nil
}

func (s *service) GetHistory(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]HistoryEntry, error) {
	if _, err := s.items.Get(ctx, itemID); err != nil {
		return nil, err
	}
	records, err := s.ledger.ListHistory(ctx, itemID, params)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0, len(records))
	for _, record := range records {
		out = append(out, HistoryEntry{
			Record:      record,
			DisplayName: s.displayName(ctx, record.AssigneeID),
		})
	}
	return out, nil
}

// GetCategoryStats recomputes before returning, so a caller never observes an
// aggregate older than the items it was derived from.
func (s *service) GetCategoryStats(ctx context.Context, categoryID uuid.UUID) (*models.AssetCategory, error) {
	category, err := s.catalog.Stats(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *service) displayName(ctx context.Context, assigneeID uuid.UUID) string {
	assignee, err := s.directory.FindByID(ctx, assigneeID)
	if err != nil {
		// Missing directory rows render without a name rather than failing
		// the whole read.
		return ""
	}
	return assignee.DisplayName
}
