package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/internal/views"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/pagination"
)

type assetItemResponse struct {
	ID            uuid.UUID            `json:"id"`
	CategoryID    uuid.UUID            `json:"category_id"`
	Tag           string               `json:"tag"`
	Name          string               `json:"name"`
	SerialNumber  *string              `json:"serial_number,omitempty"`
	Status        enums.AssetStatus    `json:"status"`
	Condition     enums.AssetCondition `json:"condition"`
	IsOperational bool                 `json:"is_operational"`
	AssignedCount int                  `json:"assigned_count"`
	Notes         *string              `json:"notes,omitempty"`
	RetiredAt     *time.Time           `json:"retired_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func toAssetItemResponse(item *models.AssetItem) assetItemResponse {
	return assetItemResponse{
		ID:            item.ID,
		CategoryID:    item.CategoryID,
		Tag:           item.Tag,
		Name:          item.Name,
		SerialNumber:  item.SerialNumber,
		Status:        item.Status,
		Condition:     item.Condition,
		IsOperational: item.IsOperational,
		AssignedCount: item.AssignedCount,
		Notes:         item.Notes,
		RetiredAt:     item.RetiredAt,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

type assetItemListResponse struct {
	Items      []assetItemResponse `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func toAssetItemListResponse(items []models.AssetItem, limit int) assetItemListResponse {
	normalized := pagination.NormalizeLimit(limit)
	next := ""
	if len(items) > normalized {
		items = items[:normalized]
		last := items[len(items)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]assetItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toAssetItemResponse(&items[i]))
	}
	return assetItemListResponse{Items: out, NextCursor: next}
}

type categoryResponse struct {
	ID                       uuid.UUID          `json:"id"`
	Name                     string             `json:"name"`
	Description              *string            `json:"description,omitempty"`
	AssignableTo             enums.AssigneeType `json:"assignable_to"`
	AllowMultipleAssignments bool               `json:"allow_multiple_assignments"`
	MaxAssignments           int                `json:"max_assignments"`
	TotalItems               int                `json:"total_items"`
	AssignedItems            int                `json:"assigned_items"`
	UnderMaintenanceItems    int                `json:"under_maintenance_items"`
	UtilizationRate          decimal.Decimal    `json:"utilization_rate"`
	CreatedAt                time.Time          `json:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at"`
}

func toCategoryResponse(category *models.AssetCategory) categoryResponse {
	return categoryResponse{
		ID:                       category.ID,
		Name:                     category.Name,
		Description:              category.Description,
		AssignableTo:             category.AssignableTo,
		AllowMultipleAssignments: category.AllowMultipleAssignments,
		MaxAssignments:           category.MaxAssignments,
		TotalItems:               category.TotalItems,
		AssignedItems:            category.AssignedItems,
		UnderMaintenanceItems:    category.UnderMaintenanceItems,
		UtilizationRate:          category.UtilizationRate,
		CreatedAt:                category.CreatedAt,
		UpdatedAt:                category.UpdatedAt,
	}
}

type categoryListResponse struct {
	Categories []categoryResponse `json:"categories"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func toCategoryListResponse(categories []models.AssetCategory, limit int) categoryListResponse {
	normalized := pagination.NormalizeLimit(limit)
	next := ""
	if len(categories) > normalized {
		categories = categories[:normalized]
		last := categories[len(categories)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	return categoryListResponse{Categories: out, NextCursor: next}
}

type assigneeResponse struct {
	ID          uuid.UUID          `json:"id"`
	DisplayName string             `json:"display_name"`
	EntityType  enums.AssigneeType `json:"entity_type"`
	Email       *string            `json:"email,omitempty"`
	Department  *string            `json:"department,omitempty"`
	Location    *string            `json:"location,omitempty"`
	Active      bool               `json:"active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func toAssigneeResponse(assignee *models.Assignee) assigneeResponse {
	return assigneeResponse{
		ID:          assignee.ID,
		DisplayName: assignee.DisplayName,
		EntityType:  assignee.EntityType,
		Email:       assignee.Email,
		Department:  assignee.Department,
		Location:    assignee.Location,
		Active:      assignee.Active,
		CreatedAt:   assignee.CreatedAt,
		UpdatedAt:   assignee.UpdatedAt,
	}
}

type assigneeListResponse struct {
	Assignees  []assigneeResponse `json:"assignees"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func toAssigneeListResponse(assignees []models.Assignee, limit int) assigneeListResponse {
	normalized := pagination.NormalizeLimit(limit)
	next := ""
	if len(assignees) > normalized {
		assignees = assignees[:normalized]
		last := assignees[len(assignees)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]assigneeResponse, 0, len(assignees))
	for i := range assignees {
		out = append(out, toAssigneeResponse(&assignees[i]))
	}
	return assigneeListResponse{Assignees: out, NextCursor: next}
}

type assignmentRecordResponse struct {
	ID                     uuid.UUID            `json:"id"`
	AssetItemID            uuid.UUID            `json:"asset_item_id"`
	AssigneeID             uuid.UUID            `json:"assignee_id"`
	EntityType             enums.AssigneeType   `json:"entity_type"`
	AssignedAt             time.Time            `json:"assigned_at"`
	UnassignedAt           *time.Time           `json:"unassigned_at,omitempty"`
	IsActive               bool                 `json:"is_active"`
	ConditionAtAssignment  enums.AssetCondition `json:"condition_at_assignment"`
	DepartmentAtAssignment *string              `json:"department_at_assignment,omitempty"`
	LocationAtAssignment   *string              `json:"location_at_assignment,omitempty"`
	Notes                  *string              `json:"notes,omitempty"`
	CreatedAt              time.Time            `json:"created_at"`
}

func toAssignmentRecordResponse(record *models.AssignmentRecord) assignmentRecordResponse {
	return assignmentRecordResponse{
		ID:                     record.ID,
		AssetItemID:            record.AssetItemID,
		AssigneeID:             record.AssigneeID,
		EntityType:             record.EntityType,
		AssignedAt:             record.AssignedAt,
		UnassignedAt:           record.UnassignedAt,
		IsActive:               record.IsActive,
		ConditionAtAssignment:  record.ConditionAtAssignment,
		DepartmentAtAssignment: record.DepartmentAtAssignment,
		LocationAtAssignment:   record.LocationAtAssignment,
		Notes:                  record.Notes,
		CreatedAt:              record.CreatedAt,
	}
}

// assignmentResultResponse pairs the post-transition item with the ledger
// record the transition opened or closed. Record is nil for lifecycle moves
// that touch no ledger row.
type assignmentResultResponse struct {
	Item   assetItemResponse         `json:"item"`
	Record *assignmentRecordResponse `json:"record,omitempty"`
}

type historyEntryResponse struct {
	Record      assignmentRecordResponse `json:"record"`
	DisplayName string                   `json:"display_name"`
}

type historyResponse struct {
	Entries    []historyEntryResponse `json:"entries"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

func toHistoryResponse(entries []views.HistoryEntry, limit int) historyResponse {
	normalized := pagination.NormalizeLimit(limit)
	next := ""
	if len(entries) > normalized {
		entries = entries[:normalized]
		last := entries[len(entries)-1].Record
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]historyEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, historyEntryResponse{
			Record:      toAssignmentRecordResponse(&entries[i].Record),
			DisplayName: entries[i].DisplayName,
		})
	}
	return historyResponse{Entries: out, NextCursor: next}
}
