package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
)

// AssetAssignedEvent is emitted when an item gains an active assignment.
type AssetAssignedEvent struct {
	AssetItemID        uuid.UUID            `json:"asset_item_id"`
	CategoryID         uuid.UUID            `json:"category_id"`
	AssigneeID         uuid.UUID            `json:"assignee_id"`
	EntityType         enums.AssigneeType   `json:"entity_type"`
	AssignmentRecordID uuid.UUID            `json:"assignment_record_id"`
	Condition          enums.AssetCondition `json:"condition"`
	AssignedAt         time.Time            `json:"assigned_at"`
}

// AssetUnassignedEvent is emitted when an active assignment is closed.
type AssetUnassignedEvent struct {
	AssetItemID        uuid.UUID          `json:"asset_item_id"`
	CategoryID         uuid.UUID          `json:"category_id"`
	AssigneeID         uuid.UUID          `json:"assignee_id"`
	EntityType         enums.AssigneeType `json:"entity_type"`
	AssignmentRecordID uuid.UUID          `json:"assignment_record_id"`
	UnassignedAt       time.Time          `json:"unassigned_at"`
}

// AssetReassignedEvent is emitted when an item moves between assignees in one
// operation.
type AssetReassignedEvent struct {
	AssetItemID    uuid.UUID `json:"asset_item_id"`
	CategoryID     uuid.UUID `json:"category_id"`
	FromAssigneeID uuid.UUID `json:"from_assignee_id"`
	ToAssigneeID   uuid.UUID `json:"to_assignee_id"`
	ReassignedAt   time.Time `json:"reassigned_at"`
}

// AssetStateChangedEvent reports a lifecycle transition outside the
// assignment flow (maintenance, retirement, return to service).
type AssetStateChangedEvent struct {
	AssetItemID uuid.UUID         `json:"asset_item_id"`
	CategoryID  uuid.UUID         `json:"category_id"`
	FromStatus  enums.AssetStatus `json:"from_status"`
	ToStatus    enums.AssetStatus `json:"to_status"`
	ChangedAt   time.Time         `json:"changed_at"`
}
