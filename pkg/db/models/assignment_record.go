package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
)

// AssignmentRecord is one append-only ledger row covering a single
// assign-to-unassign interval. The condition/department/location columns are
// snapshots taken at assignment time and are never refreshed from live data.
type AssignmentRecord struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	AssetItemID uuid.UUID          `gorm:"column:asset_item_id;type:uuid;not null;index:ix_assignment_records_item"`
	AssigneeID  uuid.UUID          `gorm:"column:assignee_id;type:uuid;not null;index:ix_assignment_records_assignee"`
	EntityType  enums.AssigneeType `gorm:"column:entity_type;type:text;not null"`

	AssignedAt   time.Time  `gorm:"column:assigned_at;not null"`
	UnassignedAt *time.Time `gorm:"column:unassigned_at"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`

	ConditionAtAssignment  enums.AssetCondition `gorm:"column:condition_at_assignment;type:text;not null"`
	DepartmentAtAssignment *string              `gorm:"column:department_at_assignment"`
	LocationAtAssignment   *string              `gorm:"column:location_at_assignment"`
	Notes                  *string              `gorm:"column:notes"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
