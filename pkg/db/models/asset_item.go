package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
)

// AssetItem is a single tracked unit belonging to a category. AssignedCount
// mirrors the number of active ledger records for the item; LockVersion is the
// optimistic-concurrency token bumped on every assignment-state write.
// Retirement is a tombstone; rows are never deleted while ledger records
// reference them.
type AssetItem struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID    uuid.UUID            `gorm:"column:category_id;type:uuid;not null;index:ix_asset_items_category"`
	Tag           string               `gorm:"column:tag;not null;uniqueIndex:ux_asset_items_tag"`
	Name          string               `gorm:"column:name;not null"`
	SerialNumber  *string              `gorm:"column:serial_number"`
	Status        enums.AssetStatus    `gorm:"column:status;type:text;not null;default:'available'"`
	Condition     enums.AssetCondition `gorm:"column:condition;type:text;not null;default:'good'"`
	IsOperational bool                 `gorm:"column:is_operational;not null;default:true"`
	AssignedCount int                  `gorm:"column:assigned_count;not null;default:0"`
	LockVersion   int64                `gorm:"column:lock_version;not null;default:0"`
	Notes         *string              `gorm:"column:notes"`
	RetiredAt     *time.Time           `gorm:"column:retired_at"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
