package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
)

// AssetCategory groups asset items that share an assignment policy. The
// aggregate columns are a derived cache: they are only ever written by a full
// rescan of the category's items, never incremented in place.
type AssetCategory struct {
	ID                       uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name                     string             `gorm:"column:name;not null;uniqueIndex:ux_asset_categories_name"`
	Description              *string            `gorm:"column:description"`
	AssignableTo             enums.AssigneeType `gorm:"column:assignable_to;type:text;not null;default:'employee'"`
	AllowMultipleAssignments bool               `gorm:"column:allow_multiple_assignments;not null;default:false"`
	MaxAssignments           int                `gorm:"column:max_assignments;not null;default:1"`

	TotalItems            int             `gorm:"column:total_items;not null;default:0"`
	AssignedItems         int             `gorm:"column:assigned_items;not null;default:0"`
	UnderMaintenanceItems int             `gorm:"column:under_maintenance_items;not null;default:0"`
	UtilizationRate       decimal.Decimal `gorm:"column:utilization_rate;type:numeric(6,4);not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
