package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
)

// Assignee is a directory entity (employee or department) assets can be
// assigned to. The assignment engine only reads this table; identity itself is
// owned by the upstream directory.
type Assignee struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	DisplayName string             `gorm:"column:display_name;not null"`
	EntityType  enums.AssigneeType `gorm:"column:entity_type;type:text;not null"`
	Email       *string            `gorm:"column:email"`
	Department  *string            `gorm:"column:department"`
	Location    *string            `gorm:"column:location"`
	Active      bool               `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
