package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/pkg/enums"
)

// User holds the member profile and the mutable point balance. The balance
// columns are only ever written through the points service.
type User struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Email             string            `gorm:"column:email;uniqueIndex;not null"`
	Nickname          *string           `gorm:"column:nickname"`
	MemberLevel       enums.MemberLevel `gorm:"column:member_level;type:text;not null;default:'bronze';index"`
	AvailablePoints   int               `gorm:"column:available_points;not null;default:0"`
	TotalEarnedPoints int               `gorm:"column:total_earned_points;not null;default:0"`
	IsLocked          bool              `gorm:"column:is_locked;not null;default:false"`
	LockedAt          *time.Time        `gorm:"column:locked_at"`
	LockedReason      *string           `gorm:"column:locked_reason"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
