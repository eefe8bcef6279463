package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/pkg/enums"
)

// Benefit defines a perk configured for a membership tier.
type Benefit struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Description *string           `gorm:"column:description"`
	Type        enums.BenefitType `gorm:"column:benefit_type;type:text;not null"`
	MemberLevel enums.MemberLevel `gorm:"column:member_level;type:text;not null;index"`
	Value       *string           `gorm:"column:value"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Benefit) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
