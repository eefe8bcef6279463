package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BenefitDistribution records one grant of a benefit to a user for a period.
// The (user, benefit, period) triple is unique; the constraint is the final
// backstop behind the distribution guard.
type BenefitDistribution struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_user_benefit_period;index:idx_distributions_user_expires"`
	BenefitID     uuid.UUID  `gorm:"column:benefit_id;type:uuid;not null;uniqueIndex:uq_user_benefit_period"`
	Period        string     `gorm:"column:period;size:7;not null;uniqueIndex:uq_user_benefit_period"`
	DistributedAt time.Time  `gorm:"column:distributed_at;autoCreateTime"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null;index:idx_distributions_user_expires"`
	IsUsed        bool       `gorm:"column:is_used;not null;default:false"`
	UsedAt        *time.Time `gorm:"column:used_at"`

	Benefit *Benefit `gorm:"foreignKey:BenefitID"`
}

func (d *BenefitDistribution) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
