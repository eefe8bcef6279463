package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/pkg/enums"
)

// PointTransaction is an append-only ledger row. BalanceAfter is the user's
// available balance immediately after the row committed; audit relies on it.
type PointTransaction struct {
	ID             uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID                    `gorm:"column:user_id;type:uuid;not null;index:idx_point_tx_user_created"`
	Type           enums.PointTransactionType   `gorm:"column:transaction_type;type:text;not null"`
	Reason         enums.PointTransactionReason `gorm:"column:reason;type:text;not null"`
	Points         int                          `gorm:"column:points;not null"`
	BalanceAfter   int                          `gorm:"column:balance_after;not null"`
	OrderID        *uuid.UUID                   `gorm:"column:order_id;type:uuid;index"`
	IdempotencyKey *string                      `gorm:"column:idempotency_key;uniqueIndex"`
	Description    *string                      `gorm:"column:description"`
	AdminUserID    *uuid.UUID                   `gorm:"column:admin_user_id;type:uuid"`
	CreatedAt      time.Time                    `gorm:"column:created_at;autoCreateTime;index:idx_point_tx_user_created"`
}

func (p *PointTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
