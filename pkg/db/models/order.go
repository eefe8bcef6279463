package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/pkg/enums"
)

// Order is created in pending state and only ever mutated through the
// lifecycle transitions in the orders service. Rows are never deleted.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNo            string            `gorm:"column:order_no;uniqueIndex;not null"`
	UserID             uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:idx_orders_user_created"`
	Amount             decimal.Decimal   `gorm:"column:amount;type:numeric(10,2);not null"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	ProductName        *string           `gorm:"column:product_name"`
	ProductDescription *string           `gorm:"column:product_description"`
	PaidAt             *time.Time        `gorm:"column:paid_at"`
	CompletedAt        *time.Time        `gorm:"column:completed_at"`
	CancelledAt        *time.Time        `gorm:"column:cancelled_at"`
	RefundedAt         *time.Time        `gorm:"column:refunded_at"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime;index:idx_orders_user_created"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
