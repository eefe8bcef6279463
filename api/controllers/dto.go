package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

type userResponse struct {
	ID                uuid.UUID         `json:"id"`
	Email             string            `json:"email"`
	Nickname          *string           `json:"nickname,omitempty"`
	MemberLevel       enums.MemberLevel `json:"member_level"`
	AvailablePoints   int               `json:"available_points"`
	TotalEarnedPoints int               `json:"total_earned_points"`
	IsLocked          bool              `json:"is_locked"`
	LockedAt          *time.Time        `json:"locked_at,omitempty"`
	LockedReason      *string           `json:"locked_reason,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

type balanceResponse struct {
	UserID          uuid.UUID         `json:"user_id"`
	AvailablePoints int               `json:"available_points"`
	TotalEarned     int               `json:"total_earned"`
	MemberLevel     enums.MemberLevel `json:"member_level"`
}

type transactionResponse struct {
	ID           uuid.UUID                    `json:"id"`
	Type         enums.PointTransactionType   `json:"type"`
	Points       int                          `json:"points"`
	BalanceAfter int                          `json:"balance_after"`
	Reason       enums.PointTransactionReason `json:"reason"`
	Description  *string                      `json:"description,omitempty"`
	OrderID      *uuid.UUID                   `json:"order_id,omitempty"`
	CreatedAt    time.Time                    `json:"created_at"`
}

type orderResponse struct {
	ID                 uuid.UUID         `json:"id"`
	OrderNo            string            `json:"order_no"`
	Amount             decimal.Decimal   `json:"amount"`
	Status             enums.OrderStatus `json:"status"`
	ProductName        *string           `json:"product_name,omitempty"`
	ProductDescription *string           `json:"product_description,omitempty"`
	PaidAt             *time.Time        `json:"paid_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	RefundedAt         *time.Time        `json:"refunded_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

type benefitResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Type        enums.BenefitType `json:"type"`
	MemberLevel enums.MemberLevel `json:"member_level"`
	Value       *string           `json:"value,omitempty"`
	IsActive    bool              `json:"is_active"`
}

type distributionResponse struct {
	ID            uuid.UUID        `json:"id"`
	BenefitID     uuid.UUID        `json:"benefit_id"`
	Period        string           `json:"period"`
	DistributedAt time.Time        `json:"distributed_at"`
	ExpiresAt     time.Time        `json:"expires_at"`
	IsUsed        bool             `json:"is_used"`
	UsedAt        *time.Time       `json:"used_at,omitempty"`
	Benefit       *benefitResponse `json:"benefit,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:                u.ID,
		Email:             u.Email,
		Nickname:          u.Nickname,
		MemberLevel:       u.MemberLevel,
		AvailablePoints:   u.AvailablePoints,
		TotalEarnedPoints: u.TotalEarnedPoints,
		IsLocked:          u.IsLocked,
		LockedAt:          u.LockedAt,
		LockedReason:      u.LockedReason,
		CreatedAt:         u.CreatedAt,
	}
}

func toBalanceResponse(u *models.User) balanceResponse {
	return balanceResponse{
		UserID:          u.ID,
		AvailablePoints: u.AvailablePoints,
		TotalEarned:     u.TotalEarnedPoints,
		MemberLevel:     u.MemberLevel,
	}
}

func toTransactionResponse(tx models.PointTransaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		Type:         tx.Type,
		Points:       tx.Points,
		BalanceAfter: tx.BalanceAfter,
		Reason:       tx.Reason,
		Description:  tx.Description,
		OrderID:      tx.OrderID,
		CreatedAt:    tx.CreatedAt,
	}
}

func toOrderResponse(o *models.Order) orderResponse {
	return orderResponse{
		ID:                 o.ID,
		OrderNo:            o.OrderNo,
		Amount:             o.Amount,
		Status:             o.Status,
		ProductName:        o.ProductName,
		ProductDescription: o.ProductDescription,
		PaidAt:             o.PaidAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
		RefundedAt:         o.RefundedAt,
		CreatedAt:          o.CreatedAt,
	}
}

func toBenefitResponse(b models.Benefit) benefitResponse {
	return benefitResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Type:        b.Type,
		MemberLevel: b.MemberLevel,
		Value:       b.Value,
		IsActive:    b.IsActive,
	}
}

func toDistributionResponse(d models.BenefitDistribution) distributionResponse {
	resp := distributionResponse{
		ID:            d.ID,
		BenefitID:     d.BenefitID,
		Period:        d.Period,
		DistributedAt: d.DistributedAt,
		ExpiresAt:     d.ExpiresAt,
		IsUsed:        d.IsUsed,
		UsedAt:        d.UsedAt,
	}
	if d.Benefit != nil {
		benefit := toBenefitResponse(*d.Benefit)
		resp.Benefit = &benefit
	}
	return resp
}

func mapPage[T, R any](page pagination.Page[T], convert func(T) R) pagination.Page[R] {
	items := make([]R, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return pagination.Page[R]{
		Items:      items,
		Total:      page.Total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}
