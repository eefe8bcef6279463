package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/internal/points"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

// Order numbers embed a Beijing-time timestamp regardless of server zone.
var orderNoZone = time.FixedZone("UTC+8", 8*60*60)

const orderNoAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pointsLedger interface {
	Earn(ctx context.Context, input points.EarnInput) (*models.PointTransaction, error)
	DeductForRefund(ctx context.Context, input points.RefundDeductInput) (*models.PointTransaction, error)
}

// Service drives the order lifecycle and its points side effects.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Complete(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	Refund(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, input ListInput) (pagination.Page[models.Order], error)
	ListAll(ctx context.Context, input ListAllInput) (pagination.Page[models.Order], error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  pointsLedger
	now     func() time.Time
	randInt func(n int) int
}

// CreateInput captures a new pending order.
type CreateInput struct {
	UserID             uuid.UUID
	Amount             decimal.Decimal
	ProductName        *string
	ProductDescription *string
}

// ListInput pages a member's orders with optional status and date filters.
type ListInput struct {
	UserID uuid.UUID
	Status *enums.OrderStatus
	From   *time.Time
	To     *time.Time
	Page   pagination.Params
}

// ListAllInput pages orders across all users with the same filters.
type ListAllInput struct {
	Status *enums.OrderStatus
	From   *time.Time
	To     *time.Time
	Page   pagination.Params
}

// NewService wires the orders service with persistence and the points ledger.
func NewService(repo Repository, tx txRunner, ledger pointsLedger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("points ledger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ledger,
		now:     time.Now,
		randInt: rand.Intn,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	orderNo, err := s.reserveOrderNo(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNo:            orderNo,
		UserID:             input.UserID,
		Amount:             input.Amount,
		Status:             enums.OrderStatusPending,
		ProductName:        input.ProductName,
		ProductDescription: input.ProductDescription,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

// reserveOrderNo draws candidate numbers until one is free. The keyspace is
// a second-resolution timestamp plus a 4-digit suffix, so a handful of
// attempts is plenty; exhaustion means something is wrong upstream.
func (s *service) reserveOrderNo(ctx context.Context) (string, error) {
	for attempt := 0; attempt < orderNoAttempts; attempt++ {
		candidate := s.generateOrderNo()
		_, err := s.repo.FindByOrderNo(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "order number generation exhausted")
}

func (s *service) generateOrderNo() string {
	ts := s.now().In(orderNoZone).Format("20060102150405")
	suffix := 1000 + s.randInt(9000)
	return fmt.Sprintf("ORD%s%d", ts, suffix)
}

func (s *service) Complete(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and user id required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadOwnedOrder(ctx, repo, orderID, userID)
		if err != nil {
			return err
		}
		if loaded.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be completed in its current state")
		}

		if loaded.Status != enums.OrderStatusCompleted {
			now := s.now().UTC()
			loaded.Status = enums.OrderStatusCompleted
			loaded.CompletedAt = &now
			if loaded.PaidAt == nil {
				loaded.PaidAt = &now
			}
			if err := repo.Save(ctx, loaded); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
			}
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The ledger dedupes by order id, so re-running a completed order is a
	// safe retry path for a previously failed award.
	if _, err := s.ledger.Earn(ctx, points.EarnInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Amount:  order.Amount,
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Refund(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and user id required")
	}

	order, err := s.loadOwnedOrder(ctx, s.repo, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusRefunded {
		return order, nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be refunded")
	}

	// Claw points back before flipping the state: if the state write fails,
	// the order stays completed and a retry hits the ledger's idempotency.
	if order.Status == enums.OrderStatusCompleted {
		earned := int(order.Amount.IntPart())
		if earned > 0 {
			if _, err := s.ledger.DeductForRefund(ctx, points.RefundDeductInput{
				UserID:  order.UserID,
				OrderID: order.ID,
				Points:  earned,
			}); err != nil {
				return nil, err
			}
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadOwnedOrder(ctx, repo, orderID, userID)
		if err != nil {
			return err
		}
		if loaded.Status == enums.OrderStatusRefunded {
			order = loaded
			return nil
		}
		now := s.now().UTC()
		loaded.Status = enums.OrderStatusRefunded
		loaded.RefundedAt = &now
		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and user id required")
	}
	return s.loadOwnedOrder(ctx, s.repo, orderID, userID)
}

func (s *service) List(ctx context.Context, input ListInput) (pagination.Page[models.Order], error) {
	var empty pagination.Page[models.Order]
	if input.UserID == uuid.Nil {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
	}
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted")
	}

	params := input.Page.Normalize()
	filter := ListFilter{
		UserID: input.UserID,
		Status: input.Status,
		From:   input.From,
		To:     input.To,
	}
	orders, total, err := s.repo.List(ctx, filter, params.Offset(), params.Limit())
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.NewPage(orders, total, params), nil
}

// ListAll pages orders across every user for the admin roster.
func (s *service) ListAll(ctx context.Context, input ListAllInput) (pagination.Page[models.Order], error) {
	var empty pagination.Page[models.Order]
	if input.Status != nil && !input.Status.IsValid() {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
	}
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted")
	}

	params := input.Page.Normalize()
	filter := ListFilter{
		Status: input.Status,
		From:   input.From,
		To:     input.To,
	}
	orders, total, err := s.repo.List(ctx, filter, params.Offset(), params.Limit())
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.NewPage(orders, total, params), nil
}

func (s *service) loadOwnedOrder(ctx context.Context, repo Repository, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}
