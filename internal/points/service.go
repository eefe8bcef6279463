package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/internal/users"
	"github.com/angelmondragon/loyalty-backend/pkg/audit"
	"github.com/angelmondragon/loyalty-backend/pkg/db"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/lock"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

const (
	earnKeyPrefix   = "order_points:"
	refundKeyPrefix = "refund_points:"

	earnDescription   = "order completion reward"
	refundDescription = "order refund deduction"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type keyBuilder interface {
	IdempotencyKey(id string) string
}

// Service defines the balance-changing ledger operations. Every write lands
// as one point_transactions row plus one guarded balance update in the same
// transaction.
type Service interface {
	Earn(ctx context.Context, input EarnInput) (*models.PointTransaction, error)
	DeductForRefund(ctx context.Context, input RefundDeductInput) (*models.PointTransaction, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.PointTransaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ListTransactions(ctx context.Context, input ListTransactionsInput) (pagination.Page[models.PointTransaction], error)
}

type service struct {
	repo  Repository
	users users.Repository
	tx    txRunner
	guard *lock.Guard
	keys  keyBuilder
	audit audit.Recorder
}

// EarnInput awards points for a completed order. One currency unit earns
// one point; fractions are dropped.
type EarnInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Amount  decimal.Decimal
}

// RefundDeductInput claws back points previously earned on an order.
type RefundDeductInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Points  int
}

// AdjustInput applies a manual balance correction by an administrator.
type AdjustInput struct {
	UserID      uuid.UUID
	Delta       int
	Reason      string
	AdminUserID uuid.UUID
}

// ListTransactionsInput pages a member's ledger history with optional
// created_at bounds.
type ListTransactionsInput struct {
	UserID uuid.UUID
	From   *time.Time
	To     *time.Time
	Page   pagination.Params
}

// NewService wires the points service with its persistence and coordination
// dependencies.
func NewService(repo Repository, usersRepo users.Repository, tx txRunner, guard *lock.Guard, keys keyBuilder, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("points repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if keys == nil {
		return nil, fmt.Errorf("key builder required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:  repo,
		users: usersRepo,
		tx:    tx,
		guard: guard,
		keys:  keys,
		audit: recorder,
	}, nil
}

func (s *service) Earn(ctx context.Context, input EarnInput) (*models.PointTransaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	points := int(input.Amount.IntPart())
	idemKey := earnKeyPrefix + input.OrderID.String()

	return s.recordIdempotent(ctx, idemKey, func(user *models.User, key string) *models.PointTransaction {
		description := earnDescription
		return &models.PointTransaction{
			UserID:         input.UserID,
			Type:           enums.PointTransactionTypeEarn,
			Reason:         enums.PointTransactionReasonOrderComplete,
			Points:         points,
			BalanceAfter:   user.AvailablePoints,
			OrderID:        &input.OrderID,
			IdempotencyKey: &key,
			Description:    &description,
		}
	}, func(ctx context.Context, repo users.Repository) error {
		return s.creditUser(ctx, repo, input.UserID, points)
	}, input.UserID)
}

func (s *service) DeductForRefund(ctx context.Context, input RefundDeductInput) (*models.PointTransaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}

	idemKey := refundKeyPrefix + input.OrderID.String()

	return s.recordIdempotent(ctx, idemKey, func(user *models.User, key string) *models.PointTransaction {
		description := refundDescription
		return &models.PointTransaction{
			UserID:         input.UserID,
			Type:           enums.PointTransactionTypeDeduct,
			Reason:         enums.PointTransactionReasonOrderRefund,
			Points:         -input.Points,
			BalanceAfter:   user.AvailablePoints,
			OrderID:        &input.OrderID,
			IdempotencyKey: &key,
			Description:    &description,
		}
	}, func(ctx context.Context, repo users.Repository) error {
		return s.debitUser(ctx, repo, input.UserID, input.Points)
	}, input.UserID)
}

// recordIdempotent runs one guarded, idempotent balance mutation. The ledger
// lookup before the guard is a fast path; the lookup inside the transaction
// is the correctness backstop once the guard is held.
func (s *service) recordIdempotent(
	ctx context.Context,
	idemKey string,
	buildRow func(user *models.User, key string) *models.PointTransaction,
	mutate func(ctx context.Context, repo users.Repository) error,
	userID uuid.UUID,
) (*models.PointTransaction, error) {
	if existing, err := s.findRecorded(ctx, s.repo, idemKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	guardKey := s.keys.IdempotencyKey(idemKey)
	held, err := s.guard.Acquire(ctx, guardKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire idempotency guard")
	}
	if !held {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "operation already in progress")
	}
	defer func() {
		_ = s.guard.Release(ctx, guardKey)
	}()

	var result *models.PointTransaction
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		usersRepo := s.users.WithTx(tx)

		existing, err := s.findRecorded(ctx, repo, idemKey)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		if err := mutate(ctx, usersRepo); err != nil {
			return err
		}

		user, err := usersRepo.FindByID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user balance")
		}

		row := buildRow(user, idemKey)
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		result = row
		return nil
	})
	if err != nil {
		// A concurrent writer slipped past the guard; its row wins.
		if db.IsUniqueViolation(err, "idempotency_key") {
			if existing, lookupErr := s.findRecorded(ctx, s.repo, idemKey); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return result, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.PointTransaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.AdminUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	var result *models.PointTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		usersRepo := s.users.WithTx(tx)

		if input.Delta > 0 {
			if err := s.creditUser(ctx, usersRepo, input.UserID, input.Delta); err != nil {
				return err
			}
		} else {
			if err := s.debitUser(ctx, usersRepo, input.UserID, -input.Delta); err != nil {
				return err
			}
		}

		user, err := usersRepo.FindByID(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user balance")
		}

		description := input.Reason
		row := &models.PointTransaction{
			UserID:       input.UserID,
			Type:         enums.PointTransactionTypeAdjust,
			Reason:       enums.PointTransactionReasonAdminAdjust,
			Points:       input.Delta,
			BalanceAfter: user.AvailablePoints,
			Description:  &description,
			AdminUserID:  &input.AdminUserID,
		}
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record point transaction")
		}
		result = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:      "points.adjust",
		AdminUserID: input.AdminUserID.String(),
		UserID:      input.UserID.String(),
		Detail: map[string]any{
			"delta":         input.Delta,
			"reason":        input.Reason,
			"balance_after": result.BalanceAfter,
		},
	})
	return result, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) ListTransactions(ctx context.Context, input ListTransactionsInput) (pagination.Page[models.PointTransaction], error) {
	var empty pagination.Page[models.PointTransaction]
	if input.UserID == uuid.Nil {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, "date range is inverted")
	}

	params := input.Page.Normalize()
	transactions, total, err := s.repo.ListByUser(ctx, input.UserID, input.From, input.To, params.Offset(), params.Limit())
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list point transactions")
	}
	return pagination.NewPage(transactions, total, params), nil
}

func (s *service) creditUser(ctx context.Context, repo users.Repository, userID uuid.UUID, points int) error {
	if err := repo.CreditPoints(ctx, userID, points); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit points")
	}
	return nil
}

func (s *service) debitUser(ctx context.Context, repo users.Repository, userID uuid.UUID, points int) error {
	if _, err := repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	applied, err := repo.DebitPoints(ctx, userID, points)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit points")
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "available points are insufficient")
	}
	return nil
}

func (s *service) findRecorded(ctx context.Context, repo Repository, idemKey string) (*models.PointTransaction, error) {
	existing, err := repo.FindByIdempotencyKey(ctx, idemKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup idempotency key")
	}
	return existing, nil
}
