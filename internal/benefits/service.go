package benefits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/internal/users"
	"github.com/angelmondragon/loyalty-backend/pkg/db"
	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loyalty-backend/pkg/errors"
	"github.com/angelmondragon/loyalty-backend/pkg/lock"
	"github.com/angelmondragon/loyalty-backend/pkg/pagination"
)

const periodLayout = "2006-01"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type keyBuilder interface {
	LockKey(parts ...string) string
}

// Service grants tier benefits to members, once per benefit per period.
type Service interface {
	Distribute(ctx context.Context, userID, benefitID uuid.UUID, period string) (*models.BenefitDistribution, error)
	DistributeMonthly(ctx context.Context, userID uuid.UUID, period string) (MonthlyGrant, error)
	CreateBenefit(ctx context.Context, input CreateBenefitInput) (*models.Benefit, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Benefit, error)
	ListBenefits(ctx context.Context, page pagination.Params) (pagination.Page[models.Benefit], error)
	UserDistributions(ctx context.Context, userID uuid.UUID, page pagination.Params) (pagination.Page[models.BenefitDistribution], error)
}

type service struct {
	repo  Repository
	users users.Repository
	tx    txRunner
	guard *lock.Guard
	keys  keyBuilder
}

// MonthlyGrant reports one user's monthly distribution run: the records
// created plus the number of tier benefits skipped because the user already
// held them for the period.
type MonthlyGrant struct {
	Distributions []models.BenefitDistribution
	Skipped       int
}

// CreateBenefitInput defines a new benefit for a membership tier.
type CreateBenefitInput struct {
	Name        string
	Description *string
	Type        enums.BenefitType
	MemberLevel enums.MemberLevel
	Value       *string
}

// NewService wires the benefits service with its persistence and
// coordination dependencies.
func NewService(repo Repository, usersRepo users.Repository, tx txRunner, guard *lock.Guard, keys keyBuilder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("benefits repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if guard == nil {
		return nil, fmt.Errorf("distribution guard required")
	}
	if keys == nil {
		return nil, fmt.Errorf("key builder required")
	}
	return &service{
		repo:  repo,
		users: usersRepo,
		tx:    tx,
		guard: guard,
		keys:  keys,
	}, nil
}

// PeriodOf formats a point in time as the distribution period it falls in.
func PeriodOf(t time.Time) string {
	return t.UTC().Format(periodLayout)
}

// Distribute grants one benefit to one user for one period. Contention on
// the guard and an existing record are both reported as a conflict; the
// unique index on (user, benefit, period) is the final backstop.
func (s *service) Distribute(ctx context.Context, userID, benefitID uuid.UUID, period string) (*models.BenefitDistribution, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if benefitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "benefit id required")
	}
	expiresAt, err := periodEnd(period)
	if err != nil {
		return nil, err
	}

	lockKey := s.keys.LockKey("benefit", userID.String(), benefitID.String(), period)
	held, err := s.guard.Acquire(ctx, lockKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire distribution guard")
	}
	if !held {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "benefit already distributed")
	}
	defer func() {
		_ = s.guard.Release(ctx, lockKey)
	}()

	var result *models.BenefitDistribution
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindDistribution(ctx, userID, benefitID, period); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "benefit already distributed")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup distribution")
		}

		if _, err := repo.FindBenefitByID(ctx, benefitID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "benefit not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load benefit")
		}

		distribution := &models.BenefitDistribution{
			UserID:    userID,
			BenefitID: benefitID,
			Period:    period,
			ExpiresAt: expiresAt,
		}
		if err := repo.CreateDistribution(ctx, distribution); err != nil {
			return err
		}
		result = distribution
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "uq_user_benefit_period") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "benefit already distributed")
		}
		return nil, err
	}
	return result, nil
}

// DistributeMonthly grants every active benefit of the user's tier for the
// period. Benefits already granted are skipped, not failed, so the monthly
// run can be replayed safely.
func (s *service) DistributeMonthly(ctx context.Context, userID uuid.UUID, period string) (MonthlyGrant, error) {
	var grant MonthlyGrant
	if userID == uuid.Nil {
		return grant, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if _, err := periodEnd(period); err != nil {
		return grant, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return grant, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return grant, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	candidates, err := s.repo.ListActiveByLevel(ctx, user.MemberLevel)
	if err != nil {
		return grant, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list benefits for level")
	}

	grant.Distributions = make([]models.BenefitDistribution, 0, len(candidates))
	for _, benefit := range candidates {
		distribution, err := s.Distribute(ctx, userID, benefit.ID, period)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
				grant.Skipped++
				continue
			}
			return MonthlyGrant{}, err
		}
		grant.Distributions = append(grant.Distributions, *distribution)
	}
	return grant, nil
}

func (s *service) CreateBenefit(ctx context.Context, input CreateBenefitInput) (*models.Benefit, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid benefit type %q", input.Type))
	}
	if !input.MemberLevel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid member level %q", input.MemberLevel))
	}

	benefit := &models.Benefit{
		Name:        input.Name,
		Description: input.Description,
		Type:        input.Type,
		MemberLevel: input.MemberLevel,
		Value:       input.Value,
		IsActive:    true,
	}
	if err := s.repo.CreateBenefit(ctx, benefit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create benefit")
	}
	return benefit, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Benefit, error) {
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
	benefits, err := s.repo.ListActiveByLevel(ctx, user.MemberLevel)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list benefits for level")
	}
	return benefits, nil
}

func (s *service) ListBenefits(ctx context.Context, page pagination.Params) (pagination.Page[models.Benefit], error) {
	var empty pagination.Page[models.Benefit]
	params := page.Normalize()
	benefits, total, err := s.repo.ListBenefits(ctx, params.Offset(), params.Limit())
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list benefits")
	}
	return pagination.NewPage(benefits, total, params), nil
}

func (s *service) UserDistributions(ctx context.Context, userID uuid.UUID, page pagination.Params) (pagination.Page[models.BenefitDistribution], error) {
	var empty pagination.Page[models.BenefitDistribution]
	if userID == uuid.Nil {
		return empty, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	params := page.Normalize()
	distributions, total, err := s.repo.ListUserDistributions(ctx, userID, params.Offset(), params.Limit())
	if err != nil {
		return empty, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user distributions")
	}
	return pagination.NewPage(distributions, total, params), nil
}

// periodEnd validates the "YYYY-MM" period and returns the last second of
// that month in UTC.
func periodEnd(period string) (time.Time, error) {
	start, err := time.Parse(periodLayout, period)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid period %q, want YYYY-MM", period))
	}
	return start.AddDate(0, 1, 0).Add(-time.Second), nil
}
