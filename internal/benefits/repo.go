package benefits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
	"github.com/angelmondragon/loyalty-backend/pkg/enums"
)

// Repository manages benefit definitions and their distribution records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBenefit(ctx context.Context, benefit *models.Benefit) error
	FindBenefitByID(ctx context.Context, id uuid.UUID) (*models.Benefit, error)
	ListActiveByLevel(ctx context.Context, level enums.MemberLevel) ([]models.Benefit, error)
	ListBenefits(ctx context.Context, offset, limit int) ([]models.Benefit, int64, error)
	CreateDistribution(ctx context.Context, distribution *models.BenefitDistribution) error
	FindDistribution(ctx context.Context, userID, benefitID uuid.UUID, period string) (*models.BenefitDistribution, error)
	ListUserDistributions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.BenefitDistribution, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a benefits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBenefit(ctx context.Context, benefit *models.Benefit) error {
	return r.db.WithContext(ctx).Create(benefit).Error
}

func (r *repository) FindBenefitByID(ctx context.Context, id uuid.UUID) (*models.Benefit, error) {
	var benefit models.Benefit
	if err := r.db.WithContext(ctx).First(&benefit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &benefit, nil
}

func (r *repository) ListActiveByLevel(ctx context.Context, level enums.MemberLevel) ([]models.Benefit, error) {
	var benefits []models.Benefit
	if err := r.db.WithContext(ctx).
		Where("member_level = ? AND is_active = ?", level, true).
		Order("created_at ASC, id ASC").
		Find(&benefits).Error; err != nil {
		return nil, err
	}
	return benefits, nil
}

func (r *repository) ListBenefits(ctx context.Context, offset, limit int) ([]models.Benefit, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Benefit{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var benefits []models.Benefit
	if err := query.
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&benefits).Error; err != nil {
		return nil, 0, err
	}
	return benefits, total, nil
}

func (r *repository) CreateDistribution(ctx context.Context, distribution *models.BenefitDistribution) error {
	return r.db.WithContext(ctx).Create(distribution).Error
}

func (r *repository) FindDistribution(ctx context.Context, userID, benefitID uuid.UUID, period string) (*models.BenefitDistribution, error) {
	var distribution models.BenefitDistribution
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND benefit_id = ? AND period = ?", userID, benefitID, period).
		First(&distribution).Error; err != nil {
		return nil, err
	}
	return &distribution, nil
}

func (r *repository) ListUserDistributions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.BenefitDistribution, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BenefitDistribution{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var distributions []models.BenefitDistribution
	if err := query.
		Preload("Benefit").
		Order("distributed_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&distributions).Error; err != nil {
		return nil, 0, err
	}
	return distributions, total, nil
}
