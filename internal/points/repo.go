package points

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
)

// Repository manages the append-only point transaction ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.PointTransaction) error
	FindByIdempotencyKey(ctx context.Context, key string) (*models.PointTransaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, from, to *time.Time, offset, limit int) ([]models.PointTransaction, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transaction *models.PointTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.PointTransaction, error) {
	var transaction models.PointTransaction
	if err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&transaction).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, from, to *time.Time, offset, limit int) ([]models.PointTransaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PointTransaction{}).
		Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []models.PointTransaction
	if err := query.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}
