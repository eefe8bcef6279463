package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loyalty-backend/pkg/db/models"
)

// Repository exposes member persistence including the guarded balance
// mutations the points service relies on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, offset, limit int) ([]models.User, int64, error)
	ListActive(ctx context.Context, offset, limit int) ([]models.User, error)
	CountActive(ctx context.Context) (int64, error)
	SetLock(ctx context.Context, id uuid.UUID, locked bool, at *time.Time, reason *string) (bool, error)
	CreditPoints(ctx context.Context, id uuid.UUID, points int) error
	DebitPoints(ctx context.Context, id uuid.UUID, points int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List pages all members, newest first, for the admin roster.
func (r *repository) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListActive pages through unlocked members in creation order. The worker
// walks the full set batch by batch, so the ordering must be stable.
func (r *repository) ListActive(ctx context.Context, offset, limit int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("is_locked = ?", false).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_locked = ?", false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SetLock writes the full lock triplet in one update so a lock always
// carries its timestamp and reason, and an unlock clears all three. The
// boolean reports whether the user row exists.
func (r *repository) SetLock(ctx context.Context, id uuid.UUID, locked bool, at *time.Time, reason *string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_locked":     locked,
			"locked_at":     at,
			"locked_reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreditPoints adds points to both the available balance and the lifetime
// earned total in a single guarded update.
func (r *repository) CreditPoints(ctx context.Context, id uuid.UUID, points int) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"available_points":    gorm.Expr("available_points + ?", points),
			"total_earned_points": gorm.Expr("total_earned_points + ?", points),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DebitPoints subtracts points from the available balance without touching
// the lifetime earned total. The balance condition makes the update a no-op
// when funds are insufficient; the boolean reports whether it applied.
func (r *repository) DebitPoints(ctx context.Context, id uuid.UUID, points int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND available_points >= ?", id, points).
		Updates(map[string]any{
			"available_points": gorm.Expr("available_points - ?", points),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
