package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
)

// UserRepository covers users and client profiles.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user inside tx; registration writes the user and its
// client profile in one transaction.
func (r *UserRepository) Create(ctx context.Context, tx *gorm.DB, user *entity.User) error {
	return tx.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Preload("Profile").Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).Preload("Profile").Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns users filtered by role, paginated.
func (r *UserRepository) List(ctx context.Context, page, pageSize int, role string) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Profile").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&users).Error

	return users, total, err
}

func (r *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *UserRepository) CreateProfile(ctx context.Context, tx *gorm.DB, profile *entity.ClientProfile) error {
	return tx.WithContext(ctx).Create(profile).Error
}

// LockProfile loads a client profile with an exclusive row lock inside tx.
// NOWAIT makes contention fail fast instead of queueing; the caller maps the
// lock failure to a retryable error.
func (r *UserRepository) LockProfile(ctx context.Context, tx *gorm.DB, userID string) (*entity.ClientProfile, error) {
	var p entity.ClientProfile
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// AddToBalance applies a signed delta to the locked profile's balance inside tx.
// The arithmetic runs in the database so the stored value is the source of truth.
func (r *UserRepository) AddToBalance(ctx context.Context, tx *gorm.DB, userID string, delta decimal.Decimal) error {
	result := tx.WithContext(ctx).
		Model(&entity.ClientProfile{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
