package repositories

import (
	"context"
	"errors"
	"time"

	"offertrack/internal/adapters/persistence/models"
	"offertrack/internal/core/domain"

	"gorm.io/gorm"
)

// GormMemberRepository handles member data access
type GormMemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

// GetByLogin looks up a member by username or email
func (r *GormMemberRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", usernameOrEmail, usernameOrEmail).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// GetByToken looks up a member by exact bearer token match
func (r *GormMemberRepository) GetByToken(ctx context.Context, token string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

// SetToken overwrites the member's bearer token, invalidating any prior session
func (r *GormMemberRepository) SetToken(ctx context.Context, id uint, token string, issuedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"token":           token,
			"token_issued_at": issuedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
