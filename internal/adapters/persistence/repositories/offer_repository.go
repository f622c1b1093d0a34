package repositories

import (
	"context"
	"errors"
	"time"

	"offertrack/internal/adapters/persistence/models"
	"offertrack/internal/core/domain"

	"gorm.io/gorm"
)

// offerColumns are the mutable columns replaced on every update.
var offerColumns = []string{
	"rec_date", "client", "project_name", "description",
	"work_type", "quo_date", "quo_values", "quo_no", "status",
}

// GormOfferRepository handles offer data access
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// List lists offers ordered by rec_date descending with pagination
func (r *GormOfferRepository) List(ctx context.Context, search string, offset, limit int) ([]*models.Offer, int64, error) {
	var offers []*models.Offer
	var total int64

	filter := func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		like := "%" + search + "%"
		return db.Where(
			"client LIKE ? OR project_name LIKE ? OR quo_no LIKE ?",
			like, like, like,
		)
	}

	if err := filter(r.db.WithContext(ctx).Model(&models.Offer{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := filter(r.db.WithContext(ctx)).
		Order("rec_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&offers).Error

	return offers, total, err
}

// GetByID gets an offer by ID
func (r *GormOfferRepository) GetByID(ctx context.Context, id uint) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).First(&offer, id).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &offer, nil
}

// Create inserts the offer and reads the fresh row back in one transaction
func (r *GormOfferRepository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	var fresh models.Offer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(offer).Error; err != nil {
			return err
		}
		return tx.First(&fresh, offer.ID).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &fresh, nil
}

// Update replaces all mutable columns and reads the row back in one transaction
func (r *GormOfferRepository) Update(ctx context.Context, id uint, offer *models.Offer) (*models.Offer, error) {
	var fresh models.Offer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Offer{}).
			Where("id = ?", id).
			Select(offerColumns).
			Updates(offer)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Distinguish a missing row from a no-op update
			var count int64
			if err := tx.Model(&models.Offer{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrOfferNotFound
			}
		}
		return tx.First(&fresh, id).Error
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &fresh, nil
}

// Delete removes an offer row
func (r *GormOfferRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Offer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOfferNotFound
	}
	return nil
}

// UpdateAttachments persists the reconciled attachment list
func (r *GormOfferRepository) UpdateAttachments(ctx context.Context, id uint, names []string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Update("attachments", models.StringList(names))
	return res.Error
}

// LastQuoNo returns the quo_no of the last inserted offer matching pattern
func (r *GormOfferRepository) LastQuoNo(ctx context.Context, pattern string) (string, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("quo_no LIKE ?", pattern).
		Order("id DESC").
		First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if offer.QuoNo == nil {
		return "", nil
	}
	return *offer.QuoNo, nil
}

// SetQuoNo writes the allocated quotation number and date onto an offer
func (r *GormOfferRepository) SetQuoNo(ctx context.Context, id uint, quoNo string, quoDate time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quo_no":   quoNo,
			"quo_date": models.NewDate(quoDate),
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOfferNotFound
	}
	return nil
}

// mapError translates gorm errors into the domain taxonomy
func mapError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrOfferNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicateEntry
	default:
		return err
	}
}
