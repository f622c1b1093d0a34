package repositories

import (
	"context"
	"time"

	"offertrack/internal/adapters/persistence/models"
)

// OfferRepository defines offer data access. Implementations map
// storage errors to the domain taxonomy (domain.ErrNotFound,
// domain.ErrDuplicateEntry).
type OfferRepository interface {
	// List returns a page of offers ordered by rec_date descending,
	// plus the pre-pagination total. A non-empty search filters by
	// substring match on client, project_name or quo_no.
	List(ctx context.Context, search string, offset, limit int) ([]*models.Offer, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Offer, error)
	// Create inserts the offer and reads the fresh row back inside one
	// transaction, capturing server-assigned defaults.
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	// Update replaces all mutable columns of the row and reads it back
	// inside one transaction.
	Update(ctx context.Context, id uint, offer *models.Offer) (*models.Offer, error)
	Delete(ctx context.Context, id uint) error
	UpdateAttachments(ctx context.Context, id uint, names []string) error

	// LastQuoNo returns the quo_no of the most recently inserted offer
	// matching the SQL LIKE pattern, or "" when none exists.
	LastQuoNo(ctx context.Context, pattern string) (string, error)
	SetQuoNo(ctx context.Context, id uint, quoNo string, quoDate time.Time) error
}

// MemberRepository defines member data access. Members are provisioned
// externally; only the token columns are written here.
type MemberRepository interface {
	GetByLogin(ctx context.Context, usernameOrEmail string) (*models.Member, error)
	GetByToken(ctx context.Context, token string) (*models.Member, error)
	SetToken(ctx context.Context, id uint, token string, issuedAt time.Time) error
}
