package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"offertrack/internal/adapters/persistence/models"
	"offertrack/internal/core/domain"
)

// memOfferRepo is an in-memory OfferRepository. It enforces the
// unique index on quo_no the way the database does, so the
// allocator's retry path is exercised.
type memOfferRepo struct {
	mu     sync.Mutex
	nextID uint
	offers map[uint]*models.Offer
}

func newMemOfferRepo() *memOfferRepo {
	return &memOfferRepo{offers: make(map[uint]*models.Offer)}
}

func (r *memOfferRepo) List(ctx context.Context, search string, offset, limit int) ([]*models.Offer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Offer
	needle := strings.ToLower(search)
	for _, offer := range r.offers {
		if search != "" && !offerMatches(offer, needle) {
			continue
		}
		matched = append(matched, copyOffer(offer))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].RecDate.After(matched[j].RecDate.Time)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func offerMatches(offer *models.Offer, needle string) bool {
	if strings.Contains(strings.ToLower(offer.Client), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(offer.ProjectName), needle) {
		return true
	}
	return offer.QuoNo != nil && strings.Contains(strings.ToLower(*offer.QuoNo), needle)
}

func (r *memOfferRepo) GetByID(ctx context.Context, id uint) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	return copyOffer(offer), nil
}

func (r *memOfferRepo) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := copyOffer(offer)
	stored.ID = r.nextID
	if stored.Status == "" {
		stored.Status = models.StatusPending
	}
	r.offers[stored.ID] = stored
	return copyOffer(stored), nil
}

func (r *memOfferRepo) Update(ctx context.Context, id uint, offer *models.Offer) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}

	stored.RecDate = offer.RecDate
	stored.Client = offer.Client
	stored.ProjectName = offer.ProjectName
	stored.Description = offer.Description
	stored.WorkType = offer.WorkType
	stored.QuoDate = offer.QuoDate
	stored.QuoValues = offer.QuoValues
	stored.QuoNo = offer.QuoNo
	stored.Status = offer.Status
	return copyOffer(stored), nil
}

func (r *memOfferRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offers[id]; !ok {
		return domain.ErrOfferNotFound
	}
	delete(r.offers, id)
	return nil
}

func (r *memOfferRepo) UpdateAttachments(ctx context.Context, id uint, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return domain.ErrOfferNotFound
	}
	offer.Attachments = append(models.StringList(nil), names...)
	return nil
}

func (r *memOfferRepo) LastQuoNo(ctx context.Context, pattern string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix, suffix, _ := strings.Cut(pattern, "%")

	var last string
	var lastID uint
	for id, offer := range r.offers {
		if offer.QuoNo == nil {
			continue
		}
		quoNo := *offer.QuoNo
		if !strings.HasPrefix(quoNo, prefix) || !strings.HasSuffix(quoNo, suffix) {
			continue
		}
		if id > lastID {
			lastID = id
			last = quoNo
		}
	}
	return last, nil
}

func (r *memOfferRepo) SetQuoNo(ctx context.Context, id uint, quoNo string, quoDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return domain.ErrOfferNotFound
	}
	for otherID, other := range r.offers {
		if otherID != id && other.QuoNo != nil && *other.QuoNo == quoNo {
			return domain.ErrDuplicateEntry
		}
	}
	offer.QuoNo = &quoNo
	offer.QuoDate = models.NewDate(quoDate)
	return nil
}

func (r *memOfferRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.offers)
}

func copyOffer(offer *models.Offer) *models.Offer {
	clone := *offer
	if offer.QuoNo != nil {
		quoNo := *offer.QuoNo
		clone.QuoNo = &quoNo
	}
	clone.Attachments = append(models.StringList(nil), offer.Attachments...)
	return &clone
}

// memMemberRepo is an in-memory MemberRepository.
type memMemberRepo struct {
	mu      sync.Mutex
	members map[uint]*models.Member
}

func newMemMemberRepo(members ...*models.Member) *memMemberRepo {
	repo := &memMemberRepo{members: make(map[uint]*models.Member)}
	for _, member := range members {
		repo.members[member.ID] = member
	}
	return repo
}

func (r *memMemberRepo) GetByLogin(ctx context.Context, usernameOrEmail string) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, member := range r.members {
		if member.Username == usernameOrEmail || member.Email == usernameOrEmail {
			clone := *member
			return &clone, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (r *memMemberRepo) GetByToken(ctx context.Context, token string) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, member := range r.members {
		if member.Token != nil && *member.Token == token {
			clone := *member
			return &clone, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (r *memMemberRepo) SetToken(ctx context.Context, id uint, token string, issuedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[id]
	if !ok {
		return domain.ErrMemberNotFound
	}
	member.Token = &token
	member.TokenIssuedAt = &issuedAt
	return nil
}
