package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"offertrack/internal/adapters/persistence/repositories"
	"offertrack/internal/core/domain"
)

const quoNoFormat = "%s-%03d-%s-Rev.0"

// maxAllocateRetries bounds the duplicate-key retry loop.
const maxAllocateRetries = 10

// ErrAllocationConflict is returned when a quotation number could not
// be allocated after retrying on duplicate-key conflicts.
var ErrAllocationConflict = errors.New("quotation number allocation conflict")

// QuotationService allocates sequential quotation numbers per
// (code, year) partition. A naive scan-then-write would hand the same
// number to two concurrent callers, so allocation is serialized with a
// per-partition lock and backed by the unique index on quo_no: a
// duplicate-key write re-reads and retries with the next sequence.
type QuotationService struct {
	offers repositories.OfferRepository
	locks  *keyedMutex
	now    func() time.Time
}

// NewQuotationService creates a new quotation service
func NewQuotationService(offers repositories.OfferRepository) *QuotationService {
	return &QuotationService{
		offers: offers,
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
}

// Allocate assigns the next quotation number for code in the current
// year to the offer, writing quo_no and quo_date onto it. The sequence
// continues from the most recently inserted matching offer (last
// insert wins, not the numeric maximum) and starts at 001 for an
// unused partition.
func (s *QuotationService) Allocate(ctx context.Context, code string, offerID uint) (string, error) {
	code = strings.TrimSpace(code)

	verr := domain.NewValidationError()
	if code == "" {
		verr.Add("code", "code is required.")
	} else if strings.Contains(code, "-") {
		// "-" is the quo_no segment separator; a hyphenated code would
		// make parseSequence read the wrong segment.
		verr.Add("code", "code must not contain '-'.")
	}
	if offerID == 0 {
		verr.Add("id", "id is required.")
	}
	if verr.HasErrors() {
		return "", verr
	}

	year := s.now().Format("2006")
	unlock := s.locks.lock(code + "-" + year)
	defer unlock()

	pattern := code + "-%-" + year + "-Rev.0"

	for attempt := 0; attempt < maxAllocateRetries; attempt++ {
		last, err := s.offers.LastQuoNo(ctx, pattern)
		if err != nil {
			return "", err
		}

		quoNo := fmt.Sprintf(quoNoFormat, code, parseSequence(last)+1, year)

		err = s.offers.SetQuoNo(ctx, offerID, quoNo, s.now())
		if errors.Is(err, domain.ErrDuplicateEntry) {
			// Another writer (or another process) took this number
			// between our read and write. Re-read and try the next one.
			continue
		}
		if err != nil {
			return "", err
		}
		return quoNo, nil
	}

	return "", ErrAllocationConflict
}

// parseSequence extracts the 3-digit sequence segment of a quotation
// number. Missing or malformed numbers parse as 0 so the next
// allocation starts at 1.
func parseSequence(quoNo string) int {
	parts := strings.Split(quoNo, "-")
	if len(parts) < 2 {
		return 0
	}
	seq, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return seq
}
