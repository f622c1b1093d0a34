package services

import (
	"context"
	"log"
	"strings"

	"offertrack/internal/adapters/persistence/models"
	"offertrack/internal/adapters/persistence/repositories"
	"offertrack/internal/core/domain"
)

// OfferInput is the offer payload sent by clients (the "offer" form
// field on multipart requests). Dates are YYYY-MM-DD strings.
type OfferInput struct {
	RecDate     string   `json:"rec_date"`
	Client      string   `json:"client"`
	ProjectName string   `json:"project_name"`
	Description string   `json:"description"`
	WorkType    string   `json:"work_type"`
	QuoDate     string   `json:"quo_date"`
	QuoValues   string   `json:"quo_values"`
	QuoNo       string   `json:"quo_no"`
	Status      string   `json:"status"`
	Documents   []string `json:"documents"`
}

// OfferResult is the outcome of a create or update, including any
// uploads that failed to store.
type OfferResult struct {
	Offer         *models.Offer
	FailedUploads []string
}

// OfferService handles offer business logic
type OfferService struct {
	offers      repositories.OfferRepository
	attachments *AttachmentService
}

// NewOfferService creates a new offer service
func NewOfferService(offers repositories.OfferRepository, attachments *AttachmentService) *OfferService {
	return &OfferService{
		offers:      offers,
		attachments: attachments,
	}
}

// List returns a page of offers plus the pre-pagination total.
func (s *OfferService) List(ctx context.Context, search string, offset, limit int) ([]*models.Offer, int64, error) {
	return s.offers.List(ctx, strings.TrimSpace(search), offset, limit)
}

// Get returns one offer by id.
func (s *OfferService) Get(ctx context.Context, id uint) (*models.Offer, error) {
	return s.offers.GetByID(ctx, id)
}

// Create validates the input, persists the offer and stores any
// uploaded files. Validation happens before anything is written.
func (s *OfferService) Create(ctx context.Context, input *OfferInput, uploads []Upload) (*OfferResult, error) {
	offer, err := buildOffer(input)
	if err != nil {
		return nil, err
	}

	created, err := s.offers.Create(ctx, offer)
	if err != nil {
		return nil, err
	}

	result := &OfferResult{Offer: created}
	if len(uploads) == 0 {
		return result, nil
	}

	// No prior files on a fresh offer, so reconciliation degenerates
	// to storing the uploads.
	final, failed, err := s.attachments.Reconcile(ctx, created.ID, nil, uploads)
	if err != nil {
		// The row already committed; a filesystem failure downgrades
		// to reporting every upload as failed.
		log.Printf("attachment reconciliation failed (offer %d): %v", created.ID, err)
		result.FailedUploads = uploadNames(uploads)
		return result, nil
	}
	if err := s.offers.UpdateAttachments(ctx, created.ID, final); err != nil {
		return nil, err
	}

	created.Attachments = final
	result.FailedUploads = failed
	return result, nil
}

// Update validates the input, replaces all mutable columns and
// reconciles the offer's attachments against input.Documents plus the
// uploads. Returns domain.ErrOfferNotFound for an unknown id.
func (s *OfferService) Update(ctx context.Context, id uint, input *OfferInput, uploads []Upload) (*OfferResult, error) {
	offer, err := buildOffer(input)
	if err != nil {
		return nil, err
	}

	updated, err := s.offers.Update(ctx, id, offer)
	if err != nil {
		return nil, err
	}

	final, failed, err := s.attachments.Reconcile(ctx, id, input.Documents, uploads)
	if err != nil {
		// The row already committed; a filesystem failure downgrades
		// to reporting every upload as failed. The stored attachment
		// list keeps its previous value.
		log.Printf("attachment reconciliation failed (offer %d): %v", id, err)
		return &OfferResult{Offer: updated, FailedUploads: uploadNames(uploads)}, nil
	}
	if err := s.offers.UpdateAttachments(ctx, id, final); err != nil {
		return nil, err
	}

	updated.Attachments = final
	return &OfferResult{Offer: updated, FailedUploads: failed}, nil
}

// Delete removes the offer row and best-effort removes its attachment
// directory. A failed directory cleanup is logged, not surfaced.
func (s *OfferService) Delete(ctx context.Context, id uint) error {
	if err := s.offers.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.attachments.RemoveAll(id); err != nil {
		log.Printf("attachment cleanup failed (offer %d): %v", id, err)
	}
	return nil
}

// buildOffer validates the input and maps it onto a model. Required
// fields must be non-blank after trimming; dates must be YYYY-MM-DD;
// work_type and status must belong to their enumerations.
func buildOffer(input *OfferInput) (*models.Offer, error) {
	verr := domain.NewValidationError()

	client := strings.TrimSpace(input.Client)
	projectName := strings.TrimSpace(input.ProjectName)
	workType := strings.TrimSpace(input.WorkType)
	recDateRaw := strings.TrimSpace(input.RecDate)
	status := strings.TrimSpace(input.Status)

	if client == "" {
		verr.Add("client", "client is required.")
	}
	if projectName == "" {
		verr.Add("project_name", "project_name is required.")
	}
	if recDateRaw == "" {
		verr.Add("rec_date", "rec_date is required.")
	}
	if workType == "" {
		verr.Add("work_type", "work_type is required.")
	} else if !contains(models.WorkTypes, workType) {
		verr.Add("work_type", "work_type must be one of: "+strings.Join(models.WorkTypes, ", "))
	}

	recDate, err := models.ParseDate(recDateRaw)
	if err != nil {
		verr.Add("rec_date", "rec_date must be a valid date (YYYY-MM-DD).")
	}
	quoDate, err := models.ParseDate(normalizeDate(input.QuoDate))
	if err != nil {
		verr.Add("quo_date", "quo_date must be a valid date (YYYY-MM-DD).")
	}

	if status == "" {
		status = models.StatusPending
	} else if !contains(models.Statuses, status) {
		verr.Add("status", "status must be one of: "+strings.Join(models.Statuses, ", "))
	}

	if verr.HasErrors() {
		return nil, verr
	}

	offer := &models.Offer{
		RecDate:     recDate,
		Client:      client,
		ProjectName: projectName,
		Description: input.Description,
		WorkType:    workType,
		QuoDate:     quoDate,
		QuoValues:   input.QuoValues,
		Status:      status,
	}
	if quoNo := strings.TrimSpace(input.QuoNo); quoNo != "" {
		offer.QuoNo = &quoNo
	}
	return offer, nil
}

// normalizeDate maps legacy zero-date sentinels to "no date".
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "0000-00-00" {
		return ""
	}
	return s
}

func uploadNames(uploads []Upload) []string {
	if len(uploads) == 0 {
		return nil
	}
	names := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		names = append(names, upload.Name)
	}
	return names
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
