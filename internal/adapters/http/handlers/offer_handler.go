package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"

	"offertrack/internal/core/domain"
	"offertrack/internal/core/services"
	"offertrack/internal/pkg/pagination"
	"offertrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// OfferHandler handles offer endpoints
type OfferHandler struct {
	offerService     *services.OfferService
	quotationService *services.QuotationService
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(offerService *services.OfferService, quotationService *services.QuotationService) *OfferHandler {
	return &OfferHandler{
		offerService:     offerService,
		quotationService: quotationService,
	}
}

// List lists offers with pagination and search
// @Summary List offers
// @Tags Offers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param search query string false "Substring match on client, project name or quotation number"
// @Success 200 {object} response.Body
// @Router /offers [get]
func (h *OfferHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	offers, total, err := h.offerService.List(c.Context(), c.Query("search"), params.Offset, params.Limit)
	if err != nil {
		return h.fail(c, err)
	}

	return response.JSON(c, fiber.Map{
		"data":       offers,
		"pagination": pagination.GetMeta(params, total),
	})
}

// Get returns a single offer
// @Summary Get offer
// @Tags Offers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offer ID"
// @Success 200 {object} response.Body
// @Failure 404 {object} response.Body
// @Router /offers/{id} [get]
func (h *OfferHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid offer id")
	}

	offer, err := h.offerService.Get(c.Context(), uint(id))
	if err != nil {
		return h.fail(c, err)
	}

	return response.JSON(c, fiber.Map{"data": offer})
}

// Create adds a new offer from a multipart form: an "offer" JSON field
// plus optional "files" uploads
// @Summary Create offer
// @Tags Offers
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param offer formData string true "Offer JSON"
// @Param files formData file false "Attachments"
// @Success 200 {object} response.Body
// @Failure 422 {object} response.Body
// @Router /offers [post]
func (h *OfferHandler) Create(c *fiber.Ctx) error {
	input, uploads, err := parseOfferForm(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.offerService.Create(c.Context(), input, uploads)
	if err != nil {
		return h.fail(c, err)
	}

	return offerResponse(c, "Offer added successfully", result)
}

// Update replaces an offer and reconciles its attachments against the
// "documents" keep list plus any new uploads
// @Summary Update offer
// @Tags Offers
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offer ID"
// @Param offer formData string true "Offer JSON (including documents keep list)"
// @Param files formData file false "New attachments"
// @Success 200 {object} response.Body
// @Failure 404 {object} response.Body
// @Failure 422 {object} response.Body
// @Router /offers/{id} [post]
func (h *OfferHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid offer id")
	}

	input, uploads, err := parseOfferForm(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.offerService.Update(c.Context(), uint(id), input, uploads)
	if err != nil {
		return h.fail(c, err)
	}

	return offerResponse(c, "Offer updated successfully", result)
}

// Delete removes an offer
// @Summary Delete offer
// @Tags Offers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offer ID"
// @Success 200 {object} response.Body
// @Failure 404 {object} response.Body
// @Router /offers/{id} [delete]
func (h *OfferHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid offer id")
	}

	if err := h.offerService.Delete(c.Context(), uint(id)); err != nil {
		return h.fail(c, err)
	}

	return response.OK(c, "Offer deleted successfully", nil)
}

// AllocateRequest represents the quotation number allocation body
type AllocateRequest struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
}

// AllocateNumber assigns the next quotation number for a code
// @Summary Allocate quotation number
// @Tags Offers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AllocateRequest true "Offer id and quotation code"
// @Success 200 {object} response.Body
// @Failure 404 {object} response.Body
// @Failure 422 {object} response.Body
// @Router /offers [patch]
func (h *OfferHandler) AllocateNumber(c *fiber.Ctx) error {
	var req AllocateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	quoNo, err := h.quotationService.Allocate(c.Context(), req.Code, req.ID)
	if err != nil {
		return h.fail(c, err)
	}

	return response.JSON(c, fiber.Map{"quo_no": quoNo})
}

// fail maps service errors onto the response taxonomy. Internal detail
// is logged, never surfaced.
func (h *OfferHandler) fail(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.Validation(c, verr.Fields)
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "Offer not found")
	default:
		log.Printf("offer request failed on %s %s: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, "Internal server error")
	}
}

// parseOfferForm extracts the "offer" JSON field and "files" uploads
// from a multipart form.
func parseOfferForm(c *fiber.Ctx) (*services.OfferInput, []services.Upload, error) {
	raw := c.FormValue("offer")
	if raw == "" {
		return nil, nil, errors.New("Missing offer payload.")
	}

	var input services.OfferInput
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, nil, errors.New("Invalid offer JSON.")
	}

	var uploads []services.Upload
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, header := range form.File["files"] {
			uploads = append(uploads, fileUpload(header))
		}
	}

	return &input, uploads, nil
}

func fileUpload(header *multipart.FileHeader) services.Upload {
	return services.Upload{
		Name: header.Filename,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

// offerResponse renders a create/update result, reporting any uploads
// that failed to store rather than dropping them silently.
func offerResponse(c *fiber.Ctx, message string, result *services.OfferResult) error {
	payload := fiber.Map{
		"message": message,
		"data":    result.Offer,
	}
	if len(result.FailedUploads) > 0 {
		payload["failed_uploads"] = result.FailedUploads
	}
	return response.JSON(c, payload)
}
