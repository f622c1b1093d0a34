package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"offertrack/internal/adapters/http/handlers"
	"offertrack/internal/adapters/http/middleware"
	"offertrack/internal/adapters/persistence/models"
	"offertrack/internal/adapters/storage"
	"offertrack/internal/core/domain"
	"offertrack/internal/core/services"
	"offertrack/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type stubOfferRepo struct {
	mu     sync.Mutex
	nextID uint
	offers map[uint]*models.Offer
}

func newStubOfferRepo() *stubOfferRepo {
	return &stubOfferRepo{offers: make(map[uint]*models.Offer)}
}

func (r *stubOfferRepo) List(ctx context.Context, search string, offset, limit int) ([]*models.Offer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(search)
	var matched []*models.Offer
	for _, offer := range r.offers {
		if search != "" &&
			!strings.Contains(strings.ToLower(offer.Client), needle) &&
			!strings.Contains(strings.ToLower(offer.ProjectName), needle) {
			continue
		}
		clone := *offer
		matched = append(matched, &clone)
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

func (r *stubOfferRepo) GetByID(ctx context.Context, id uint) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	clone := *offer
	return &clone, nil
}

func (r *stubOfferRepo) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	clone := *offer
	clone.ID = r.nextID
	if clone.Status == "" {
		clone.Status = models.StatusPending
	}
	r.offers[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *stubOfferRepo) Update(ctx context.Context, id uint, offer *models.Offer) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offers[id]; !ok {
		return nil, domain.ErrOfferNotFound
	}
	clone := *offer
	clone.ID = id
	clone.Attachments = r.offers[id].Attachments
	r.offers[id] = &clone
	result := clone
	return &result, nil
}

func (r *stubOfferRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.offers[id]; !ok {
		return domain.ErrOfferNotFound
	}
	delete(r.offers, id)
	return nil
}

func (r *stubOfferRepo) UpdateAttachments(ctx context.Context, id uint, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return domain.ErrOfferNotFound
	}
	offer.Attachments = append(models.StringList(nil), names...)
	return nil
}

func (r *stubOfferRepo) LastQuoNo(ctx context.Context, pattern string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix, suffix, _ := strings.Cut(pattern, "%")
	var last string
	var lastID uint
	for id, offer := range r.offers {
		if offer.QuoNo == nil {
			continue
		}
		if strings.HasPrefix(*offer.QuoNo, prefix) && strings.HasSuffix(*offer.QuoNo, suffix) && id > lastID {
			lastID = id
			last = *offer.QuoNo
		}
	}
	return last, nil
}

func (r *stubOfferRepo) SetQuoNo(ctx context.Context, id uint, quoNo string, quoDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return domain.ErrOfferNotFound
	}
	offer.QuoNo = &quoNo
	offer.QuoDate = models.NewDate(quoDate)
	return nil
}

type stubMemberRepo struct {
	mu      sync.Mutex
	members map[uint]*models.Member
}

func newStubMemberRepo(members ...*models.Member) *stubMemberRepo {
	repo := &stubMemberRepo{members: make(map[uint]*models.Member)}
	for _, member := range members {
		repo.members[member.ID] = member
	}
	return repo
}

func (r *stubMemberRepo) GetByLogin(ctx context.Context, usernameOrEmail string) (*models.Member, error) {
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

func (r *stubMemberRepo) GetByToken(ctx context.Context, token string) (*models.Member, error) {
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

func (r *stubMemberRepo) SetToken(ctx context.Context, id uint, token string, issuedAt time.Time) error {
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

type testEnv struct {
	app    *fiber.App
	offers *stubOfferRepo
	token  string
}

// newTestEnv builds the app the way routes.Setup does, backed by
// in-memory repositories and a temp-dir attachment store, and logs a
// member in so requests can authenticate.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := password.Hash("pass123")
	require.NoError(t, err)
	memberRepo := newStubMemberRepo(&models.Member{
		ID:       1,
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: hash,
	})
	offerRepo := newStubOfferRepo()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	attachmentService := services.NewAttachmentService(store)
	offerService := services.NewOfferService(offerRepo, attachmentService)
	quotationService := services.NewQuotationService(offerRepo)
	authService := services.NewAuthService(memberRepo, 0)

	authHandler := handlers.NewAuthHandler(authService)
	offerHandler := handlers.NewOfferHandler(offerService, quotationService)
	requireAuth := middleware.AuthMiddleware(authService)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Post("/login", authHandler.Login)
	app.Get("/validate", requireAuth, authHandler.Validate)
	offers := app.Group("/offers", requireAuth)
	offers.Get("/", offerHandler.List)
	offers.Post("/", offerHandler.Create)
	offers.Patch("/", offerHandler.AllocateNumber)
	offers.Get("/:id", offerHandler.Get)
	offers.Post("/:id", offerHandler.Update)
	offers.Delete("/:id", offerHandler.Delete)

	env := &testEnv{app: app, offers: offerRepo}
	body := env.do(t, httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"jdoe","password":"pass123"}`),
	), http.StatusOK, withJSON)
	env.token = body["user"].(map[string]any)["token"].(string)
	return env
}

type reqOption func(*http.Request)

func withJSON(req *http.Request) { req.Header.Set("Content-Type", "application/json") }

func (e *testEnv) auth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+e.token)
}

// do runs the request, asserts the status code and decodes the JSON
// envelope.
func (e *testEnv) do(t *testing.T, req *http.Request, wantStatus int, opts ...reqOption) map[string]any {
	t.Helper()
	for _, opt := range opts {
		opt(req)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "body: %s", raw)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// offerForm builds a multipart body with the "offer" JSON field and
// optional named file parts.
func offerForm(t *testing.T, offer string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	require.NoError(t, writer.WriteField("offer", offer))
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestLoginValidationAndBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(t, httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"","password":""}`),
	), http.StatusUnprocessableEntity, withJSON)
	require.Equal(t, false, body["status"])
	require.Equal(t, map[string]any{
		"username": "Username is required",
		"password": "Password is required",
	}, body["errors"])

	body = env.do(t, httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"jdoe","password":"wrong"}`),
	), http.StatusUnauthorized, withJSON)
	require.Equal(t, "Invalid credentials", body["error"])
}

func TestValidateToken(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(t, httptest.NewRequest(http.MethodGet, "/validate", nil), http.StatusOK, env.auth)
	require.Equal(t, true, body["status"])

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	env.do(t, req, http.StatusUnauthorized)

	// No header at all
	env.do(t, httptest.NewRequest(http.MethodGet, "/validate", nil), http.StatusUnauthorized)
}

func TestOffersRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, httptest.NewRequest(http.MethodGet, "/offers", nil), http.StatusUnauthorized)
}

func TestCreateOfferWithFiles(t *testing.T) {
	env := newTestEnv(t)

	form, contentType := offerForm(t, `{
		"client": "Acme",
		"rec_date": "2024-03-01",
		"project_name": "Pipeline refit",
		"work_type": "Fabrication"
	}`, map[string]string{"drawing.pdf": "%PDF-1.4"})

	req := httptest.NewRequest(http.MethodPost, "/offers", form)
	req.Header.Set("Content-Type", contentType)
	body := env.do(t, req, http.StatusOK, env.auth)

	require.Equal(t, "Offer added successfully", body["message"])
	data := body["data"].(map[string]any)
	require.Equal(t, "Acme", data["client"])
	require.Equal(t, "Pending", data["status"])
	require.Nil(t, data["quo_no"])
	require.Equal(t, []any{"drawing.pdf"}, data["attachments"])
}

func TestCreateOfferValidation(t *testing.T) {
	env := newTestEnv(t)

	form, contentType := offerForm(t, `{"description": "no required fields"}`, nil)
	req := httptest.NewRequest(http.MethodPost, "/offers", form)
	req.Header.Set("Content-Type", contentType)
	body := env.do(t, req, http.StatusUnprocessableEntity, env.auth)

	errs := body["errors"].(map[string]any)
	require.Len(t, errs, 4)
	require.Equal(t, "client is required.", errs["client"])
	require.Equal(t, "rec_date is required.", errs["rec_date"])
	require.Equal(t, "project_name is required.", errs["project_name"])
	require.Equal(t, "work_type is required.", errs["work_type"])
}

func TestCreateOfferBadPayload(t *testing.T) {
	env := newTestEnv(t)

	form, contentType := offerForm(t, `{not json`, nil)
	req := httptest.NewRequest(http.MethodPost, "/offers", form)
	req.Header.Set("Content-Type", contentType)
	body := env.do(t, req, http.StatusBadRequest, env.auth)
	require.Equal(t, "Invalid offer JSON.", body["error"])
}

func TestListOffersPagination(t *testing.T) {
	env := newTestEnv(t)

	for i := 1; i <= 15; i++ {
		date, err := models.ParseDate(fmt.Sprintf("2024-03-%02d", i))
		require.NoError(t, err)
		_, err = env.offers.Create(context.Background(), &models.Offer{
			Client:      fmt.Sprintf("Client %d", i),
			ProjectName: fmt.Sprintf("Project %d", i),
			RecDate:     date,
			WorkType:    models.WorkTypeFabrication,
		})
		require.NoError(t, err)
	}

	body := env.do(t, httptest.NewRequest(http.MethodGet, "/offers?page=2&limit=10", nil), http.StatusOK, env.auth)
	data := body["data"].([]any)
	require.Len(t, data, 5)

	meta := body["pagination"].(map[string]any)
	require.Equal(t, float64(15), meta["total"])
	require.Equal(t, float64(2), meta["page"])
	require.Equal(t, float64(2), meta["total_pages"])

	// Newest rec_date first, so page 2 starts at the 11th newest
	first := data[0].(map[string]any)
	require.Equal(t, "Client 5", first["client"])
}

func TestListOffersSearch(t *testing.T) {
	env := newTestEnv(t)

	for _, client := range []string{"Acme Steel", "Borealis", "ACME Marine"} {
		date, err := models.ParseDate("2024-03-01")
		require.NoError(t, err)
		_, err = env.offers.Create(context.Background(), &models.Offer{
			Client:      client,
			ProjectName: "p",
			RecDate:     date,
			WorkType:    models.WorkTypeFabrication,
		})
		require.NoError(t, err)
	}

	body := env.do(t, httptest.NewRequest(http.MethodGet, "/offers?search=acme", nil), http.StatusOK, env.auth)
	require.Len(t, body["data"].([]any), 2)
}

func TestGetAndDeleteOfferNotFound(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(t, httptest.NewRequest(http.MethodGet, "/offers/999", nil), http.StatusNotFound, env.auth)
	require.Equal(t, "Offer not found", body["error"])

	env.do(t, httptest.NewRequest(http.MethodDelete, "/offers/999", nil), http.StatusNotFound, env.auth)
}

func TestAllocateQuotationNumber(t *testing.T) {
	env := newTestEnv(t)

	date, err := models.ParseDate("2024-03-01")
	require.NoError(t, err)
	offer, err := env.offers.Create(context.Background(), &models.Offer{
		Client:      "Acme",
		ProjectName: "p",
		RecDate:     date,
		WorkType:    models.WorkTypeFabrication,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/offers",
		strings.NewReader(fmt.Sprintf(`{"id":%d,"code":"QU"}`, offer.ID)))
	body := env.do(t, req, http.StatusOK, env.auth, withJSON)

	year := time.Now().Format("2006")
	require.Equal(t, "QU-001-"+year+"-Rev.0", body["quo_no"])
}

func TestRouterFallthrough(t *testing.T) {
	env := newTestEnv(t)

	// Wrong method on a known route
	body := env.do(t, httptest.NewRequest(http.MethodDelete, "/validate", nil), http.StatusMethodNotAllowed)
	require.Equal(t, "Method not allowed", body["error"])

	// Unknown route
	body = env.do(t, httptest.NewRequest(http.MethodGet, "/no-such-route", nil), http.StatusNotFound)
	require.Equal(t, "Route not found", body["error"])
}

func TestAllocateUnknownOffer(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPatch, "/offers", strings.NewReader(`{"id":42,"code":"QU"}`))
	body := env.do(t, req, http.StatusNotFound, env.auth, withJSON)
	require.Equal(t, "Offer not found", body["error"])
}
