package config

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/events"
	"nutrition-catalog/internal/utils/storage"
	"nutrition-catalog/pkg/docstore"
	"nutrition-catalog/pkg/jwt"
	"nutrition-catalog/pkg/legacy"
	"nutrition-catalog/pkg/reference"
	"nutrition-catalog/pkg/verification"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	t   *testing.T
	app *fiber.App
	svc *Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	svc := NewServices(Backends{
		Docs:       docstore.NewMemoryStore(),
		LocalBlobs: local,
		Legacy:     legacy.NewMemoryStore(),
		Reference:  reference.Default,
		Events:     events.Discard{},
		Moderators: verification.NewModerators([]string{"mod"}, nil),
		JWTSecret:  "test-secret",
	})
	t.Cleanup(func() { _ = svc.Assets.Close() })

	app, err := NewApp(svc, AppOptions{AccessLog: io.Discard})
	require.NoError(t, err)
	return &testServer{t: t, app: app, svc: svc}
}

func (s *testServer) token(user domain.Identity) string {
	token, err := s.svc.JWTService.GenerateToken(user, jwt.DefaultTokenTTL)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(s.t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

var (
	alice     = domain.Identity{ID: "alice", Email: "alice@example.com"}
	bob       = domain.Identity{ID: "bob", Email: "bob@example.com"}
	moderator = domain.Identity{ID: "mod", Email: "mod@example.com"}
)

func TestPing(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCatalog_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(http.MethodGet, "/api/v1/catalog", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, domain.ErrTokenNotFound.Error(), env.Error)

	status, _ = s.do(http.MethodGet, "/api/v1/catalog", "not-a-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestCatalog_ListAndFilter(t *testing.T) {
	s := newTestServer(t)
	token := s.token(alice)

	status, env := s.do(http.MethodGet, "/api/v1/catalog", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	all := decode[domain.CatalogResponse](t, env)
	assert.Equal(t, len(reference.Default()), all.Total)
	assert.Positive(t, all.Version)

	status, env = s.do(http.MethodGet, "/api/v1/catalog?category=fruits&search=ban", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	fruits := decode[domain.CatalogResponse](t, env)
	require.Equal(t, 1, fruits.Total)
	assert.Equal(t, "Banana", fruits.Items[0].Name)
	assert.Equal(t, "reference", fruits.Items[0].Source)

	status, _ = s.do(http.MethodGet, "/api/v1/catalog?category=candy", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestScaleItem(t *testing.T) {
	s := newTestServer(t)
	token := s.token(alice)

	status, env := s.do(http.MethodGet, "/api/v1/catalog/items/ref-banana/scale?grams=150", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	scaled := decode[domain.ScaleResponse](t, env)
	assert.InDelta(t, 133.5, scaled.Nutrients.Calories, 1e-9)

	status, _ = s.do(http.MethodGet, "/api/v1/catalog/items/ref-banana/scale?grams=0", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(http.MethodGet, "/api/v1/catalog/items/nope/scale?grams=10", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestMealTotals(t *testing.T) {
	s := newTestServer(t)
	token := s.token(alice)

	status, env := s.do(http.MethodPost, "/api/v1/catalog/meal", token, domain.MealRequest{
		Portions: []domain.MealPortion{
			{ItemID: "ref-banana", Grams: 200},
			{ItemID: "ref-apple", Grams: 50},
		},
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	meal := decode[domain.MealResponse](t, env)
	require.Len(t, meal.Portions, 2)
	assert.InDelta(t, 178+26, meal.Total.Calories, 1e-9)

	status, _ = s.do(http.MethodPost, "/api/v1/catalog/meal", token, domain.MealRequest{
		Portions: []domain.MealPortion{{ItemID: "missing", Grams: 10}},
	})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(http.MethodPost, "/api/v1/catalog/meal", token, domain.MealRequest{})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestSubmitModerateAndPublish(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.token(alice)
	modToken := s.token(moderator)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	status, env := s.do(http.MethodPost, "/api/v1/catalog/items", aliceToken, domain.SubmitFoodRequest{
		Name:             "Dragon Fruit",
		Category:         "fruits",
		Calories:         60,
		Carbs:            13,
		ServingSizeGrams: 100,
		PhotoBase64:      base64.StdEncoding.EncodeToString(png),
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	submitted := decode[domain.SubmitFoodResponse](t, env)
	assert.Equal(t, string(domain.OutcomeSubmitted), submitted.Outcome)
	assert.Equal(t, "own_pending", submitted.Item.Source)
	require.NotEmpty(t, submitted.Item.ImageRef)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets/"+submitted.Item.ImageRef, nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+aliceToken)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))

	status, env = s.do(http.MethodGet, "/api/v1/catalog?search=dragon", aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, decode[domain.CatalogResponse](t, env).Total)

	status, env = s.do(http.MethodGet, "/api/v1/catalog?search=dragon", s.token(bob), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, decode[domain.CatalogResponse](t, env).Total)

	status, env = s.do(http.MethodGet, "/api/v1/submissions/mine", aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	mine := decode[[]domain.SubmissionResponse](t, env)
	require.Len(t, mine, 1)
	assert.Equal(t, "pending", mine[0].Status)

	status, _ = s.do(http.MethodGet, "/api/v1/moderation/pending", aliceToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(http.MethodGet, "/api/v1/moderation/pending", modToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	pending := decode[[]domain.SubmissionResponse](t, env)
	require.Len(t, pending, 1)

	status, env = s.do(http.MethodPost, "/api/v1/moderation/"+pending[0].ID+"/approve", modToken, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	approvedItem := decode[domain.CatalogItemResponse](t, env)
	assert.Equal(t, "Dragon Fruit", approvedItem.Name)

	status, _ = s.do(http.MethodPost, "/api/v1/moderation/"+pending[0].ID+"/reject", modToken,
		domain.RejectSubmissionRequest{Reason: "too late"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, env = s.do(http.MethodGet, "/api/v1/catalog?search=dragon&refresh=true", s.token(bob), nil)
	require.Equal(t, fiber.StatusOK, status)
	published := decode[domain.CatalogResponse](t, env)
	require.Equal(t, 1, published.Total)
	assert.Equal(t, "approved", published.Items[0].Source)
	assert.Equal(t, approvedItem.ID, published.Items[0].ID)
}

func TestRejectUnknownSubmission(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(http.MethodPost, "/api/v1/moderation/missing/reject", s.token(moderator), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSubmitItem_Validation(t *testing.T) {
	s := newTestServer(t)
	token := s.token(alice)

	status, _ := s.do(http.MethodPost, "/api/v1/catalog/items", token, domain.SubmitFoodRequest{
		Name:             "Mystery",
		Category:         "candy",
		ServingSizeGrams: 100,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/v1/catalog/items", token, domain.SubmitFoodRequest{
		Name:             "Text Photo",
		Category:         "snacks",
		ServingSizeGrams: 30,
		PhotoBase64:      base64.StdEncoding.EncodeToString([]byte("plain text, not an image")),
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/v1/catalog", s.token(alice), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "catalog_loads_total 1")
}
