package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/vishu-panwar/gharbazaar.in-sub008/models"
	"github.com/vishu-panwar/gharbazaar.in-sub008/services"
	"github.com/vishu-panwar/gharbazaar.in-sub008/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// testOfferStore backs the negotiation engine without a database.
type testOfferStore struct {
	mu     sync.Mutex
	nextID uint
	offers map[uint]*models.Offer
}

func newTestOfferStore() *testOfferStore {
	return &testOfferStore{offers: make(map[uint]*models.Offer)}
}

func (s *testOfferStore) Create(offer *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	offer.ID = s.nextID
	clone := *offer
	s.offers[offer.ID] = &clone
	return nil
}

func (s *testOfferStore) Get(id uint) (*models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[id]
	if !ok {
		return nil, nil
	}
	clone := *offer
	return &clone, nil
}

func (s *testOfferStore) HasActiveOffer(propertyID, buyerID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.offers {
		if o.PropertyID == propertyID && o.BuyerID == buyerID && !o.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *testOfferStore) ListByBuyer(buyerID uint, status string) ([]models.Offer, error) {
	return nil, nil
}

func (s *testOfferStore) ListBySeller(sellerID uint, status string) ([]models.Offer, error) {
	return nil, nil
}

func (s *testOfferStore) TransitionIf(id uint, from []string, updates map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, status := range from {
		if offer.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	for col, val := range updates {
		switch col {
		case "status":
			offer.Status = val.(string)
		case "counter_amount":
			offer.CounterAmount = val.(int64)
		case "counter_message":
			offer.CounterMessage = val.(string)
		}
	}
	return true, nil
}

// testFavoritesStore is a map-backed FavoritesStore for guest routes.
type testFavoritesStore struct {
	mu   sync.Mutex
	sets map[string][]uint
}

func newTestFavoritesStore() *testFavoritesStore {
	return &testFavoritesStore{sets: make(map[string][]uint)}
}

func (s *testFavoritesStore) Load(ctx context.Context, key string) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint(nil), s.sets[key]...), nil
}

func (s *testFavoritesStore) Save(ctx context.Context, key string, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[key] = append([]uint(nil), ids...)
	return nil
}

func (s *testFavoritesStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, key)
	return nil
}

// buildOfferTestApp mounts the offer and favorites routes behind the real JWT
// verifier and middleware, with in-memory stores wired into the package-level
// services.
func buildOfferTestApp(store *testOfferStore, guestStore *testFavoritesStore) *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")

	negotiationEngine = services.NewNegotiationEngine(store, nil)
	favoritesReconciler = services.NewFavoritesReconciler(newTestFavoritesStore(), guestStore)

	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	offer := app.Party("/api/offer", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		offer.Get("/{id:uint}", GetOffer)
		offer.Post("/{id:uint}/accept", AcceptOffer)
		offer.Post("/{id:uint}/reject", RejectOffer)
		offer.Post("/{id:uint}/counter", CounterOffer)
	}

	favorites := app.Party("/api/favorites")
	{
		favorites.Get("/guest", GetGuestFavorites)
		favorites.Post("/guest/toggle", ToggleGuestFavorite)
	}
	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

// signTestToken returns a signed access token for the given user
func signTestToken(id uint, role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: id, Role: role})
	return string(token)
}

func doJSON(app *iris.Application, method, target, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestOfferRoutesRequireToken(t *testing.T) {
	app := buildOfferTestApp(newTestOfferStore(), newTestFavoritesStore())

	resp := doJSON(app, http.MethodGet, "/api/offer/1", "", "")
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	resp = doJSON(app, http.MethodPost, "/api/offer/1/accept", "", "")
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}
}

func TestOfferLifecycleOverHTTP(t *testing.T) {
	store := newTestOfferStore()
	app := buildOfferTestApp(store, newTestFavoritesStore())

	offer := &models.Offer{
		PropertyID: 100,
		BuyerID:    10,
		SellerID:   20,
		Amount:     500000,
		Status:     models.OfferStatusPending,
	}
	if err := store.Create(offer); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	buyerToken := signTestToken(10, "user")
	sellerToken := signTestToken(20, "user")
	strangerToken := signTestToken(99, "user")

	// A stranger is not a party to the offer.
	resp := doJSON(app, http.MethodPost, "/api/offer/1/accept", strangerToken, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", resp.Code)
	}

	// The seller counters the pending offer.
	resp = doJSON(app, http.MethodPost, "/api/offer/1/counter", sellerToken,
		`{"counterAmount":550000,"counterMessage":"final price"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for counter, got %d: %s", resp.Code, resp.Body.String())
	}

	// An equal counter amount is rejected up front.
	resp = doJSON(app, http.MethodPost, "/api/offer/1/counter", sellerToken,
		`{"counterAmount":500000}`)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected failure for equal counter, got %d", resp.Code)
	}

	// The buyer accepts the counter.
	resp = doJSON(app, http.MethodPost, "/api/offer/1/accept", buyerToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for buyer accept, got %d: %s", resp.Code, resp.Body.String())
	}

	// Retrying the resolution surfaces the conflict.
	resp = doJSON(app, http.MethodPost, "/api/offer/1/reject", buyerToken, "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 after resolution, got %d", resp.Code)
	}

	// Unknown offers are 404 for any authenticated user.
	resp = doJSON(app, http.MethodGet, "/api/offer/999", buyerToken, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown offer, got %d", resp.Code)
	}

	got, _ := store.Get(1)
	if got.Status != models.OfferStatusAccepted {
		t.Fatalf("expected accepted in store, got %s", got.Status)
	}
}

func TestGuestFavoritesRoutes(t *testing.T) {
	guestStore := newTestFavoritesStore()
	guestStore.sets["device-1"] = []uint{4}
	app := buildOfferTestApp(newTestOfferStore(), guestStore)

	// Guest endpoints need the device header.
	req := httptest.NewRequest(http.MethodGet, "/api/favorites/guest", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without device header, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/favorites/guest", nil)
	req.Header.Set("X-Device-ID", "device-1")
	resp = httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest favorites, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "4") {
		t.Fatalf("expected seeded favorite in response, got %s", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/favorites/guest/toggle",
		strings.NewReader(`{"propertyID":9}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-ID", "device-1")
	resp = httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest toggle, got %d: %s", resp.Code, resp.Body.String())
	}

	ids, _ := guestStore.Load(context.Background(), "device-1")
	if len(ids) != 2 {
		t.Fatalf("expected 2 guest favorites after toggle, got %v", ids)
	}
}
