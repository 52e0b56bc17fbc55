package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"MarketWire/internal/domain/models"
	"MarketWire/internal/usecase"
)

type stubBarStore struct {
	queries int
	bars    []models.Bar
}

func (s *stubBarStore) Init(context.Context) error                  { return nil }
func (s *stubBarStore) StoreBatch(context.Context, []models.Bar) error { return nil }
func (s *stubBarStore) Health(context.Context) error                { return nil }
func (s *stubBarStore) Close() error                                { return nil }

func (s *stubBarStore) Query(_ context.Context, symbol string, _, _ time.Time, limit int) ([]models.Bar, error) {
	s.queries++
	return s.bars, nil
}

type mapByteCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapByteCache() *mapByteCache { return &mapByteCache{m: make(map[string][]byte)} }

func (c *mapByteCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *mapByteCache) SetBytes(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func barsHandler(store *stubBarStore) *NewsHandler {
	h := NewNewsHandler(nil, nil, nil, nil, usecase.NewBarsUseCase(store))
	h.SetCache(newMapByteCache())
	return h
}

func doBars(t *testing.T, h *NewsHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	if err := h.Bars(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Bars(%s): %v", target, err)
	}
	return rec
}

func TestBarsCacheKeyedByLimit(t *testing.T) {
	store := &stubBarStore{bars: []models.Bar{{Symbol: "AAPL"}}}
	h := barsHandler(store)

	doBars(t, h, "/api/bars?symbol=AAPL&limit=100")
	doBars(t, h, "/api/bars?symbol=AAPL&limit=100")
	if store.queries != 1 {
		t.Fatalf("queries after repeat = %d, want 1 (cached)", store.queries)
	}

	// A different limit must not replay the cached payload.
	doBars(t, h, "/api/bars?symbol=AAPL&limit=200")
	if store.queries != 2 {
		t.Fatalf("queries after limit change = %d, want 2", store.queries)
	}
}

func TestBarsCacheHitKeepsEnvelope(t *testing.T) {
	store := &stubBarStore{bars: []models.Bar{{Symbol: "MSFT"}}}
	h := barsHandler(store)

	miss := doBars(t, h, "/api/bars?symbol=MSFT&limit=50")
	hit := doBars(t, h, "/api/bars?symbol=MSFT&limit=50")
	if store.queries != 1 {
		t.Fatalf("queries = %d, want 1", store.queries)
	}

	var missBody, hitBody map[string]interface{}
	if err := json.Unmarshal(miss.Body.Bytes(), &missBody); err != nil {
		t.Fatalf("miss body: %v", err)
	}
	if err := json.Unmarshal(hit.Body.Bytes(), &hitBody); err != nil {
		t.Fatalf("hit body: %v", err)
	}
	for _, body := range []map[string]interface{}{missBody, hitBody} {
		if body["status"] != float64(http.StatusOK) || body["message"] != "OK" {
			t.Fatalf("unexpected envelope: %v", body)
		}
		if _, ok := body["data"]; !ok {
			t.Fatalf("envelope missing data: %v", body)
		}
	}
}
