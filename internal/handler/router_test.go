package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/funnel"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/handler"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/memstore"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/observability"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"

type fixedCatalog struct{ products []domain.Product }

func (f fixedCatalog) Search(ctx context.Context, category, query string, limit int) ([]domain.Product, error) {
	return f.products, nil
}

type nopInventory struct{}

func (nopInventory) Check(ctx context.Context, productID string) (*domain.StockReport, error) {
	return &domain.StockReport{Status: domain.StockInStock, TotalQty: 1, Locations: map[string]int{"Phoenix Mall": 1}}, nil
}

type nopOrders struct{}

func (nopOrders) Place(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
	return &domain.OrderResult{OrderID: "ORD-TEST0001", Raw: "confirmed"}, nil
}

type nopPayments struct{}

func (nopPayments) Pay(ctx context.Context, orderID, method string) (*domain.PaymentResult, error) {
	return &domain.PaymentResult{PaymentID: "PAY-TEST0001", Succeeded: true, Message: "ok"}, nil
}

type nopLoyalty struct{}

func (nopLoyalty) Price(ctx context.Context, req *domain.PricingRequest) (*domain.PriceBreakdown, error) {
	return &domain.PriceBreakdown{Original: req.BasePrice, Final: req.BasePrice}, nil
}

type nopPostPurchase struct{}

func (nopPostPurchase) Act(ctx context.Context, req *domain.PostPurchaseRequest) (string, error) {
	return "done", nil
}

func newTestRouter(t *testing.T) (http.Handler, *memstore.Store) {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	sessions := memstore.New(time.Minute)

	catalog := fixedCatalog{products: []domain.Product{
		{ProductID: "P1", Name: "Trail Runner Pro", Category: "Sportswear", Price: 4999},
	}}
	o := funnel.NewOrchestrator(catalog, nopInventory{}, nopOrders{}, nopPayments{}, nopLoyalty{}, nopPostPurchase{}, metrics, logger)
	svc := funnel.NewService(o, sessions, nil, logger)

	return handler.NewRouter(svc, sessions, metrics, testJWTSecret, logger), sessions
}

func postChat(t *testing.T, router http.Handler, body map[string]string, authToken string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatEndpoint_HappyPath(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postChat(t, router, map[string]string{"session_id": "s1", "message": "I want running shoes"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID != "s1" {
		t.Errorf("expected the session id echoed, got %q", resp.SessionID)
	}
	if resp.Stage != domain.StageAwaitingSelection || len(resp.Recommendations) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestChatEndpoint_GeneratesSessionID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postChat(t, router, map[string]string{"message": "hello"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp domain.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a generated session id")
	}
}

func TestChatEndpoint_RejectsEmptyMessage(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postChat(t, router, map[string]string{"session_id": "s1", "message": "   "}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatEndpoint_RejectsInvalidJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatEndpoint_BearerTokenSetsCustomer(t *testing.T) {
	router, sessions := newTestRouter(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "cust-42"}).
		SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec := postChat(t, router, map[string]string{"session_id": "s1", "message": "hello"}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	saved, _ := sessions.Load(context.Background(), "s1")
	if saved == nil || saved.CustomerID != "cust-42" {
		t.Errorf("expected the token subject as customer id, got %+v", saved)
	}
}

func TestChatEndpoint_InvalidTokenFallsBackToGuest(t *testing.T) {
	router, sessions := newTestRouter(t)

	rec := postChat(t, router, map[string]string{"session_id": "s1", "message": "hello"}, "not-a-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("a bad token must not reject the chat, got %d", rec.Code)
	}

	saved, _ := sessions.Load(context.Background(), "s1")
	if saved == nil || saved.CustomerID != domain.GuestCustomerID {
		t.Errorf("expected guest customer, got %+v", saved)
	}
}

func TestSessionEndpoint(t *testing.T) {
	router, sessions := newTestRouter(t)

	sess := domain.NewSession("cust-1")
	sess.Stage = domain.StageAvailability
	if err := sessions.Save(context.Background(), "s1", sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Stage != domain.StageAvailability {
		t.Errorf("unexpected session %+v", got)
	}
}

func TestSessionEndpoint_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics", "/v1/metrics/funnel"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}
