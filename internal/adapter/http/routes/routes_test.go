package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"homequote/internal/adapter/http/middleware"
	"homequote/internal/adapter/persistence/repository"
	"homequote/internal/infrastructure/config"
	"homequote/internal/infrastructure/events"
	"homequote/internal/infrastructure/pricing"
	"homequote/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (a apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func newTestAPI(t *testing.T) (*gin.Engine, *middleware.AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: "test-secret"}

	requestRepo, quoteRepo := repository.NewMemoryRepositories()
	publisher := events.LogPublisher{}
	requests := usecase.NewServiceRequestUseCase(requestRepo, quoteRepo, publisher)
	quotes := usecase.NewQuoteUseCase(quoteRepo, requestRepo, pricing.NewHeuristicOracle(pricing.DefaultPriceRules), publisher)

	return NewRouter(cfg, requests, quotes), middleware.NewAuthMiddleware(cfg.JWTSecret)
}

func TestRouter_Ping(t *testing.T) {
	router, _ := newTestAPI(t)
	w := apiClient{t: t, router: router}.do(http.MethodGet, "/v1/ping", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRouter_RoleGuards(t *testing.T) {
	router, auth := newTestAPI(t)
	providerToken, _ := auth.IssueToken("p1", middleware.RoleProvider, jwt.RegisteredClaims{})

	anonymous := apiClient{t: t, router: router}
	if w := anonymous.do(http.MethodGet, "/v1/service-requests", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	provider := apiClient{t: t, router: router, token: providerToken}
	if w := provider.do(http.MethodPost, "/v1/service-requests", map[string]string{"category": "Plumbing", "description": "leak", "location": "SP"}); w.Code != http.StatusForbidden {
		t.Fatalf("provider creating a request: expected 403, got %d", w.Code)
	}
}

func TestRouter_QuoteLifecycle(t *testing.T) {
	router, auth := newTestAPI(t)
	clientToken, _ := auth.IssueToken("c1", middleware.RoleClient, jwt.RegisteredClaims{})
	p1Token, _ := auth.IssueToken("p1", middleware.RoleProvider, jwt.RegisteredClaims{})
	p2Token, _ := auth.IssueToken("p2", middleware.RoleProvider, jwt.RegisteredClaims{})
	client := apiClient{t: t, router: router, token: clientToken}
	p1 := apiClient{t: t, router: router, token: p1Token}
	p2 := apiClient{t: t, router: router, token: p2Token}

	w := client.do(http.MethodPost, "/v1/service-requests", map[string]string{"category": "Plumbing", "description": "kitchen sink leak", "location": "SP"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create request: expected 201, got %d %s", w.Code, w.Body.String())
	}
	requestID := decode[map[string]any](t, w)["id"].(string)

	w = p1.do(http.MethodGet, "/v1/service-requests/available?category=Plumbing", nil)
	if got := decode[[]map[string]any](t, w); len(got) != 1 {
		t.Fatalf("expected one available request, got %v", got)
	}

	w = p1.do(http.MethodGet, "/v1/service-requests/"+requestID+"/price-limits", nil)
	limits := decode[map[string]any](t, w)
	if limits["minimum"] != float64(210) || limits["maximum"] != float64(450) {
		t.Fatalf("unexpected limits %v", limits)
	}

	w = p1.do(http.MethodPost, "/v1/quotes", map[string]any{"service_request_id": requestID, "proposed_value": 451, "execution_deadline": "2 days"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out of range bid: expected 400, got %d", w.Code)
	}

	w = p1.do(http.MethodPost, "/v1/quotes", map[string]any{"service_request_id": requestID, "proposed_value": 300, "execution_deadline": "2 days"})
	if w.Code != http.StatusCreated {
		t.Fatalf("p1 bid: expected 201, got %d %s", w.Code, w.Body.String())
	}
	q1 := decode[map[string]any](t, w)["id"].(string)

	w = p2.do(http.MethodPost, "/v1/quotes", map[string]any{"service_request_id": requestID, "proposed_value": 250, "execution_deadline": "3 days"})
	if w.Code != http.StatusCreated {
		t.Fatalf("p2 bid: expected 201, got %d", w.Code)
	}
	q2 := decode[map[string]any](t, w)["id"].(string)

	w = client.do(http.MethodGet, "/v1/service-requests/"+requestID+"/quotes", nil)
	offers := decode[[]map[string]any](t, w)
	if len(offers) != 2 || offers[0]["id"] != q2 {
		t.Fatalf("expected cheapest offer first, got %v", offers)
	}

	if w = client.do(http.MethodPatch, "/v1/quotes/"+q2+"/accept", nil); w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d %s", w.Code, w.Body.String())
	}
	if w = client.do(http.MethodPatch, "/v1/quotes/"+q1+"/accept", nil); w.Code != http.StatusConflict {
		t.Fatalf("second accept: expected 409, got %d", w.Code)
	}
	if w = p1.do(http.MethodDelete, "/v1/quotes/"+q1, nil); w.Code != http.StatusConflict {
		t.Fatalf("delete rejected quote: expected 409, got %d", w.Code)
	}
	if w = p1.do(http.MethodPatch, "/v1/quotes/"+q2+"/complete", nil); w.Code != http.StatusForbidden {
		t.Fatalf("complete someone else's quote: expected 403, got %d", w.Code)
	}
	if w = p2.do(http.MethodPatch, "/v1/quotes/"+q2+"/complete", nil); w.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", w.Code)
	}

	w = client.do(http.MethodGet, "/v1/service-requests/"+requestID, nil)
	if got := decode[map[string]any](t, w); got["status"] != "closed" || got["quote_count"] != float64(2) {
		t.Fatalf("unexpected final request %v", got)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/quotes", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected allow origin %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
