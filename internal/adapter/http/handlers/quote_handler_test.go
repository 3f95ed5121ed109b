package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"homequote/internal/adapter/http/handlers/mocks"
	"homequote/internal/domain/entities"
	"homequote/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func newQuoteRouter(t *testing.T, userID string) (*gin.Engine, *mocks.MockIQuoteUseCase) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	uc := mocks.NewMockIQuoteUseCase(ctrl)
	h := NewQuoteHandler(uc)

	r := gin.New()
	r.Use(asUser(userID))
	r.GET("/v1/service-requests/:id/price-limits", h.PriceLimits)
	r.GET("/v1/service-requests/:id/quotes", h.ListForServiceRequest)
	q := r.Group("/v1/quotes")
	q.POST("", h.Create)
	q.GET("", h.ListMine)
	q.PATCH("/:id/accept", h.Accept)
	q.PATCH("/:id/complete", h.Complete)
	q.DELETE("/:id", h.Delete)
	return r, uc
}

func TestQuoteHandler_PriceLimits(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().EstimatePriceLimits(gomock.Any(), "r1").Return(entities.PriceRange{Minimum: 210, Suggested: 300, Maximum: 450, PredictedCategory: "Plumbing"}, nil)

		w := serve(r, http.MethodGet, "/v1/service-requests/r1/price-limits", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["minimum"] != float64(210) || body["maximum"] != float64(450) {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("oracle down", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().EstimatePriceLimits(gomock.Any(), "r1").Return(entities.PriceRange{}, fmt.Errorf("%w: timeout", usecase.ErrOracleUnavailable))

		if w := serve(r, http.MethodGet, "/v1/service-requests/r1/price-limits", ""); w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
	})
}

func TestQuoteHandler_Create(t *testing.T) {
	const payload = `{"service_request_id":"r1","proposed_value":460,"execution_deadline":"2 days"}`

	t.Run("invalid payload", func(t *testing.T) {
		r, _ := newQuoteRouter(t, "p1")
		if w := serve(r, http.MethodPost, "/v1/quotes", `{"service_request_id":"r1"}`); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("price out of range names the bound", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().Create(gomock.Any(), usecase.CreateQuoteInput{
			ProviderID:        "p1",
			ServiceRequestID:  "r1",
			ProposedValue:     460,
			ExecutionDeadline: "2 days",
		}).Return(entities.Quote{}, &usecase.PriceOutOfRangeError{Proposed: 460, Bound: usecase.PriceBoundMaximum, Limit: 450})

		w := serve(r, http.MethodPost, "/v1/quotes", payload)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "PRICE_OUT_OF_RANGE") || !strings.Contains(w.Body.String(), "450.00") {
			t.Fatalf("unexpected body %s", w.Body.String())
		}
	})

	t.Run("closed request", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Quote{}, usecase.ErrServiceRequestNotOpen)

		if w := serve(r, http.MethodPost, "/v1/quotes", payload); w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Quote{
			ID:               "q1",
			ServiceRequestID: "r1",
			ProviderID:       "p1",
			Limits:           entities.PriceRange{Minimum: 210, Suggested: 300, Maximum: 450},
			ProposedValue:    300,
			Status:           entities.QuoteStatusAwaiting,
		}, nil)

		w := serve(r, http.MethodPost, "/v1/quotes", `{"service_request_id":"r1","proposed_value":300,"execution_deadline":"2 days"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"limits"`) {
			t.Fatalf("provider view should carry limits: %s", w.Body.String())
		}
	})
}

func TestQuoteHandler_ClientViewAndAccept(t *testing.T) {
	t.Run("list for service request", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "c1")
		uc.EXPECT().ListForServiceRequest(gomock.Any(), "r1", "c1").Return([]entities.QuoteOffer{
			{ID: "q2", ProposedValue: 250, Status: entities.QuoteStatusAwaiting},
			{ID: "q1", ProposedValue: 300, Status: entities.QuoteStatusAwaiting},
		}, nil)

		w := serve(r, http.MethodGet, "/v1/service-requests/r1/quotes", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if strings.Contains(w.Body.String(), "limits") {
			t.Fatalf("client view leaked limits: %s", w.Body.String())
		}
	})

	t.Run("accept", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "c1")
		uc.EXPECT().Accept(gomock.Any(), "q1", "c1").Return(entities.Quote{ID: "q1", Status: entities.QuoteStatusAccepted}, nil)

		if w := serve(r, http.MethodPatch, "/v1/quotes/q1/accept", ""); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("accept loses race", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "c1")
		uc.EXPECT().Accept(gomock.Any(), "q1", "c1").Return(entities.Quote{}, usecase.ErrServiceRequestHasWinner)

		if w := serve(r, http.MethodPatch, "/v1/quotes/q1/accept", ""); w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("accept on someone else's request", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "c2")
		uc.EXPECT().Accept(gomock.Any(), "q1", "c2").Return(entities.Quote{}, usecase.ErrNotServiceRequestOwner)

		if w := serve(r, http.MethodPatch, "/v1/quotes/q1/accept", ""); w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})
}

func TestQuoteHandler_ProviderActions(t *testing.T) {
	t.Run("list mine", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().ListForProvider(gomock.Any(), "p1").Return([]entities.ProviderQuote{
			{Quote: entities.Quote{ID: "q1"}, Category: "Plumbing", Description: "leak"},
		}, nil)

		w := serve(r, http.MethodGet, "/v1/quotes", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"category":"Plumbing"`) {
			t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("complete before accept", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().MarkCompleted(gomock.Any(), "q1", "p1").Return(entities.Quote{}, usecase.ErrQuoteNotAccepted)

		if w := serve(r, http.MethodPatch, "/v1/quotes/q1/complete", ""); w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("complete", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().MarkCompleted(gomock.Any(), "q1", "p1").Return(entities.Quote{ID: "q1", Status: entities.QuoteStatusCompleted}, nil)

		if w := serve(r, http.MethodPatch, "/v1/quotes/q1/complete", ""); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("delete missing quote", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().Delete(gomock.Any(), "q9", "p1").Return(usecase.ErrQuoteNotFound)

		if w := serve(r, http.MethodDelete, "/v1/quotes/q9", ""); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		r, uc := newQuoteRouter(t, "p1")
		uc.EXPECT().Delete(gomock.Any(), "q1", "p1").Return(nil)

		if w := serve(r, http.MethodDelete, "/v1/quotes/q1", ""); w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})
}
