package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"homequote/internal/adapter/http/handlers/mocks"
	"homequote/internal/domain/entities"
	"homequote/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func newServiceRequestRouter(t *testing.T, userID string) (*gin.Engine, *mocks.MockIServiceRequestUseCase) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	uc := mocks.NewMockIServiceRequestUseCase(ctrl)
	h := NewServiceRequestHandler(uc)

	r := gin.New()
	g := r.Group("/v1/service-requests", asUser(userID))
	g.POST("", h.Create)
	g.GET("", h.ListMine)
	g.GET("/available", h.ListAvailable)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/cancel", h.Cancel)
	g.DELETE("/:id", h.Delete)
	return r, uc
}

func TestServiceRequestHandler_Create(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		r, _ := newServiceRequestRouter(t, "c1")
		if w := serve(r, http.MethodPost, "/v1/service-requests", "{"); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		r, _ := newServiceRequestRouter(t, "c1")
		w := serve(r, http.MethodPost, "/v1/service-requests", `{"category":"Plumbing","location":"SP"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("usecase validation error", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "c1")
		uc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.ServiceRequest{}, usecase.ErrInvalidDescription)

		w := serve(r, http.MethodPost, "/v1/service-requests", `{"category":"Plumbing","description":"  ","location":"SP"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("success uses token identity", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "c1")
		now := time.Now().UTC()
		uc.EXPECT().Create(gomock.Any(), usecase.CreateServiceRequestInput{
			ClientID:    "c1",
			Category:    "Plumbing",
			Description: "leak",
			Location:    "SP",
		}).Return(entities.ServiceRequest{ID: "r1", ClientID: "c1", Category: "Plumbing", Status: entities.ServiceRequestStatusAwaiting, CreatedAt: now}, nil)

		w := serve(r, http.MethodPost, "/v1/service-requests", `{"category":"Plumbing","description":"leak","location":"SP","client_id":"someone-else"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body["id"] != "r1" || body["status"] != "awaiting" {
			t.Fatalf("unexpected body %v", body)
		}
	})
}

func TestServiceRequestHandler_Lists(t *testing.T) {
	t.Run("mine", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "c1")
		uc.EXPECT().ListForClient(gomock.Any(), "c1").Return([]entities.ServiceRequestListing{
			{ServiceRequest: entities.ServiceRequest{ID: "r2"}, QuoteCount: 3},
			{ServiceRequest: entities.ServiceRequest{ID: "r1"}},
		}, nil)

		w := serve(r, http.MethodGet, "/v1/service-requests", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body []map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if len(body) != 2 || body[0]["quote_count"] != float64(3) {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("available with categories", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "p1")
		uc.EXPECT().ListAvailable(gomock.Any(), []string{"Plumbing", "Painting", "Cleaning"}).Return(nil, nil)

		w := serve(r, http.MethodGet, "/v1/service-requests/available?category=Plumbing,Painting&category=Cleaning", "")
		if w.Code != http.StatusOK || w.Body.String() != "[]" {
			t.Fatalf("expected 200 with empty list, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("store failure", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "c1")
		uc.EXPECT().ListForClient(gomock.Any(), "c1").Return(nil, errors.New("dynamodb: throttled"))

		w := serve(r, http.MethodGet, "/v1/service-requests", "")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}

func TestServiceRequestHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: fmt.Errorf("%w: id=r1", usecase.ErrServiceRequestNotFound), want: http.StatusNotFound},
		{name: "not owner", err: usecase.ErrNotServiceRequestOwner, want: http.StatusForbidden},
		{name: "already closed", err: usecase.ErrServiceRequestNotOpen, want: http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, uc := newServiceRequestRouter(t, "c1")
			uc.EXPECT().Cancel(gomock.Any(), "r1", "c1").Return(entities.ServiceRequest{}, tc.err)

			if w := serve(r, http.MethodPatch, "/v1/service-requests/r1/cancel", ""); w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestServiceRequestHandler_GetCancelDelete(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "c1")
		uc.EXPECT().GetForClient(gomock.Any(), "r1", "c1").Return(entities.ServiceRequestListing{ServiceRequest: entities.ServiceRequest{ID: "r1"}, QuoteCount: 1}, nil)

		if w := serve(r, http.MethodGet, "/v1/service-requests/r1", ""); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "c1")
		uc.EXPECT().Cancel(gomock.Any(), "r1", "c1").Return(entities.ServiceRequest{ID: "r1", Status: entities.ServiceRequestStatusCancelled}, nil)

		w := serve(r, http.MethodPatch, "/v1/service-requests/r1/cancel", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "c1")
		uc.EXPECT().Delete(gomock.Any(), "r1", "c1").Return(nil)

		if w := serve(r, http.MethodDelete, "/v1/service-requests/r1", ""); w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})

	t.Run("delete with winner", func(t *testing.T) {
		r, uc := newServiceRequestRouter(t, "c1")
		uc.EXPECT().Delete(gomock.Any(), "r1", "c1").Return(usecase.ErrServiceRequestHasWinner)

		if w := serve(r, http.MethodDelete, "/v1/service-requests/r1", ""); w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})
}
