package usecase

import (
	"context"
	"errors"
	"testing"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"
	mock_interfaces "homequote/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

func TestServiceRequestUseCase_Create(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		uc := NewServiceRequestUseCase(nil, nil, nil)
		cases := []struct {
			name string
			in   CreateServiceRequestInput
			want error
		}{
			{name: "client", in: CreateServiceRequestInput{ClientID: " ", Category: "Plumbing", Description: "d", Location: "l"}, want: ErrInvalidClientID},
			{name: "category", in: CreateServiceRequestInput{ClientID: "c1", Description: "d", Location: "l"}, want: ErrInvalidCategory},
			{name: "description", in: CreateServiceRequestInput{ClientID: "c1", Category: "Plumbing", Location: "l"}, want: ErrInvalidDescription},
			{name: "location", in: CreateServiceRequestInput{ClientID: "c1", Category: "Plumbing", Description: "d"}, want: ErrInvalidLocation},
		}
		for _, tc := range cases {
			_, err := uc.Create(context.Background(), tc.in)
			if !errors.Is(err, tc.want) || !errors.Is(err, ErrValidation) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
			}
		}
	})

	t.Run("repo error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		pub := mock_interfaces.NewMockIEventPublisher(ctrl)
		uc := NewServiceRequestUseCase(repo, nil, pub)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.ServiceRequest{}, errors.New("db"))

		_, err := uc.Create(context.Background(), CreateServiceRequestInput{ClientID: "c1", Category: "Plumbing", Description: "leak", Location: "SP"})
		if err == nil || err.Error() != "db" {
			t.Fatalf("expected db error, got %v", err)
		}
	})

	t.Run("success publishes event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		pub := mock_interfaces.NewMockIEventPublisher(ctrl)
		uc := NewServiceRequestUseCase(repo, nil, pub)

		repo.EXPECT().Create(gomock.Any(), gomock.AssignableToTypeOf(entities.ServiceRequest{})).DoAndReturn(
			func(_ context.Context, r entities.ServiceRequest) (entities.ServiceRequest, error) {
				if r.ID == "" || r.ClientID != "c1" || r.Category != "Plumbing" || r.Status != entities.ServiceRequestStatusAwaiting {
					t.Fatalf("unexpected request: %+v", r)
				}
				if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
					t.Fatalf("expected timestamps")
				}
				return r, nil
			},
		)
		pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, ev entities.LifecycleEvent) error {
				if ev.Type != entities.EventServiceRequestCreated || ev.ClientID != "c1" {
					t.Fatalf("unexpected event: %+v", ev)
				}
				return nil
			},
		)

		res, err := uc.Create(context.Background(), CreateServiceRequestInput{ClientID: " c1 ", Category: " Plumbing ", Description: "leak", Location: "SP"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ID == "" {
			t.Fatalf("expected generated id")
		}
	})

	t.Run("publish failure does not fail create", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		pub := mock_interfaces.NewMockIEventPublisher(ctrl)
		uc := NewServiceRequestUseCase(repo, nil, pub)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, r entities.ServiceRequest) (entities.ServiceRequest, error) { return r, nil },
		)
		pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		if _, err := uc.Create(context.Background(), CreateServiceRequestInput{ClientID: "c1", Category: "Plumbing", Description: "leak", Location: "SP"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestServiceRequestUseCase_ListAvailable(t *testing.T) {
	t.Run("normalizes categories and attaches counts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		quotes := mock_interfaces.NewMockIQuoteRepository(ctrl)
		uc := NewServiceRequestUseCase(repo, quotes, nil)

		repo.EXPECT().ListOpenByCategories(gomock.Any(), []string{"Plumbing", "Electrical"}).Return([]entities.ServiceRequest{
			{ID: "r1", Category: "Plumbing", Status: entities.ServiceRequestStatusAwaiting},
			{ID: "r2", Category: "Electrical", Status: entities.ServiceRequestStatusWithQuotes},
		}, nil)
		quotes.EXPECT().CountByServiceRequestID(gomock.Any(), "r1").Return(0, nil)
		quotes.EXPECT().CountByServiceRequestID(gomock.Any(), "r2").Return(3, nil)

		res, err := uc.ListAvailable(context.Background(), []string{" Plumbing", "", "Electrical", "Plumbing"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res) != 2 || res[0].QuoteCount != 0 || res[1].QuoteCount != 3 {
			t.Fatalf("unexpected listings: %+v", res)
		}
	})

	t.Run("empty categories passes empty set", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		quotes := mock_interfaces.NewMockIQuoteRepository(ctrl)
		uc := NewServiceRequestUseCase(repo, quotes, nil)

		repo.EXPECT().ListOpenByCategories(gomock.Any(), []string{}).Return(nil, nil)

		res, err := uc.ListAvailable(context.Background(), nil)
		if err != nil || len(res) != 0 {
			t.Fatalf("expected empty result, got %+v %v", res, err)
		}
	})
}

func TestServiceRequestUseCase_GetForClient(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		uc := NewServiceRequestUseCase(repo, nil, nil)

		repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{}, nil)

		_, err := uc.GetForClient(context.Background(), "r1", "c1")
		if !errors.Is(err, ErrServiceRequestNotFound) || !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		uc := NewServiceRequestUseCase(repo, nil, nil)

		repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{ID: "r1", ClientID: "other"}, nil)

		_, err := uc.GetForClient(context.Background(), "r1", "c1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		quotes := mock_interfaces.NewMockIQuoteRepository(ctrl)
		uc := NewServiceRequestUseCase(repo, quotes, nil)

		repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{ID: "r1", ClientID: "c1"}, nil)
		quotes.EXPECT().CountByServiceRequestID(gomock.Any(), "r1").Return(2, nil)

		res, err := uc.GetForClient(context.Background(), "r1", "c1")
		if err != nil || res.QuoteCount != 2 {
			t.Fatalf("unexpected result %+v %v", res, err)
		}
	})
}

func TestServiceRequestUseCase_Cancel(t *testing.T) {
	t.Run("terminal request conflicts", func(t *testing.T) {
		for _, st := range []entities.ServiceRequestStatus{entities.ServiceRequestStatusClosed, entities.ServiceRequestStatusCancelled} {
			ctrl := gomock.NewController(t)
			repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
			uc := NewServiceRequestUseCase(repo, nil, nil)

			repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{ID: "r1", ClientID: "c1", Status: st}, nil)

			_, err := uc.Cancel(context.Background(), "r1", "c1")
			if !errors.Is(err, ErrConflict) {
				t.Fatalf("status %s: expected conflict, got %v", st, err)
			}
			ctrl.Finish()
		}
	})

	t.Run("lost race conflicts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		uc := NewServiceRequestUseCase(repo, nil, nil)

		repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{ID: "r1", ClientID: "c1", Status: entities.ServiceRequestStatusAwaiting}, nil)
		repo.EXPECT().UpdateStatus(gomock.Any(), "r1", entities.OpenServiceRequestStatuses, entities.ServiceRequestStatusCancelled).
			Return(entities.ServiceRequest{}, interfaces.ErrConditionFailed)

		_, err := uc.Cancel(context.Background(), "r1", "c1")
		if !errors.Is(err, ErrServiceRequestNotOpen) {
			t.Fatalf("expected ErrServiceRequestNotOpen, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		pub := mock_interfaces.NewMockIEventPublisher(ctrl)
		uc := NewServiceRequestUseCase(repo, nil, pub)

		repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{ID: "r1", ClientID: "c1", Status: entities.ServiceRequestStatusWithQuotes}, nil)
		repo.EXPECT().UpdateStatus(gomock.Any(), "r1", entities.OpenServiceRequestStatuses, entities.ServiceRequestStatusCancelled).
			Return(entities.ServiceRequest{ID: "r1", ClientID: "c1", Status: entities.ServiceRequestStatusCancelled}, nil)
		pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		res, err := uc.Cancel(context.Background(), "r1", "c1")
		if err != nil || res.Status != entities.ServiceRequestStatusCancelled {
			t.Fatalf("unexpected result %+v %v", res, err)
		}
	})
}

func TestServiceRequestUseCase_Delete(t *testing.T) {
	t.Run("winner blocks delete", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		quotes := mock_interfaces.NewMockIQuoteRepository(ctrl)
		uc := NewServiceRequestUseCase(repo, quotes, nil)

		repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{ID: "r1", ClientID: "c1", Status: entities.ServiceRequestStatusWithQuotes}, nil)
		quotes.EXPECT().ListByServiceRequestID(gomock.Any(), "r1").Return([]entities.Quote{
			{ID: "q1", Status: entities.QuoteStatusRejected},
			{ID: "q2", Status: entities.QuoteStatusAccepted},
		}, nil)

		err := uc.Delete(context.Background(), "r1", "c1")
		if !errors.Is(err, ErrServiceRequestHasWinner) {
			t.Fatalf("expected ErrServiceRequestHasWinner, got %v", err)
		}
	})

	t.Run("store condition maps to conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		quotes := mock_interfaces.NewMockIQuoteRepository(ctrl)
		uc := NewServiceRequestUseCase(repo, quotes, nil)

		repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{ID: "r1", ClientID: "c1"}, nil)
		quotes.EXPECT().ListByServiceRequestID(gomock.Any(), "r1").Return(nil, nil)
		repo.EXPECT().Delete(gomock.Any(), "r1").Return(interfaces.ErrConditionFailed)

		if err := uc.Delete(context.Background(), "r1", "c1"); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIServiceRequestRepository(ctrl)
		quotes := mock_interfaces.NewMockIQuoteRepository(ctrl)
		pub := mock_interfaces.NewMockIEventPublisher(ctrl)
		uc := NewServiceRequestUseCase(repo, quotes, pub)

		repo.EXPECT().GetByID(gomock.Any(), "r1").Return(entities.ServiceRequest{ID: "r1", ClientID: "c1", Status: entities.ServiceRequestStatusWithQuotes}, nil)
		quotes.EXPECT().ListByServiceRequestID(gomock.Any(), "r1").Return([]entities.Quote{{ID: "q1", Status: entities.QuoteStatusAwaiting}}, nil)
		repo.EXPECT().Delete(gomock.Any(), "r1").Return(nil)
		pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		if err := uc.Delete(context.Background(), "r1", "c1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
