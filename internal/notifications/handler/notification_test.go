package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/middleware"
	"frontdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockNotificationService struct {
	latest   []*model.Notification
	markRead func(actor model.Actor, id string) error
}

func (m *mockNotificationService) Latest(ctx context.Context, actor model.Actor) ([]*model.Notification, error) {
	return m.latest, nil
}

func (m *mockNotificationService) MarkRead(ctx context.Context, actor model.Actor, id string) error {
	if m.markRead != nil {
		return m.markRead(actor, id)
	}
	return nil
}

func (m *mockNotificationService) AnnounceBooking(ctx context.Context, actor model.Actor, appointment *model.Appointment) error {
	return nil
}

func (m *mockNotificationService) NotifyReceptionists(ctx context.Context, template model.Notification) (int, error) {
	return 0, nil
}

func TestNotificationRoutes(t *testing.T) {
	svc := &mockNotificationService{
		latest: []*model.Notification{{ID: "n-1"}, {ID: "n-2"}},
		markRead: func(actor model.Actor, id string) error {
			if id != "n-1" {
				return apperrors.NotFoundWithID("Notification", id)
			}
			return nil
		},
	}
	router := httprouter.New()
	NewNotificationHandler(svc, logger.Discard()).RegisterRoutes(router)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
	}{
		{"latest", http.MethodGet, "/api/v1/notifications", http.StatusOK},
		{"mark read", http.MethodPost, "/api/v1/notifications/n-1/read", http.StatusNoContent},
		{"mark read unknown", http.MethodPost, "/api/v1/notifications/n-9/read", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(middleware.WithActor(req.Context(), model.Actor{ID: "rec-1"}))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, w.Code)
			}
		})
	}
}
