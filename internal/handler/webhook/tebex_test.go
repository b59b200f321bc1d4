package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/deltamc/internal/tebex"
)

const testSecret = "whsec_test"

type mockEventHandler struct {
	err    error
	events []*tebex.WebhookEvent
}

func (m *mockEventHandler) HandleWebhook(ctx context.Context, event *tebex.WebhookEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func TestTebexHandler_HandleWebhook(t *testing.T) {
	completed := `{"id":"wh_1","type":"payment.completed","subject":{"id":12345}}`

	tests := []struct {
		name        string
		body        string
		signature   string
		handlerErr  error
		wantStatus  int
		wantHandled int
	}{
		{
			name:        "valid signature",
			body:        completed,
			signature:   tebex.Sign(testSecret, []byte(completed)),
			wantStatus:  http.StatusOK,
			wantHandled: 1,
		},
		{
			name:        "uppercase hex signature",
			body:        completed,
			signature:   strings.ToUpper(tebex.Sign(testSecret, []byte(completed))),
			wantStatus:  http.StatusOK,
			wantHandled: 1,
		},
		{
			name:       "missing signature",
			body:       completed,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			body:       completed,
			signature:  tebex.Sign("other", []byte(completed)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "body tampered after signing",
			body:       strings.Replace(completed, "12345", "99999", 1),
			signature:  tebex.Sign(testSecret, []byte(completed)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "signed but not json",
			body:       "not json",
			signature:  tebex.Sign(testSecret, []byte("not json")),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "processing failure is still acknowledged",
			body:        completed,
			signature:   tebex.Sign(testSecret, []byte(completed)),
			handlerErr:  errors.New("basket lookup failed"),
			wantStatus:  http.StatusOK,
			wantHandled: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &mockEventHandler{err: tt.handlerErr}
			h := NewTebexHandler(events, testSecret)

			req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.signature != "" {
				req.Header.Set(tebex.SignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()

			h.HandleWebhook(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(events.events) != tt.wantHandled {
				t.Errorf("handled %d events, want %d", len(events.events), tt.wantHandled)
			}
			if tt.wantStatus == http.StatusOK && strings.TrimSpace(rec.Body.String()) != `{"received":true}` {
				t.Errorf("body = %s, want {\"received\":true}", rec.Body.String())
			}
		})
	}

	t.Run("unconfigured secret rejects everything", func(t *testing.T) {
		events := &mockEventHandler{}
		h := NewTebexHandler(events, "")

		req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(completed))
		req.Header.Set(tebex.SignatureHeader, tebex.Sign("", []byte(completed)))
		rec := httptest.NewRecorder()
		h.HandleWebhook(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		if len(events.events) != 0 {
			t.Errorf("handled %d events, want 0", len(events.events))
		}
	})

	t.Run("basket id is parsed from a number", func(t *testing.T) {
		events := &mockEventHandler{}
		h := NewTebexHandler(events, testSecret)

		req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(completed))
		req.Header.Set(tebex.SignatureHeader, tebex.Sign(testSecret, []byte(completed)))
		h.HandleWebhook(httptest.NewRecorder(), req)

		if len(events.events) != 1 || events.events[0].Subject.ID != "12345" {
			t.Fatalf("events = %+v", events.events)
		}
	})
}
