package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointChannel_SendOrderConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		fails   bool
	}{
		{name: "json success", status: http.StatusOK, body: `{"success":true}`},
		{name: "json without success field", status: http.StatusOK, body: `{"message":"queued"}`},
		{name: "plain text body", status: http.StatusOK, body: "Mail sent"},
		{name: "created", status: http.StatusCreated, body: ""},
		{name: "json success false", status: http.StatusOK, body: `{"success":false,"message":"smtp down"}`, wantErr: ErrRejected, fails: true},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got OrderConfirmation
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewEndpointChannel(srv.URL, nil)
			err := c.SendOrderConfirmation(context.Background(), OrderConfirmation{
				ToEmail:       "steve@example.com",
				ToName:        "Steve",
				CustomerName:  "Steve",
				OrderNumber:   "ORD-1",
				Products:      "VIP (x1) - €5.00",
				TotalPrice:    "5.00",
				PaymentMethod: "Tebex",
			})

			if tt.fails {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, "ORD-1", got.OrderNumber)
			assert.Equal(t, "5.00", got.TotalPrice)
		})
	}
}

func TestEndpointChannel_PayloadFieldNames(t *testing.T) {
	var raw map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	}))
	defer srv.Close()

	c := NewEndpointChannel(srv.URL, nil)
	require.NoError(t, c.SendOrderConfirmation(context.Background(), OrderConfirmation{ToEmail: "a@b.nl"}))

	for _, key := range []string{"to_email", "to_name", "customer_name", "order_number", "products", "total_price", "payment_method"} {
		_, ok := raw[key]
		assert.True(t, ok, "missing %s", key)
	}
}

func TestEndpointChannel_MissingRecipient(t *testing.T) {
	c := NewEndpointChannel("http://127.0.0.1:0", nil)
	err := c.SendOrderConfirmation(context.Background(), OrderConfirmation{})
	assert.ErrorIs(t, err, ErrInvalidToAddress)
}
