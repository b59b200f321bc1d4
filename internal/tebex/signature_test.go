package tebex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"payment.completed","subject":{"id":42}}`)
	valid := Sign("whsec", body)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		wantErr   error
	}{
		{name: "valid", secret: "whsec", body: body, signature: valid},
		{name: "valid uppercase hex", secret: "whsec", body: body, signature: strings.ToUpper(valid)},
		{name: "missing", secret: "whsec", body: body, signature: "", wantErr: ErrMissingSignature},
		{name: "wrong secret", secret: "other", body: body, signature: valid, wantErr: ErrInvalidSignature},
		{name: "tampered body", secret: "whsec", body: []byte(`{"type":"payment.completed","subject":{"id":43}}`), signature: valid, wantErr: ErrInvalidSignature},
		{name: "not hex", secret: "whsec", body: body, signature: "zz-not-hex", wantErr: ErrInvalidSignature},
		{name: "truncated", secret: "whsec", body: body, signature: valid[:10], wantErr: ErrInvalidSignature},
		{name: "empty secret signed with empty key", secret: "", body: body, signature: Sign("", body), wantErr: ErrNoSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, tt.body, tt.signature)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseWebhook(t *testing.T) {
	event, err := ParseWebhook([]byte(`{"id":"evt_1","type":"payment.completed","subject":{"id":42}}`))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentCompleted, event.Type)
	assert.Equal(t, BasketID("42"), event.Subject.ID)

	event, err = ParseWebhook([]byte(`{"type":"payment.declined","subject":{"id":"abc"}}`))
	require.NoError(t, err)
	assert.Equal(t, BasketID("abc"), event.Subject.ID)

	_, err = ParseWebhook([]byte(`{"subject":{}}`))
	assert.Error(t, err)

	_, err = ParseWebhook([]byte(`not json`))
	assert.Error(t, err)
}
