package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	name  string
	err   error
	calls int
	got   OrderConfirmation
}

func (m *mockChannel) Name() string { return m.name }

func (m *mockChannel) SendOrderConfirmation(ctx context.Context, data OrderConfirmation) error {
	m.calls++
	m.got = data
	return m.err
}

func TestNotifier_PrimarySucceeds(t *testing.T) {
	primary := &mockChannel{name: "smtp"}
	fallback := &mockChannel{name: "endpoint"}

	n := NewNotifier(nil, primary, fallback)
	err := n.SendOrderConfirmation(context.Background(), OrderConfirmation{ToEmail: "steve@example.com", OrderNumber: "ORD-1"})

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestNotifier_FallsBack(t *testing.T) {
	primary := &mockChannel{name: "smtp", err: errors.New("connection refused")}
	fallback := &mockChannel{name: "endpoint"}

	n := NewNotifier(nil, primary, fallback)
	err := n.SendOrderConfirmation(context.Background(), OrderConfirmation{ToEmail: "steve@example.com", OrderNumber: "ORD-1"})

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "ORD-1", fallback.got.OrderNumber)
}

func TestNotifier_AllFail(t *testing.T) {
	smtpErr := errors.New("connection refused")
	primary := &mockChannel{name: "smtp", err: smtpErr}
	fallback := &mockChannel{name: "endpoint", err: ErrRejected}

	n := NewNotifier(nil, primary, fallback)
	err := n.SendOrderConfirmation(context.Background(), OrderConfirmation{ToEmail: "steve@example.com"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllChannelsFailed)
	assert.ErrorIs(t, err, smtpErr)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestNotifier_NoChannels(t *testing.T) {
	n := NewNotifier(nil, nil)
	err := n.SendOrderConfirmation(context.Background(), OrderConfirmation{})
	assert.ErrorIs(t, err, ErrNoChannels)
}

func TestNotifier_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &mockChannel{name: "smtp", err: context.Canceled}
	fallback := &mockChannel{name: "endpoint"}

	n := NewNotifier(nil, primary, fallback)
	err := n.SendOrderConfirmation(ctx, OrderConfirmation{ToEmail: "steve@example.com"})

	assert.ErrorIs(t, err, ErrAllChannelsFailed)
	assert.Equal(t, 0, fallback.calls)
}
