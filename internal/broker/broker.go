// Package broker publishes order events for the in-game fulfilment agent.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/telemetry"
	"github.com/nats-io/nats.go"
)

// Subjects order events are published on.
const (
	SubjectOrderRecorded  = "order.recorded"
	SubjectRewardRedeemed = "order.reward_redeemed"
)

// Publisher publishes order events.
type Publisher interface {
	PublishOrder(ctx context.Context, event domain.OrderEvent) error
	Close() error
}

// SubjectFor returns the subject an event of the given kind is published on.
func SubjectFor(kind string) string {
	if kind == domain.OrderKindReward {
		return SubjectRewardRedeemed
	}
	return SubjectOrderRecorded
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON encoded order events on NATS.
type NATSPublisher struct {
	nc     conn
	logger *slog.Logger
}

// NewNATSPublisher connects to url. The connection reconnects forever; a
// publish while disconnected is buffered by the client.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(url,
		nats.Name("deltamc"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSPublisher{nc: nc, logger: logger}, nil
}

func (p *NATSPublisher) PublishOrder(ctx context.Context, event domain.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := SubjectFor(event.Kind)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		if telemetry.Business != nil {
			telemetry.Business.EventsPublished.WithLabelValues(subject, "error").Inc()
		}
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	if telemetry.Business != nil {
		telemetry.Business.EventsPublished.WithLabelValues(subject, "ok").Inc()
	}
	p.logger.Debug("order event published", "subject", subject, "order_number", event.OrderNumber)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// NopPublisher drops events. Used when NATS_URL is not set.
type NopPublisher struct{}

func (NopPublisher) PublishOrder(ctx context.Context, event domain.OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
