package email

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/deltamc/internal/telemetry"
)

// Notifier tries each channel in order and stops at the first one that
// delivers. The caller decides whether a failure matters; order flows only
// log it.
type Notifier struct {
	channels []Channel
	logger   *slog.Logger
}

// NewNotifier builds a notifier over channels in priority order. Nil channels
// are skipped so optional fallbacks can be passed straight from config.
func NewNotifier(logger *slog.Logger, channels ...Channel) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{logger: logger}
	for _, c := range channels {
		if c != nil {
			n.channels = append(n.channels, c)
		}
	}
	return n
}

// SendOrderConfirmation delivers data over the first channel that succeeds.
// It returns ErrAllChannelsFailed joined with each channel error when none did.
func (n *Notifier) SendOrderConfirmation(ctx context.Context, data OrderConfirmation) error {
	if len(n.channels) == 0 {
		return ErrNoChannels
	}

	var errs []error
	for _, c := range n.channels {
		err := c.SendOrderConfirmation(ctx, data)
		if err == nil {
			if telemetry.Business != nil {
				telemetry.Business.EmailSent.WithLabelValues(c.Name()).Inc()
			}
			n.logger.Info("order confirmation sent",
				"channel", c.Name(),
				"order_number", data.OrderNumber,
			)
			return nil
		}

		if telemetry.Business != nil {
			telemetry.Business.EmailFailed.WithLabelValues(c.Name()).Inc()
		}
		n.logger.Warn("order confirmation channel failed",
			"channel", c.Name(),
			"order_number", data.OrderNumber,
			"error", err,
		)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return errors.Join(append([]error{ErrAllChannelsFailed}, errs...)...)
}
