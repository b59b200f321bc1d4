package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/email"
	"github.com/dukerupert/deltamc/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	rewardRedirectTo    = "/shop"
	rewardRedirectAfter = 3

	rewardPaymentLabel = "Event Giftcard"
)

// rewardKeyNamespace derives a stable idempotency key per event code, so two
// concurrent redemptions of one code collide in the order ledger.
var rewardKeyNamespace = uuid.MustParse("4f1c2a8e-9b37-4d62-8c1e-5a7d3e0b9f21")

// RewardService implements domain.RewardService.
type RewardService struct {
	giftcards domain.GiftcardReader
	catalog   RewardCatalog
	orders    OrderStore
	ownership domain.OwnershipService
	notifier  Notifier
	publisher EventPublisher
	serverID  string
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

var _ domain.RewardService = (*RewardService)(nil)

// RewardConfig groups the collaborators of a RewardService.
type RewardConfig struct {
	Giftcards domain.GiftcardReader
	Catalog   RewardCatalog
	Orders    OrderStore
	Ownership domain.OwnershipService
	Notifier  Notifier
	Publisher EventPublisher
	ServerID  string
	Logger    *slog.Logger
}

func NewRewardService(cfg RewardConfig) *RewardService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RewardService{
		giftcards: cfg.Giftcards,
		catalog:   cfg.Catalog,
		orders:    cfg.Orders,
		ownership: cfg.Ownership,
		notifier:  cfg.Notifier,
		publisher: cfg.Publisher,
		serverID:  cfg.ServerID,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// ValidateCode checks that code belongs to an unused event giftcard.
func (s *RewardService) ValidateCode(ctx context.Context, code string) (*domain.Giftcard, error) {
	code = domain.NormalizeGiftcardCode(code)
	if code == "" {
		return nil, domain.ErrGiftcardCodeRequired
	}

	card, err := s.giftcards.GetGiftcard(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrGiftcardNotFound) {
			return nil, err
		}
		return nil, domain.Internal(err, "reward.validate_code", "failed to get giftcard")
	}
	if err := card.ValidateForReward(); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *RewardService) Rewards(ctx context.Context, username string) ([]domain.RewardOption, error) {
	owned, err := s.ownership.OwnedItems(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	ownedSet := make(map[string]bool, len(owned))
	for _, name := range owned {
		ownedSet[name] = true
	}

	rewards := s.catalog.All()
	options := make([]domain.RewardOption, 0, len(rewards))
	for _, r := range rewards {
		options = append(options, domain.RewardOption{Reward: r, Owned: ownedSet[r.Name]})
	}
	return options, nil
}

// Redeem exchanges an event code for one reward. The giftcard row is locked
// and checked again inside the order transaction, so of two concurrent
// redemptions of one code only the first is recorded.
func (s *RewardService) Redeem(ctx context.Context, req domain.RedeemRequest) (*domain.RedeemResult, error) {
	const op = "reward.redeem"

	username := strings.TrimSpace(req.Username)
	emailAddr := strings.TrimSpace(req.Email)
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}
	if s.validate.Var(emailAddr, "required,email") != nil {
		return nil, ErrInvalidEmail
	}

	card, err := s.ValidateCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	reward, ok := s.catalog.Get(req.RewardID)
	if !ok {
		return nil, domain.ErrRewardNotFound
	}

	owns, err := s.ownership.Owns(ctx, username, reward.Name)
	if err != nil {
		return nil, err
	}
	if owns {
		return nil, domain.ErrRewardAlreadyOwned
	}

	orderNumber := domain.EventOrderNumber(card.Code)
	payment := "event giftcard:" + card.Code

	result, err := s.orders.RecordOrder(ctx, domain.RecordOrderParams{
		IdempotencyKey: uuid.NewSHA1(rewardKeyNamespace, []byte(card.Code)),
		OrderNumber:    orderNumber,
		ServerID:       s.serverID,
		Username:       username,
		Payment:        payment,
		ItemType:       domain.ItemTypeEventReward,
		Lines: []domain.OrderLine{{
			ItemID:    reward.Name,
			ItemName:  reward.Name,
			UnitPrice: decimal.Zero,
			Quantity:  1,
		}},
		Subtotal:       decimal.Zero,
		FinalTotal:     decimal.Zero,
		Giftcard:       &domain.GiftcardCharge{Code: card.Code, RemainingBalance: card.Remaining},
		RedeemGiftcard: true,
	})
	if err != nil {
		switch domain.ErrorCode(err) {
		case domain.EINVALID, domain.ENOTFOUND, domain.ECONFLICT:
			return nil, err
		}
		s.logger.Error("failed to record reward", "code", card.Code, "reward_id", reward.ID, "error", err)
		telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{"op": op})
		return nil, domain.WrapError(err, domain.EINTERNAL, op, domain.ErrPurchasesNotRegistered.Message)
	}
	if result.Duplicate {
		return nil, domain.ErrGiftcardAlreadyUsed
	}

	ctx = context.WithoutCancel(ctx)

	s.logger.Info("event reward redeemed",
		"order_number", orderNumber,
		"username", username,
		"reward_id", reward.ID,
	)

	s.ownership.Invalidate(ctx, username)

	emailSent := false
	if s.notifier != nil {
		err := s.notifier.SendOrderConfirmation(ctx, email.OrderConfirmation{
			ToEmail:       emailAddr,
			ToName:        username,
			CustomerName:  username,
			OrderNumber:   orderNumber,
			Products:      reward.Name,
			TotalPrice:    decimal.Zero.StringFixed(2),
			PaymentMethod: rewardPaymentLabel,
		})
		if err != nil {
			s.logger.Warn("failed to send reward confirmation", "order_number", orderNumber, "error", err)
		} else {
			emailSent = true
		}
	}

	if s.publisher != nil {
		err := s.publisher.PublishOrder(ctx, domain.OrderEvent{
			OrderNumber: orderNumber,
			Username:    username,
			Items:       []string{reward.Name},
			Payment:     payment,
			Total:       decimal.Zero.StringFixed(2),
			Kind:        domain.OrderKindReward,
			RecordedAt:  s.now(),
		})
		if err != nil {
			s.logger.Warn("failed to publish reward event", "order_number", orderNumber, "error", err)
		}
	}

	if telemetry.Business != nil {
		telemetry.Business.RewardsRedeemed.WithLabelValues(reward.ID).Inc()
		telemetry.Business.OrdersCreated.WithLabelValues(domain.OrderKindReward).Inc()
	}

	return &domain.RedeemResult{
		OrderNumber:   orderNumber,
		Reward:        reward,
		Message:       fmt.Sprintf("Event giftcard succesvol verzilverd! Je hebt %s ontvangen.", reward.Name),
		EmailSent:     emailSent,
		RedirectTo:    rewardRedirectTo,
		RedirectAfter: rewardRedirectAfter,
	}, nil
}
