package domain

import "context"

// =============================================================================
// EVENT REWARD DOMAIN TYPES
// =============================================================================

var (
	ErrRewardNotFound     = &Error{Code: ENOTFOUND, Message: "Beloning niet gevonden"}
	ErrRewardAlreadyOwned = &Error{Code: ECONFLICT, Message: "Je hebt deze beloning al"}
)

// Reward is an item that can be claimed with an event giftcard.
type Reward struct {
	ID     string   `json:"id" mapstructure:"id"`
	Name   string   `json:"name" mapstructure:"name"`
	Emoji  string   `json:"emoji,omitempty" mapstructure:"emoji"`
	Rarity string   `json:"rarity" mapstructure:"rarity"`
	Perks  []string `json:"perks" mapstructure:"perks"`
}

// RewardOption is a reward as offered to a specific player.
type RewardOption struct {
	Reward
	Owned bool `json:"owned"`
}

// RedeemRequest exchanges an event code for one reward.
type RedeemRequest struct {
	Code     string
	RewardID string
	Username string
	Email    string
}

// RedeemResult is returned after a successful redemption.
type RedeemResult struct {
	OrderNumber   string `json:"order_number"`
	Reward        Reward `json:"reward"`
	Message       string `json:"message"`
	EmailSent     bool   `json:"email_sent"`
	RedirectTo    string `json:"redirect_to"`
	RedirectAfter int    `json:"redirect_after_seconds"`
}

// RewardService implements the event reward redemption flow.
type RewardService interface {
	// ValidateCode checks that a code can be exchanged for a reward.
	ValidateCode(ctx context.Context, code string) (*Giftcard, error)

	// Rewards lists the reward catalog, marking rewards the player already owns.
	Rewards(ctx context.Context, username string) ([]RewardOption, error)

	// Redeem records the reward for the player and consumes the code.
	Redeem(ctx context.Context, req RedeemRequest) (*RedeemResult, error)
}
