package api

import (
	"net/http"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/handler"
	"github.com/dukerupert/deltamc/internal/telemetry"
)

// RewardHandler serves the event reward redemption flow.
type RewardHandler struct {
	rewards domain.RewardService
}

func NewRewardHandler(rewards domain.RewardService) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

type validateCodeResponse struct {
	Valid              bool   `json:"valid"`
	Code               string `json:"code"`
	PercentageDiscount int    `json:"percentage_discount"`
}

type redeemRequest struct {
	Code     string `json:"code" validate:"required"`
	RewardID string `json:"reward_id" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// ValidateCode handles POST /api/rewards/validate
func (h *RewardHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req giftcardRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	card, err := h.rewards.ValidateCode(r.Context(), req.Code)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, validateCodeResponse{
		Valid:              true,
		Code:               card.Code,
		PercentageDiscount: card.PercentageDiscount,
	})
}

// List handles GET /api/rewards?username=
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	options, err := h.rewards.Rewards(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, options)
}

// Redeem handles POST /api/rewards/redeem
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := handler.DecodeJSON(w, r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	telemetry.SetPlayer(r.Context(), req.Username)

	result, err := h.rewards.Redeem(r.Context(), domain.RedeemRequest{
		Code:     req.Code,
		RewardID: req.RewardID,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, result)
}
