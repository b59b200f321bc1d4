package api

import (
	"net/http"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/handler"
	"github.com/dukerupert/deltamc/internal/middleware"
)

// ShopHandler serves the catalog and the community widgets.
type ShopHandler struct {
	shop domain.ShopService
}

func NewShopHandler(shop domain.ShopService) *ShopHandler {
	return &ShopHandler{shop: shop}
}

// Items handles GET /api/shop
func (h *ShopHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.shop.Items(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, items)
}

// Item handles GET /api/shop/{name}
func (h *ShopHandler) Item(w http.ResponseWriter, r *http.Request) {
	item, err := h.shop.ItemByName(r.Context(), r.PathValue("name"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, item)
}

// Supporters handles GET /api/supporters
//
// The feed is decoration; a failure answers with an empty list.
func (h *ShopHandler) Supporters(w http.ResponseWriter, r *http.Request) {
	supporters, err := h.shop.RecentSupporters(r.Context())
	if err != nil {
		middleware.GetLogger(r.Context()).Warn("failed to load recent supporters", "error", err)
		supporters = []domain.Supporter{}
	}
	handler.WriteJSON(w, http.StatusOK, supporters)
}

// OnlinePlayers handles GET /api/online-players
func (h *ShopHandler) OnlinePlayers(w http.ResponseWriter, r *http.Request) {
	counts, err := h.shop.OnlinePlayers(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, counts)
}
