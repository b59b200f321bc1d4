package api

import (
	"net/http"

	"github.com/google/uuid"
)

// CartSessionHeader carries the cart session id in both directions.
const CartSessionHeader = "X-Cart-Session"

// cartSession returns the session id sent by the client. A missing or
// malformed id is replaced by a new one, which is echoed back in the response
// header so the client can keep using it.
func cartSession(w http.ResponseWriter, r *http.Request) string {
	id, err := uuid.Parse(r.Header.Get(CartSessionHeader))
	if err != nil {
		id = uuid.New()
	}
	w.Header().Set(CartSessionHeader, id.String())
	return id.String()
}
