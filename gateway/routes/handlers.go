package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	coreerrors "novaperp/core/errors"
	"novaperp/core/oracle"
	"novaperp/core/types"
	"novaperp/native/engine"
	"novaperp/native/matching"
	"novaperp/observability/metrics"
)

type handlers struct {
	engine    *engine.Engine
	users     UserStore
	oracleTol oracle.Tolerances
}

func newHandlers(e *engine.Engine, users UserStore, oracleTol oracle.Tolerances) *handlers {
	return &handlers{engine: e, users: users, oracleTol: oracleTol}
}

func (h *handlers) loadUser(w http.ResponseWriter, r *http.Request, authority string) *types.User {
	u, err := h.users.LoadUser(authority)
	if err != nil {
		writeError(w, http.StatusNotFound, "account not found")
		return nil
	}
	return u
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func engineErrorStatus(err error) int {
	if _, ok := coreerrors.CodeOf(err); ok {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func rejectionCode(err error) string {
	if code, ok := coreerrors.CodeOf(err); ok {
		return code.String()
	}
	return "unknown"
}

// placePerpOrderRequest mirrors matching.PlaceParams's JSON-facing fields;
// the struct is kept separate from PlaceParams so the wire contract does
// not silently change shape when the internal type gains new fields.
type placePerpOrderRequest struct {
	Authority         string                  `json:"authority"`
	MarketIndex       uint16                  `json:"market_index"`
	Direction         types.PositionDirection `json:"direction"`
	BaseAssetAmount   int64                   `json:"base_asset_amount"`
	Price             int64                   `json:"price"`
	OrderType         types.OrderType         `json:"order_type"`
	UserOrderId       uint8                   `json:"user_order_id"`
	ReduceOnly        bool                    `json:"reduce_only"`
	PostOnly          bool                    `json:"post_only"`
	ImmediateOrCancel bool                    `json:"immediate_or_cancel"`
	MaxAffordable     int64                   `json:"max_affordable"`
}

type orderResponse struct {
	OrderIndex int `json:"order_index"`
}

func (h *handlers) placePerpOrder(w http.ResponseWriter, r *http.Request) {
	var req placePerpOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u := h.loadUser(w, r, req.Authority)
	if u == nil {
		return
	}

	params := matching.PlaceParams{
		MarketType:      types.MarketTypePerp,
		MarketIndex:     req.MarketIndex,
		Direction:       req.Direction,
		BaseAssetAmount: req.BaseAssetAmount,
		Price:           req.Price,
		OrderType:       req.OrderType,
		UserOrderId:     req.UserOrderId,
		ReduceOnly:      req.ReduceOnly,
		PostOnly:        req.PostOnly,
		ImmediateOrCancel: req.ImmediateOrCancel,
	}

	idx, err := h.engine.PlacePerpOrder(u, params, req.MaxAffordable)
	if err != nil {
		metrics.Engine().ObserveRejection(rejectionCode(err))
		writeError(w, engineErrorStatus(err), err.Error())
		return
	}
	if err := h.users.SaveUser(u); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist account")
		return
	}
	metrics.Engine().ObserveOrderPlaced(req.MarketIndex, strconv.Itoa(int(req.OrderType)))
	writeJSON(w, http.StatusOK, orderResponse{OrderIndex: idx})
}

type cancelOrderRequest struct {
	Authority string `json:"authority"`
	OrderId   uint32 `json:"order_id"`
}

func (h *handlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u := h.loadUser(w, r, req.Authority)
	if u == nil {
		return
	}

	if err := h.engine.CancelOrdersByIds(u, []uint32{req.OrderId}); err != nil {
		metrics.Engine().ObserveRejection(rejectionCode(err))
		writeError(w, engineErrorStatus(err), err.Error())
		return
	}
	if err := h.users.SaveUser(u); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist account")
		return
	}
	metrics.Engine().ObserveOrderCanceled(0)
	writeJSON(w, http.StatusOK, map[string]bool{"canceled": true})
}

type modifyOrderRequest struct {
	Authority       string `json:"authority"`
	OrderId         uint32 `json:"order_id"`
	BaseAssetAmount *int64 `json:"base_asset_amount,omitempty"`
	Price           *int64 `json:"price,omitempty"`
}

func (h *handlers) modifyOrder(w http.ResponseWriter, r *http.Request) {
	var req modifyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u := h.loadUser(w, r, req.Authority)
	if u == nil {
		return
	}

	params := matching.ModifyParams{
		BaseAssetAmount: req.BaseAssetAmount,
		Price:           req.Price,
	}
	idx, err := h.engine.ModifyOrder(u, req.OrderId, params, types.ModifyMustModify)
	if err != nil {
		metrics.Engine().ObserveRejection(rejectionCode(err))
		writeError(w, engineErrorStatus(err), err.Error())
		return
	}
	if err := h.users.SaveUser(u); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist account")
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{OrderIndex: idx})
}

type liquidatePerpRequest struct {
	VictimAuthority     string `json:"victim_authority"`
	LiquidatorAuthority string `json:"liquidator_authority"`
	MarketIndex         uint16 `json:"market_index"`
	MaxBaseAmount       int64  `json:"max_base_amount"`
}

func (h *handlers) liquidatePerp(w http.ResponseWriter, r *http.Request) {
	var req liquidatePerpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	victim := h.loadUser(w, r, req.VictimAuthority)
	if victim == nil {
		return
	}
	liquidator := h.loadUser(w, r, req.LiquidatorAuthority)
	if liquidator == nil {
		return
	}

	result, err := h.engine.LiquidatePerp(victim, liquidator, req.MarketIndex, req.MaxBaseAmount)
	if err != nil {
		metrics.Engine().ObserveRejection(rejectionCode(err))
		writeError(w, engineErrorStatus(err), err.Error())
		return
	}
	if err := h.users.SaveUser(victim); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist victim account")
		return
	}
	if err := h.users.SaveUser(liquidator); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist liquidator account")
		return
	}
	metrics.Engine().ObserveLiquidation(req.MarketIndex, "perp")
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) getAccount(w http.ResponseWriter, r *http.Request) {
	authority := chi.URLParam(r, "authority")
	u := h.loadUser(w, r, authority)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// pushOracleRequest is the keeper-submitted price update landing in
// h.engine.Oracles.Load; raw oracle-account decoding is a host collaborator
// out of scope per spec §1, so the gateway accepts the already-decoded
// reading directly.
type pushOracleRequest struct {
	Source        uint8 `json:"source"`
	Price         int64 `json:"price"`
	Confidence    uint64 `json:"confidence"`
	Slot          uint64 `json:"slot"`
	Twap          int64 `json:"twap"`
	Twap5Min      int64 `json:"twap_5min"`
}

func (h *handlers) pushOracle(w http.ResponseWriter, r *http.Request) {
	pubkey := chi.URLParam(r, "pubkey")
	var req pushOracleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := oracle.Key{Pubkey: pubkey, Source: oracle.Source(req.Source)}
	entry := h.engine.Oracles.Load(key, req.Price, req.Confidence, req.Slot, h.engine.Clock.Slot, req.Twap, req.Twap5Min, h.oracleTol)
	writeJSON(w, http.StatusOK, entry)
}
