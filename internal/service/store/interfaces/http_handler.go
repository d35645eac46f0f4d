package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain/port"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/store/application"
)

// StoreHandler exposes the authoritative store endpoints consumed by the
// fulfillment coordinator.
type StoreHandler struct {
	service *application.Service
}

func NewStoreHandler(service *application.Service) *StoreHandler {
	return &StoreHandler{service: service}
}

func (h *StoreHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stores/", h.getStoreHandler)
	mux.HandleFunc("/orders/update_item_status", h.updateItemStatusHandler)
	mux.HandleFunc("/orders/fulfill_items", h.fulfillItemsHandler)
	mux.HandleFunc("/orders/cancel", h.cancelOrderHandler)
}

func (h *StoreHandler) getStoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	storeID := strings.TrimPrefix(r.URL.Path, "/stores/")
	if storeID == "" || strings.Contains(storeID, "/") {
		http.Error(w, "store id is required", http.StatusBadRequest)
		return
	}

	store, err := h.service.GetStore(ctx, storeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, store)
}

func (h *StoreHandler) updateItemStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var cmd port.UpdateItemStatusCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if cmd.StoreID == "" || cmd.OrderID == "" || cmd.OrderItemID == "" || cmd.UserID == "" || cmd.StatusToSet == "" {
		http.Error(w, "storeId, orderId, orderItemId, userId and statusToSet are required", http.StatusBadRequest)
		return
	}

	store, err := h.service.ApplyItemStatus(ctx, &cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, store)
}

func (h *StoreHandler) fulfillItemsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var cmd port.FulfillOrderItemsCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if cmd.StoreID == "" || cmd.OrderID == "" || cmd.UserID == "" {
		http.Error(w, "storeId, orderId and userId are required", http.StatusBadRequest)
		return
	}

	store, err := h.service.ApplyBulkFulfillment(ctx, &cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, store)
}

type cancelOrderRequest struct {
	StoreID           string `json:"storeId"`
	OrderID           string `json:"orderId"`
	UserID            string `json:"userId"`
	ReturnToInventory bool   `json:"returnToInventory,omitempty"`
}

func (h *StoreHandler) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.StoreID == "" || req.OrderID == "" || req.UserID == "" {
		http.Error(w, "storeId, orderId and userId are required", http.StatusBadRequest)
		return
	}

	store, err := h.service.CancelOrder(ctx, req.StoreID, req.OrderID, req.UserID, req.ReturnToInventory)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, store)
}

func (h *StoreHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrStoreNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Ctx(r.Context()).Error().Err(err).Msg("store api request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
