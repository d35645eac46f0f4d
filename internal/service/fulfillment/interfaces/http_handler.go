package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/httpclient"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/application"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// FulfillmentHandler exposes the coordinator's mutations to the dashboard.
type FulfillmentHandler struct {
	service *application.Service
}

func NewFulfillmentHandler(service *application.Service) *FulfillmentHandler {
	return &FulfillmentHandler{service: service}
}

// RegisterRoutes registers all routes on the ServeMux.
func (h *FulfillmentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stores/", h.getStoreHandler)
	mux.HandleFunc("/orders/item_status", h.updateItemStatusHandler)
	mux.HandleFunc("/orders/fulfill_all", h.fulfillAllHandler)
}

func (h *FulfillmentHandler) updateItemStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.UpdateItemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.StoreID == "" || req.OrderID == "" || req.OrderItemID == "" || req.UserID == "" {
		http.Error(w, "storeId, orderId, orderItemId and userId are required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	store, err := h.service.UpdateOrderItemStatus(ctx, &req)
	mutationDuration.WithLabelValues("update_item_status").Observe(time.Since(start).Seconds())
	if err != nil {
		mutationsTotal.WithLabelValues("update_item_status", "error").Inc()
		h.writeError(w, r, err)
		return
	}
	mutationsTotal.WithLabelValues("update_item_status", "ok").Inc()

	writeJSON(w, store)
}

func (h *FulfillmentHandler) fulfillAllHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.FulfillOrderItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.StoreID == "" || req.OrderID == "" || req.UserID == "" {
		http.Error(w, "storeId, orderId and userId are required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	store, err := h.service.FulfillUnfulfilledOrderItems(ctx, &req)
	mutationDuration.WithLabelValues("fulfill_all").Observe(time.Since(start).Seconds())
	if err != nil {
		mutationsTotal.WithLabelValues("fulfill_all", "error").Inc()
		h.writeError(w, r, err)
		return
	}
	mutationsTotal.WithLabelValues("fulfill_all", "ok").Inc()

	writeJSON(w, store)
}

func (h *FulfillmentHandler) getStoreHandler(w http.ResponseWriter, r *http.Request) {
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

func (h *FulfillmentHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *httpclient.StatusError
	switch {
	case errors.Is(err, domain.ErrStoreNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &se):
		// The mutation was rolled back; tell the dashboard the remote
		// persistence rejected it.
		logger.Ctx(r.Context()).Error().Err(err).Msg("store api rejected mutation")
		http.Error(w, "store update failed", http.StatusBadGateway)
	default:
		logger.Ctx(r.Context()).Error().Err(err).Msg("mutation failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
