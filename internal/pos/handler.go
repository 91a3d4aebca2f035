package pos

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comandaclub/comanda/internal/offline"
	"github.com/comandaclub/comanda/pkg/enums/itemstatus"
)

const MaxBodyBytes = 1 << 20

// Handler exposes the POS core to the surrounding application. Check CRUD
// routes through the connectivity-aware dispatcher so callers are
// indifferent to online/offline mode; reconciliation transactions run
// immediately when online and are queued otherwise.
type Handler struct {
	service     *Service
	checks      CheckRepo
	orders      OrderRepo
	ingredients IngredientRepo
	dispatcher  *offline.Dispatcher
	syncer      *offline.Syncer
	queue       *offline.Queue
	port        offline.ConnectivityPort
	logger      apt.Logger
	config      *apt.Config
	tlm         *telemetry.HTTP
}

type HandlerDeps struct {
	Service     *Service
	Checks      CheckRepo
	Orders      OrderRepo
	Ingredients IngredientRepo
	Dispatcher  *offline.Dispatcher
	Syncer      *offline.Syncer
	Queue       *offline.Queue
	Port        offline.ConnectivityPort
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		service:     hd.Service,
		checks:      hd.Checks,
		orders:      hd.Orders,
		ingredients: hd.Ingredients,
		dispatcher:  hd.Dispatcher,
		syncer:      hd.Syncer,
		queue:       hd.Queue,
		port:        hd.Port,
		logger:      logger,
		config:      config,
		tlm:         telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/checks", func(r chi.Router) {
		r.Post("/", h.CreateCheck)
		r.Get("/", h.ListChecks)
		r.Get("/{id}", h.GetCheck)
		r.Put("/{id}", h.UpdateCheck)
		r.Delete("/{id}", h.DeleteCheck)
		r.Post("/{id}/dispatch", h.DispatchCheck)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.AdvanceOrder)
		r.Patch("/{id}/items/{lineID}/cancel", h.CancelOrderItem)
		r.Post("/{id}/items/{lineID}/edit", h.EditOrderItem)
	})

	r.Route("/ingredients", func(r chi.Router) {
		r.Get("/", h.ListIngredients)
		r.Get("/{id}", h.GetIngredient)
	})

	r.Route("/sync", func(r chi.Router) {
		r.Get("/", h.SyncStatus)
		r.Post("/drain", h.Drain)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// Check handlers

func (h *Handler) CreateCheck(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateCheck")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	var check Check
	if _, ok := h.decodeBody(w, r, &check); !ok {
		return
	}
	if check.OrderType == "" {
		apt.RespondError(w, http.StatusBadRequest, "Order type is required")
		return
	}
	for i := range check.Items {
		if check.Items[i].Quantity <= 0 {
			apt.RespondError(w, http.StatusBadRequest, "Item quantity must be positive")
			return
		}
		if check.Items[i].ID == uuid.Nil {
			check.Items[i].ID = apt.GenerateNewID()
		}
		if check.Items[i].Status == "" {
			check.Items[i].Status = itemstatus.Statuses.New.Name
		}
	}
	check.BeforeCreate()

	// The normalized document is what gets stored, not the raw request
	// body, so defaulted statuses and timestamps survive the round trip.
	payload, err := json.Marshal(&check)
	if err != nil {
		log.Errorf("cannot marshal check: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create check")
		return
	}

	result, err := h.dispatcher.Add(ctx, "checks", payload)
	if err != nil {
		log.Errorf("cannot create check: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create check")
		return
	}

	apt.RespondSuccess(w, result)
}

func (h *Handler) ListChecks(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListChecks")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	checks, err := h.checks.List(ctx)
	if err != nil {
		log.Errorf("cannot list checks: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list checks")
		return
	}

	apt.RespondSuccess(w, checks)
}

func (h *Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetCheck")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	check, err := h.checks.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot get check: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not get check")
		return
	}
	if check == nil {
		apt.RespondError(w, http.StatusNotFound, "Check not found")
		return
	}

	apt.RespondSuccess(w, check)
}

func (h *Handler) UpdateCheck(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateCheck")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	idStr := chi.URLParam(r, "id")
	if _, err := uuid.Parse(idStr); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid check ID")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Cannot read request body")
		return
	}
	if !json.Valid(body) {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	result, err := h.dispatcher.Update(ctx, "checks/"+idStr, body)
	if err != nil {
		log.Errorf("cannot update check: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update check")
		return
	}

	apt.RespondSuccess(w, result)
}

func (h *Handler) DeleteCheck(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteCheck")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	idStr := chi.URLParam(r, "id")
	if _, err := uuid.Parse(idStr); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid check ID")
		return
	}

	result, err := h.dispatcher.Delete(ctx, "checks/"+idStr)
	if err != nil {
		log.Errorf("cannot delete check: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete check")
		return
	}

	apt.RespondSuccess(w, result)
}

func (h *Handler) DispatchCheck(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DispatchCheck")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if !h.port.Online(ctx) {
		h.queueTransaction(w, r, "checks/"+id.String(), QueuedTransaction{
			Op:      TxOpDispatchCheck,
			CheckID: id.String(),
		})
		return
	}

	result, err := h.service.DispatchCheck(ctx, id)
	if err != nil {
		h.respondDomainError(w, log, "cannot dispatch check", err)
		return
	}

	apt.RespondSuccess(w, result)
}

// Order handlers

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	var orders []*Order
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		orders, err = h.orders.ListByStatus(ctx, status)
	} else {
		orders, err = h.orders.List(ctx)
	}
	if err != nil {
		log.Errorf("cannot list orders: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list orders")
		return
	}

	apt.RespondSuccess(w, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot get order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not get order")
		return
	}
	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.RespondSuccess(w, order)
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AdvanceOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if _, ok := h.decodeBody(w, r, &req); !ok {
		return
	}
	if req.Status == "" {
		apt.RespondError(w, http.StatusBadRequest, "Status is required")
		return
	}

	if !h.port.Online(ctx) {
		h.queueTransaction(w, r, "orders/"+id.String(), QueuedTransaction{
			Op:      TxOpAdvanceOrder,
			OrderID: id.String(),
			Status:  req.Status,
		})
		return
	}

	if err := h.service.AdvanceOrder(ctx, id, req.Status); err != nil {
		h.respondDomainError(w, log, "cannot advance order", err)
		return
	}

	apt.RespondSuccess(w, map[string]string{"status": req.Status})
}

func (h *Handler) CancelOrderItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelOrderItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(w, r, "lineID")
	if !ok {
		return
	}

	if !h.port.Online(ctx) {
		h.queueTransaction(w, r, "orders/"+orderID.String(), QueuedTransaction{
			Op:      TxOpCancelOrderItem,
			OrderID: orderID.String(),
			LineID:  lineID.String(),
		})
		return
	}

	if err := h.service.CancelOrderItem(ctx, orderID, lineID); err != nil {
		h.respondDomainError(w, log, "cannot cancel order item", err)
		return
	}

	apt.RespondSuccess(w, map[string]string{"status": itemstatus.Statuses.Cancelled.Name})
}

func (h *Handler) EditOrderItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.EditOrderItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	orderID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(w, r, "lineID")
	if !ok {
		return
	}

	var replacement LineItem
	if _, ok := h.decodeBody(w, r, &replacement); !ok {
		return
	}
	if replacement.Quantity <= 0 {
		apt.RespondError(w, http.StatusBadRequest, "Item quantity must be positive")
		return
	}

	if !h.port.Online(ctx) {
		h.queueTransaction(w, r, "orders/"+orderID.String(), QueuedTransaction{
			Op:      TxOpEditOrderItem,
			OrderID: orderID.String(),
			LineID:  lineID.String(),
			Item:    &replacement,
		})
		return
	}

	newLineID, err := h.service.EditOrderItem(ctx, orderID, lineID, replacement)
	if err != nil {
		h.respondDomainError(w, log, "cannot edit order item", err)
		return
	}

	apt.RespondSuccess(w, map[string]string{"new_line_id": newLineID.String()})
}

// Ingredient handlers

func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListIngredients")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	ingredients, err := h.ingredients.List(ctx)
	if err != nil {
		log.Errorf("cannot list ingredients: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list ingredients")
		return
	}

	apt.RespondSuccess(w, ingredients)
}

func (h *Handler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetIngredient")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	ingredient, err := h.ingredients.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot get ingredient: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not get ingredient")
		return
	}
	if ingredient == nil {
		apt.RespondError(w, http.StatusNotFound, "Ingredient not found")
		return
	}

	apt.RespondSuccess(w, ingredient)
}

// Sync handlers

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SyncStatus")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	pending, err := h.queue.Len(ctx)
	if err != nil {
		log.Errorf("cannot count pending mutations: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not read queue")
		return
	}

	apt.RespondSuccess(w, map[string]interface{}{
		"online":  h.port.Online(ctx),
		"pending": pending,
	})
}

// Drain replays the offline queue. Only ever called after the operator
// confirmed the prompt that follows a connectivity-regained event.
func (h *Handler) Drain(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Drain")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	if !h.port.Online(ctx) {
		apt.RespondError(w, http.StatusConflict, "Device is offline")
		return
	}

	result, err := h.syncer.Drain(ctx, offline.DrainCallbacks{
		OnApplied: func(m offline.PendingMutation, completed, total int) {
			log.Info("applied queued mutation", "path", m.TargetPath, "completed", completed, "total", total)
		},
		OnError: func(m offline.PendingMutation, err error) {
			log.Errorf("drain stopped at %s: %v", m.TargetPath, err)
		},
	})
	if err != nil {
		log.Errorf("cannot drain queue: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not drain queue")
		return
	}

	apt.RespondSuccess(w, result)
}

// helpers

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Cannot read request body")
		return nil, false
	}
	if err := json.Unmarshal(body, v); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return nil, false
	}
	return body, true
}

func (h *Handler) queueTransaction(w http.ResponseWriter, r *http.Request, path string, qt QueuedTransaction) {
	log := h.log(r)
	payload, err := json.Marshal(qt)
	if err != nil {
		log.Errorf("cannot marshal queued transaction: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not queue operation")
		return
	}
	result, err := h.dispatcher.Transaction(r.Context(), path, payload)
	if err != nil {
		log.Errorf("cannot queue transaction: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not queue operation")
		return
	}
	apt.RespondSuccess(w, result)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, log apt.Logger, msg string, err error) {
	var notFound *NotFoundError
	var stock *InsufficientStockError
	var transition *TransitionError
	var conflict *ConflictError

	switch {
	case errors.As(err, &notFound):
		apt.RespondError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &stock):
		apt.RespondError(w, http.StatusConflict, stock.Error())
	case errors.As(err, &transition):
		apt.RespondError(w, http.StatusConflict, transition.Error())
	case errors.As(err, &conflict):
		apt.RespondError(w, http.StatusConflict, conflict.Error())
	default:
		log.Errorf("%s: %v", msg, err)
		apt.RespondError(w, http.StatusInternalServerError, "Operation failed")
	}
}
