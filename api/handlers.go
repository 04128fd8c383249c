/*
handlers.go - HTTP API handlers for the installment ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to ledger.Service.

ENDPOINTS:
  Plans:
    GET    /api/plans                                List plans (?q=&status=&from=)
    GET    /api/plans/due                            Plans with an entry due (?limit=)
    GET    /api/plans/{id}                           Plan details
    POST   /api/plans/{id}/payments                  Record a payment
    GET    /api/plans/{id}/payments/{number}/receipt Receipt data for reprint

  Audit:
    GET    /api/installment-transactions             Audit log (?plan_id=)

  Dashboard:
    GET    /api/kpis                                 Portfolio KPIs
    GET    /api/sales                                Sales (?owing=&method=&customer_id=)
    GET    /api/sales/stats                          Sales summary (?customer_id=)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid amount or method, malformed body or query
  - 404: Plan, schedule entry or receipt not found
  - 409: Version conflict, replayed idempotency key
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/pos-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *ledger.Service
	Logger  *zap.Logger
}

// NewHandler creates a new handler over the given service.
func NewHandler(service *ledger.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Logger: logger}
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns plans matching the q, status and from query parameters.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.PlanFilter{
		Query:  q.Get("q"),
		Status: ledger.PlanStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status", nil)
		return
	}
	if from := q.Get("from"); from != "" {
		t, ok := ledger.ParseDate(from)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid from date", nil)
			return
		}
		filter.StartedFrom = ledger.FormatDate(t)
	}

	plans, err := h.Service.Plans(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "Failed to list plans", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTOs(plans, h.Service.Now()))
}

// ListDuePlans returns plans with a pending or overdue entry due today or earlier.
func (h *Handler) ListDuePlans(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	plans, err := h.Service.DuePlans(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, "Failed to list due plans", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTOs(plans, h.Service.Now()))
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Service.Plan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Plan not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan, h.Service.Now()))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RecordPayment applies a payment to one schedule entry of the plan.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Service.RecordPayment(r.Context(), ledger.PaymentCommand{
		PlanID:          chi.URLParam(r, "id"),
		PaymentNumber:   req.PaymentNumber,
		Amount:          req.Amount,
		Method:          ledger.PaymentMethod(req.Method),
		IdempotencyKey:  req.IdempotencyKey,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to record payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, RecordPaymentResponse{
		Plan:        toPlanDTO(result.Plan, h.Service.Now()),
		Transaction: toTransactionDTO(result.Transaction),
		Receipt:     result.Receipt,
		ReceiptText: string(result.Rendered),
	})
}

// GetReceipt returns the receipt of an already recorded payment.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment number", err)
		return
	}

	receipt, err := h.Service.Receipt(r.Context(), chi.URLParam(r, "id"), number)
	if err != nil {
		h.writeServiceError(w, "Receipt not found", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// ListInstallmentTransactions returns the audit log, optionally for one plan.
func (h *Handler) ListInstallmentTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Service.Transactions(r.Context(), r.URL.Query().Get("plan_id"))
	if err != nil {
		h.writeServiceError(w, "Failed to load transactions", err)
		return
	}

	dtos := make([]InstallmentTransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

func (h *Handler) GetKpis(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.Service.Kpis(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to compute KPIs", err)
		return
	}
	writeJSON(w, http.StatusOK, toKpisDTO(kpis))
}

// ListSales returns POS sales with their settled flag.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.SalesFilter{
		Method:     ledger.SaleMethod(q.Get("method")),
		CustomerID: q.Get("customer_id"),
	}
	if s := q.Get("owing"); s != "" {
		owing, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid owing flag", err)
			return
		}
		filter.OwingOnly = owing
	}

	sales, err := h.Service.Sales(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, tx := range sales {
		dtos[i] = toSaleDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetSalesStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.SalesStats(r.Context(), r.URL.Query().Get("customer_id"))
	if err != nil {
		h.writeServiceError(w, "Failed to summarize sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesStatsDTO(stats))
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// writeServiceError maps ledger errors to HTTP status codes. Conflicts are
// checked first: a replayed idempotency key is also a client error.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
