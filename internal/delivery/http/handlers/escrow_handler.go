package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-escrow-service/internal/delivery/http/dto"
	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	escrowdto "github.com/LavaJover/shvark-escrow-service/internal/usecase/dto/escrow"
	usecase "github.com/LavaJover/shvark-escrow-service/internal/usecase/escrow"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

type EscrowHandler struct {
	uc usecase.EscrowUsecase
}

func NewEscrowHandler(uc usecase.EscrowUsecase) *EscrowHandler {
	return &EscrowHandler{uc: uc}
}

// NewRouter serves the payment and milestone webhooks together with health
// and metrics endpoints. gatherer may be nil to use the default registry.
func NewRouter(h *EscrowHandler, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/orders/{orderID}", func(r chi.Router) {
		r.Get("/", h.GetOrderState)
		r.Post("/payment", h.ConfirmPayment)
		r.Post("/approvals", h.RecordApproval)
		r.Post("/milestones/{milestone}", h.ReleaseOnMilestone)
		r.Post("/disputes", h.RaiseDispute)
	})
	return r
}

func (h *EscrowHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	var req dto.PaymentConfirmedRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, domain.InvalidInput(orderID, err.Error()))
		return
	}
	state, err := h.uc.ConfirmPayment(r.Context(), &escrowdto.ConfirmPaymentInput{
		OrderID:          orderID,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderStateResponse(state))
}

func (h *EscrowHandler) RecordApproval(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	var req dto.ApprovalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, domain.InvalidInput(orderID, err.Error()))
		return
	}
	result, err := h.uc.RecordApproval(r.Context(), &escrowdto.RecordApprovalInput{
		OrderID: orderID,
		BankID:  req.BankID,
		Action:  req.Action,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ApprovalResponse{
		OrderID:            result.OrderID,
		ApprovalID:         result.ApprovalID,
		Status:             string(result.Status),
		BuyerBankApproved:  result.BuyerBankApproved,
		SellerBankApproved: result.SellerBankApproved,
		Transitioned:       result.Transitioned,
	})
}

// ReleaseOnMilestone is the shipment and delivery webhook. Replays of a
// completed milestone answer 200 with already_released set.
func (h *EscrowHandler) ReleaseOnMilestone(w http.ResponseWriter, r *http.Request) {
	result, err := h.uc.ReleaseOnMilestone(r.Context(), &escrowdto.ReleaseOnMilestoneInput{
		OrderID:   chi.URLParam(r, "orderID"),
		Milestone: chi.URLParam(r, "milestone"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ReleaseResponse{
		OrderID:         result.OrderID,
		Milestone:       string(result.Milestone),
		Tranche:         string(result.Tranche),
		Amount:          result.Amount.StringFixed(2),
		SettlementRef:   result.SettlementRef,
		Status:          string(result.Status),
		AlreadyReleased: result.AlreadyReleased,
	})
}

func (h *EscrowHandler) RaiseDispute(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	var req dto.DisputeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, domain.InvalidInput(orderID, err.Error()))
		return
	}
	dispute, err := h.uc.RaiseDispute(r.Context(), &escrowdto.RaiseDisputeInput{
		OrderID:  orderID,
		RaisedBy: req.RaisedBy,
		Reason:   req.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDisputeView(dispute))
}

func (h *EscrowHandler) GetOrderState(w http.ResponseWriter, r *http.Request) {
	state, err := h.uc.GetOrderState(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderStateResponse(state))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		slog.ErrorContext(r.Context(), "escrow request failed",
			"path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "INTERNAL",
			Message: "internal error",
		})
		return
	}
	writeJSON(w, httpStatus(de), dto.ErrorResponse{
		Error:     string(de.Kind),
		Message:   de.Message,
		OrderID:   de.OrderID,
		Retryable: de.Retryable,
		Context:   de.Context,
	})
}

func httpStatus(e *domain.Error) int {
	switch e.Kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindUnknownOrder:
		return http.StatusNotFound
	case domain.KindUnauthorizedBank:
		return http.StatusForbidden
	case domain.KindIllegalTransition, domain.KindOrderFrozen, domain.KindTotalLocked:
		return http.StatusConflict
	case domain.KindReleaseFailed:
		if e.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func toDisputeView(d *domain.Dispute) *dto.DisputeView {
	if d == nil {
		return nil
	}
	return &dto.DisputeView{
		DisputeID:      d.ID,
		RaisedBy:       d.RaisedBy,
		Reason:         d.Reason,
		Status:         string(d.Status),
		SettledAmount:  d.SettledAmount.StringFixed(2),
		DisputedAmount: d.DisputedAmount.StringFixed(2),
	}
}

func toOrderStateResponse(s *escrowdto.OrderStateOutput) dto.OrderStateResponse {
	releases := make([]dto.ReleaseView, 0, len(s.Releases))
	for _, rel := range s.Releases {
		releases = append(releases, dto.ReleaseView{
			Tranche:       string(rel.Tranche),
			State:         string(rel.State),
			Amount:        rel.Amount.StringFixed(2),
			SettlementRef: rel.SettlementRef,
			Attempts:      rel.Attempts,
			LastError:     rel.LastError,
		})
	}
	return dto.OrderStateResponse{
		OrderID:            s.OrderID,
		Code:               s.Code,
		Status:             string(s.Status),
		Total:              s.Total.StringFixed(2),
		Currency:           s.Currency,
		BuyerBankApproved:  s.BuyerBankApproved,
		SellerBankApproved: s.SellerBankApproved,
		PaymentReference:   s.PaymentReference,
		FirstTrancheRef:    s.FirstTrancheRef,
		SecondTrancheRef:   s.SecondTrancheRef,
		ReleasedAmount:     s.ReleasedAmount.StringFixed(2),
		Frozen:             s.Frozen,
		PartiallySettled:   s.PartiallySettled,
		Releases:           releases,
		OpenDispute:        toDisputeView(s.OpenDispute),
	}
}
