package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

const IdempotencyHeader = "Idempotency-Key"

// HTTPSettlementClient talks to the ledger service. Each release carries an
// Idempotency-Key of order id and tranche label, so a re-issued release is
// recognised by the backend.
type HTTPSettlementClient struct {
	Address string
	client  *http.Client
}

func NewHTTPSettlementClient(address string, timeout time.Duration) (*HTTPSettlementClient, error) {
	if strings.TrimSpace(address) == "" {
		return nil, errors.New("settlement service address is empty")
	}
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return &HTTPSettlementClient{
		Address: strings.TrimRight(address, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func IdempotencyKey(orderRef, trancheLabel string) string {
	return orderRef + ":" + trancheLabel
}

func (h *HTTPSettlementClient) Release(ctx context.Context, req domain.SettlementRequest) (string, error) {
	requestBodyBytes, err := json.Marshal(ReleaseRequest{
		OrderID:           req.OrderRef,
		TrancheLabel:      req.TrancheLabel,
		Amount:            req.Amount.StringFixed(2),
		Currency:          req.Currency,
		SettlementAddress: req.SettlementAddress,
	})
	if err != nil {
		return "", &domain.SettlementError{Transient: false, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/escrow/release", h.Address), bytes.NewReader(requestBodyBytes))
	if err != nil {
		return "", &domain.SettlementError{Transient: false, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(IdempotencyHeader, IdempotencyKey(req.OrderRef, req.TrancheLabel))

	response, err := h.client.Do(httpReq)
	if err != nil {
		// The backend may or may not have executed the release. Retrying is
		// safe because the idempotency key pins the outcome.
		return "", &domain.SettlementError{Transient: true, Err: err}
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return "", &domain.SettlementError{Transient: true, Err: err}
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		var releaseResponse ReleaseResponse
		if err := json.Unmarshal(responseBodyBytes, &releaseResponse); err != nil {
			return "", &domain.SettlementError{Transient: false, Err: fmt.Errorf("malformed release response: %w", err)}
		}
		return releaseResponse.SettlementRef, nil
	}

	msg := fmt.Sprintf("settlement service returned status %d", response.StatusCode)
	var errorResponse ErrorResponse
	if err := json.Unmarshal(responseBodyBytes, &errorResponse); err == nil && errorResponse.Error != "" {
		msg = fmt.Sprintf("%s: %s", msg, errorResponse.Error)
	}
	return "", &domain.SettlementError{Transient: transientStatus(response.StatusCode), Err: errors.New(msg)}
}

func transientStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}
