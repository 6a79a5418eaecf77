package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"villabay/internal/app/policies"
	"villabay/internal/domain/shared/money"
)

// HTTPAdapter talks to the payment processor over REST. Transport
// errors and timeouts come back as SettlementUnknown: the charge may
// or may not have landed, so the caller must reconcile.
type HTTPAdapter struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPAdapter(baseURL string, timeout time.Duration) *HTTPAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAdapter{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type chargeRequest struct {
	BookingID string `json:"booking_uid"`
	Method    string `json:"payment_method"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type refundRequest struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

type settlementResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

func (a *HTTPAdapter) Charge(ctx context.Context, bookingID, method string, amount money.Money) (policies.ChargeResult, error) {
	body := chargeRequest{BookingID: bookingID, Method: method, Amount: amount.Amount, Currency: amount.Currency}
	var resp settlementResponse
	if err := a.post(ctx, "/charges", body, &resp); err != nil {
		return policies.ChargeResult{Status: policies.SettlementUnknown}, err
	}
	return policies.ChargeResult{Status: mapStatus(resp.Status), TransactionID: resp.TransactionID}, nil
}

func (a *HTTPAdapter) Refund(ctx context.Context, transactionID string, amount money.Money) (policies.RefundResult, error) {
	body := refundRequest{TransactionID: transactionID, Amount: amount.Amount, Currency: amount.Currency}
	var resp settlementResponse
	if err := a.post(ctx, "/refunds", body, &resp); err != nil {
		return policies.RefundResult{Status: policies.SettlementUnknown}, err
	}
	return policies.RefundResult{Status: mapStatus(resp.Status)}, nil
}

func (a *HTTPAdapter) Lookup(ctx context.Context, bookingID string) (policies.ChargeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/charges/"+bookingID, nil)
	if err != nil {
		return policies.ChargeResult{Status: policies.SettlementUnknown}, err
	}
	var resp settlementResponse
	if err := a.do(req, &resp); err != nil {
		return policies.ChargeResult{Status: policies.SettlementUnknown}, err
	}
	return policies.ChargeResult{Status: mapStatus(resp.Status), TransactionID: resp.TransactionID}, nil
}

func (a *HTTPAdapter) post(ctx context.Context, path string, body any, out *settlementResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *HTTPAdapter) do(req *http.Request, out *settlementResponse) error {
	res, err := a.Client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("settlement: request timed out: %w", err)
		}
		return fmt.Errorf("settlement: request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 500 {
		return fmt.Errorf("settlement: processor returned %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func mapStatus(s string) policies.SettlementStatus {
	switch s {
	case "succeeded":
		return policies.SettlementSucceeded
	case "failed", "declined":
		return policies.SettlementFailed
	default:
		return policies.SettlementUnknown
	}
}

var _ policies.SettlementPort = (*HTTPAdapter)(nil)
