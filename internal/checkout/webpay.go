package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/config"
	"github.com/shopspring/decimal"
)

const (
	transactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"
	// Webpay's card form; a still-initialized token can be posted here again.
	initTransactionPath = "/webpayserver/initTransaction"
)

// GatewayError is a failed gateway call. Kind is one of the apperr gateway sentinels, or nil
// when the failure has no specific class.
type GatewayError struct {
	Op         string
	StatusCode int
	Message    string
	Kind       error
}

func (e *GatewayError) Error() string {
	var b strings.Builder
	b.WriteString("webpay " + e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

func (e *GatewayError) Unwrap() error { return e.Kind }

// WebpayClient talks to the Webpay Plus REST API.
type WebpayClient struct {
	BaseURL      string
	CommerceCode string
	APIKey       string
	// Timeout bounds each call on top of the caller's context.
	Timeout time.Duration
	HTTP    *http.Client
}

var _ Gateway = (*WebpayClient)(nil)

func NewWebpayClient(cfg config.WebpayConfig) *WebpayClient {
	return &WebpayClient{
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		CommerceCode: cfg.CommerceCode,
		APIKey:       cfg.APIKey,
		Timeout:      cfg.Timeout,
		HTTP:         &http.Client{Timeout: cfg.Timeout},
	}
}

type createRequest struct {
	BuyOrder  string      `json:"buy_order"`
	SessionID string      `json:"session_id"`
	Amount    json.Number `json:"amount"`
	ReturnURL string      `json:"return_url"`
}

type createResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type transactionResponse struct {
	Status            string          `json:"status"`
	BuyOrder          string          `json:"buy_order"`
	SessionID         string          `json:"session_id"`
	Amount            decimal.Decimal `json:"amount"`
	ResponseCode      *int            `json:"response_code"`
	AuthorizationCode string          `json:"authorization_code"`
}

func (r transactionResponse) transaction() Transaction {
	return Transaction{
		Status:            r.Status,
		BuyOrder:          r.BuyOrder,
		SessionID:         r.SessionID,
		Amount:            r.Amount,
		ResponseCode:      r.ResponseCode,
		AuthorizationCode: r.AuthorizationCode,
	}
}

func (c *WebpayClient) Create(ctx context.Context, buyOrder, sessionID string, amount decimal.Decimal, returnURL string) (CreateResult, error) {
	body := createRequest{
		BuyOrder:  buyOrder,
		SessionID: sessionID,
		Amount:    json.Number(amount.String()),
		ReturnURL: returnURL,
	}
	var resp createResponse
	if err := c.do(ctx, "create", http.MethodPost, transactionsPath, body, &resp); err != nil {
		return CreateResult{}, err
	}
	if resp.Token == "" || resp.URL == "" {
		return CreateResult{}, &GatewayError{Op: "create", Message: "response without token or url"}
	}
	return CreateResult{Token: resp.Token, URL: resp.URL}, nil
}

func (c *WebpayClient) Status(ctx context.Context, token string) (StatusResult, error) {
	var resp transactionResponse
	if err := c.do(ctx, "status", http.MethodGet, transactionsPath+"/"+url.PathEscape(token), nil, &resp); err != nil {
		return StatusResult{}, err
	}
	res := StatusResult{Transaction: resp.transaction()}
	if Resumable(resp.Status) {
		res.URL = c.BaseURL + initTransactionPath
	}
	return res, nil
}

func (c *WebpayClient) Commit(ctx context.Context, token string) (CommitResult, error) {
	var resp transactionResponse
	if err := c.do(ctx, "commit", http.MethodPut, transactionsPath+"/"+url.PathEscape(token), nil, &resp); err != nil {
		return CommitResult{}, err
	}
	return CommitResult{Transaction: resp.transaction()}, nil
}

func (c *WebpayClient) do(ctx context.Context, op, method, path string, in, out any) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("webpay %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("webpay %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Tbk-Api-Key-Id", c.CommerceCode)
	req.Header.Set("Tbk-Api-Key-Secret", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &GatewayError{Op: op, Message: err.Error(), Kind: transportKind(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: "read response: " + err.Error(), Kind: transportKind(err)}
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Message string `json:"error_message"`
		}
		_ = json.Unmarshal(raw, &e)
		ge := &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: e.Message}
		// 404 and 422 mean the token is unknown, expired or already used.
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity {
			ge.Kind = apperr.ErrGatewayToken
		}
		return ge
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: "decode response: " + err.Error()}
		}
	}
	return nil
}

func transportKind(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.ErrGatewayTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return apperr.ErrGatewayTimeout
	}
	return apperr.ErrGatewayNetwork
}
