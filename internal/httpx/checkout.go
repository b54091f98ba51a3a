package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/checkout"
	"github.com/shopspring/decimal"
)

type SessionManager interface {
	CreateOrResumeSession(ctx context.Context, orderID int64) (*checkout.Session, error)
	HandleReturnCallback(ctx context.Context, p checkout.CallbackParams) (*checkout.Outcome, error)
}

// CheckoutHandler answers with HTML: the gateway needs a browser-level POST to its form.
type CheckoutHandler struct {
	Sessions SessionManager
	// StorefrontURL is where result pages send the buyer afterwards.
	StorefrontURL string
}

type detail struct{ Label, Value string }

type page struct {
	Title    string
	Message  string
	Success  bool
	Details  []detail
	Redirect string
	Seconds  int
	Millis   int

	// set on the redirect page only
	FormAction string
	Token      string
}

func (h *CheckoutHandler) createTransaction(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDFromRequest(r)
	if err != nil {
		h.render(w, http.StatusBadRequest, page{
			Title:   "Payment error",
			Message: "The order id is required.",
			Details: []detail{{"Error", "Missing or invalid order id"}},
		})
		return
	}

	s, err := h.Sessions.CreateOrResumeSession(r.Context(), orderID)
	if err != nil {
		h.createFailed(w, r, err)
		return
	}

	p := page{
		Title:      "Processing payment",
		Message:    "You will be redirected to Webpay to complete your payment.",
		Success:    true,
		FormAction: s.URL,
		Token:      s.Token,
		Seconds:    2,
		Details: []detail{
			{"Order", s.BuyOrder},
			{"Amount", formatCLP(s.Amount)},
			{"Status", "Starting payment"},
		},
	}
	if s.Resumed {
		p.Title = "Resuming payment"
		p.Message = "This order already has a payment in progress. You will be redirected automatically."
		p.Details[2].Value = "Payment in progress"
	}
	h.render(w, http.StatusOK, p)
}

func (h *CheckoutHandler) createFailed(w http.ResponseWriter, r *http.Request, err error) {
	code := mapErrorToStatusCode(err)
	var msg, det string
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		msg, det = "The order does not exist.", "Order not found"
	case errors.Is(err, apperr.ErrInvalidInput):
		msg, det = "The order does not have a valid amount.", "Invalid amount"
	case errors.Is(err, apperr.ErrInvalidState):
		msg, det = "This order has already been paid.", "Order already paid"
	default:
		f := checkout.ClassifyCreate(err)
		msg, det = f.Message, f.Detail
		if code < http.StatusInternalServerError {
			code = http.StatusInternalServerError
		}
	}
	logFailure(r, code, err)
	h.render(w, code, page{
		Title:    "Payment error",
		Message:  msg,
		Details:  []detail{{"Detail", det}, {"Recommended action", "Try again in a few minutes"}},
		Redirect: h.StorefrontURL,
		Seconds:  5,
	})
}

func (h *CheckoutHandler) returnCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, page{Title: "Payment error", Message: "Malformed callback."})
		return
	}
	params := checkout.CallbackParams{
		TokenWS:      r.Form.Get("token_ws"),
		TBKToken:     r.Form.Get("TBK_TOKEN"),
		TBKBuyOrder:  r.Form.Get("TBK_ORDEN_COMPRA"),
		TBKSessionID: r.Form.Get("TBK_ID_SESION"),
	}
	if r.Method == http.MethodGet && params.TokenWS == "" && params.TBKToken == "" {
		h.finished(w)
		return
	}

	out, err := h.Sessions.HandleReturnCallback(r.Context(), params)
	if err != nil {
		h.confirmFailed(w, r, err)
		return
	}

	switch out.Kind {
	case checkout.OutcomeAborted:
		h.render(w, http.StatusOK, page{
			Title:    "Payment cancelled",
			Message:  "The payment was cancelled or rejected. No charge was made.",
			Details:  []detail{{"Order", orNA(out.BuyOrder)}, {"Status", "Cancelled/Rejected"}},
			Redirect: h.StorefrontURL,
			Seconds:  5,
		})
	case checkout.OutcomeAuthorized:
		h.render(w, http.StatusOK, page{
			Title:   "Payment successful",
			Message: "Your payment was processed successfully. Thank you for your purchase.",
			Success: true,
			Details: []detail{
				{"Order", out.BuyOrder},
				{"Amount paid", formatCLP(out.Amount)},
				{"Status", "Authorized"},
				{"Date", time.Now().Format("02-01-2006 15:04:05")},
			},
			Redirect: h.StorefrontURL,
			Seconds:  3,
		})
	default:
		code := "N/A"
		if out.ResponseCode != nil {
			code = strconv.Itoa(*out.ResponseCode)
		}
		h.render(w, http.StatusOK, page{
			Title:    "Payment not authorized",
			Message:  "The payment was not authorized by the bank.",
			Details:  []detail{{"Order", orNA(out.BuyOrder)}, {"Status", out.GatewayStatus}, {"Code", code}},
			Redirect: h.StorefrontURL,
			Seconds:  5,
		})
	}
}

func (h *CheckoutHandler) confirmFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.ErrInvalidInput) {
		logFailure(r, http.StatusBadRequest, err)
		h.render(w, http.StatusBadRequest, page{
			Title:    "Payment error",
			Message:  "No payment token was received.",
			Details:  []detail{{"Error", "Token not provided"}},
			Redirect: h.StorefrontURL,
			Seconds:  5,
		})
		return
	}
	code := mapErrorToStatusCode(err)
	if code < http.StatusInternalServerError {
		code = http.StatusInternalServerError
	}
	logFailure(r, code, err)
	f := checkout.ClassifyConfirm(err)
	h.render(w, code, page{
		Title:    "Payment error",
		Message:  f.Message,
		Details:  []detail{{"Detail", f.Detail}, {"Information", "You can try again later"}},
		Redirect: h.StorefrontURL,
		Seconds:  5,
	})
}

func (h *CheckoutHandler) finished(w http.ResponseWriter) {
	h.render(w, http.StatusOK, page{
		Title:   "Transaction finished",
		Message: "Your transaction has been processed.",
		Success: true,
		Details: []detail{{"Status", "Completed"}, {"Date", time.Now().Format("02-01-2006 15:04:05")}},
	})
}

func (h *CheckoutHandler) render(w http.ResponseWriter, code int, p page) {
	p.Millis = p.Seconds * 1000
	var buf strings.Builder
	if err := pageTemplate.Execute(&buf, p); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, buf.String())
}

// orderIDFromRequest accepts a form post or a JSON body.
func orderIDFromRequest(r *http.Request) (int64, error) {
	var raw string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
			return 0, apperr.Invalid("order_id", "invalid JSON")
		}
		for _, k := range []string{"order_id", "pedido_id"} {
			if v, ok := body[k]; ok {
				raw = strings.Trim(string(v), `"`)
				break
			}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return 0, apperr.Invalid("order_id", "malformed form")
		}
		raw = r.Form.Get("order_id")
		if raw == "" {
			raw = r.Form.Get("pedido_id")
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("order_id", "must be a positive integer")
	}
	return id, nil
}

// formatCLP renders whole pesos with dot separators, e.g. $15.000.
func formatCLP(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func logFailure(r *http.Request, code int, err error) {
	logFor(code).Err(err).Str("path", r.URL.Path).Int("status", code).Msg("checkout failed")
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} - Ferremas</title>
<style>
body{font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;background:#f8f9fa;display:flex;justify-content:center;align-items:center;min-height:100vh;margin:0;padding:20px}
.container{background:#fff;padding:2.5rem;border-radius:12px;box-shadow:0 4px 15px rgba(0,0,0,.1);text-align:center;max-width:550px;width:100%}
h1{color:{{if .Success}}#28a745{{else}}#dc3545{{end}}}
.details{margin:1.5rem 0;text-align:left;padding:1.2rem;background:#f8f9fa;border-radius:8px}
.button{background:#28a745;color:#fff;padding:14px 28px;border:none;border-radius:8px;font-size:1.1rem;cursor:pointer}
.loading{color:#6c757d}
</style>
</head>
<body>
<div class="container">
<h1>{{.Title}}</h1>
<p class="message">{{.Message}}</p>
{{if .Details}}<div class="details">{{range .Details}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>{{end}}</div>{{end}}
{{if .FormAction}}
<form id="webpay-form" method="POST" action="{{.FormAction}}">
<input type="hidden" name="token_ws" value="{{.Token}}">
<button type="submit" class="button">Continue to payment</button>
</form>
<p class="loading">Redirecting automatically in {{.Seconds}} seconds...</p>
<script>setTimeout(function(){document.getElementById('webpay-form').submit();}, {{.Millis}});</script>
{{else if .Redirect}}
<p class="loading">Redirecting in {{.Seconds}} seconds...</p>
<script>setTimeout(function(){window.location.href={{.Redirect}};}, {{.Millis}});</script>
{{end}}
</div>
</body>
</html>
`))
