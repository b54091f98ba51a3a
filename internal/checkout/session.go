package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/events"
	"github.com/ariefcatur/ferremas-api/internal/orders"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderStore is the part of the order store checkout needs. Checkout only writes the
// payment columns and the order status.
type OrderStore interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
	FindByToken(ctx context.Context, token string) (*orders.Order, error)
	FindByBuyOrder(ctx context.Context, buyOrder string) (*orders.Order, error)
	UpdatePayment(ctx context.Context, id int64, u orders.PaymentUpdate) (*orders.Order, error)
}

// Session is an open payment session the buyer should be sent to.
type Session struct {
	OrderID  int64
	Token    string
	URL      string
	BuyOrder string
	Amount   decimal.Decimal
	Resumed  bool
}

// CallbackParams are the fields Webpay posts back to the return URL.
type CallbackParams struct {
	TokenWS      string
	TBKToken     string
	TBKBuyOrder  string
	TBKSessionID string
}

type OutcomeKind string

const (
	OutcomeAuthorized    OutcomeKind = "authorized"
	OutcomeNotAuthorized OutcomeKind = "not_authorized"
	OutcomeAborted       OutcomeKind = "aborted"
)

// Outcome is the result of a return callback. OrderID is zero when no order matched.
type Outcome struct {
	Kind          OutcomeKind
	OrderID       int64
	BuyOrder      string
	Amount        decimal.Decimal
	GatewayStatus string
	ResponseCode  *int
	Replayed      bool
}

type Manager struct {
	Orders    OrderStore
	Gateway   Gateway
	Replay    ReplayGuard
	Events    events.Publisher
	ReturnURL string

	NewBuyOrder func(orderID int64) string
}

func NewManager(store OrderStore, gw Gateway, replay ReplayGuard, pub events.Publisher, returnURL string) *Manager {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Manager{
		Orders:      store,
		Gateway:     gw,
		Replay:      replay,
		Events:      pub,
		ReturnURL:   returnURL,
		NewBuyOrder: NewBuyOrder,
	}
}

// NewBuyOrder returns ORD-<orderID>-<8 hex>. Webpay accepts at most 26 characters.
func NewBuyOrder(orderID int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%d-%s", orderID, suffix)
}

func sessionID(orderID int64) string { return fmt.Sprintf("SES-%d", orderID) }

// A resumed session keeps its token, so it can be resumed again.
func resumableSession(status string) bool {
	return status == orders.SessionInitiated || status == orders.SessionResumed
}

// CreateOrResumeSession sends the buyer back to a still-open session when there is one,
// and opens a new session with a fresh buy order otherwise.
func (m *Manager) CreateOrResumeSession(ctx context.Context, orderID int64) (*Session, error) {
	o, err := m.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Amount.Valid || !o.Amount.Decimal.IsPositive() {
		return nil, apperr.Invalid("amount", "order has no valid amount")
	}
	if o.Status == orders.StatusPaid {
		return nil, apperr.InvalidState("start payment", o.Status)
	}

	if o.PaymentToken != nil && o.PaymentStatus != nil && resumableSession(*o.PaymentStatus) {
		s, err := m.tryResume(ctx, o)
		if err != nil || s != nil {
			return s, err
		}
	}

	buyOrder := m.NewBuyOrder(o.ID)
	log.Info().Int64("order_id", o.ID).Str("buy_order", buyOrder).Str("amount", o.Amount.Decimal.String()).
		Msg("creating payment session")
	if err := m.setPayment(ctx, o.ID, orders.StatusPending, orders.SessionPreparing, nil, nil); err != nil {
		return nil, m.creationFailed(ctx, o.ID, err)
	}

	res, err := m.Gateway.Create(ctx, buyOrder, sessionID(o.ID), o.Amount.Decimal, m.ReturnURL)
	if err != nil {
		return nil, m.creationFailed(ctx, o.ID, err)
	}
	if err := m.setPayment(ctx, o.ID, orders.StatusInProcess, orders.SessionInitiated, &res.Token, &buyOrder); err != nil {
		return nil, m.creationFailed(ctx, o.ID, err)
	}
	return &Session{OrderID: o.ID, Token: res.Token, URL: res.URL, BuyOrder: buyOrder, Amount: o.Amount.Decimal}, nil
}

// tryResume returns a session when the stored token is still usable, or nil to open a new one.
func (m *Manager) tryResume(ctx context.Context, o *orders.Order) (*Session, error) {
	token := *o.PaymentToken
	st, err := m.Gateway.Status(ctx, token)
	if err != nil {
		// fail open: a new session is opened
		log.Warn().Err(err).Int64("order_id", o.ID).Msg("checking existing payment token failed")
		return nil, m.setPayment(ctx, o.ID, orders.StatusPending, orders.SessionErrorToken, nil, nil)
	}
	if !Resumable(st.Status) || st.URL == "" {
		log.Info().Int64("order_id", o.ID).Str("gateway_status", st.Status).Msg("payment token expired")
		return nil, m.setPayment(ctx, o.ID, orders.StatusPending, orders.SessionExpired, nil, nil)
	}

	if err := m.setPayment(ctx, o.ID, orders.StatusInProcess, orders.SessionResumed, nil, nil); err != nil {
		return nil, err
	}
	s := &Session{OrderID: o.ID, Token: token, URL: st.URL, Amount: o.Amount.Decimal, Resumed: true}
	if o.BuyOrder != nil {
		s.BuyOrder = *o.BuyOrder
	}
	log.Info().Int64("order_id", o.ID).Str("buy_order", s.BuyOrder).Msg("resuming payment session")
	return s, nil
}

func (m *Manager) creationFailed(ctx context.Context, orderID int64, cause error) error {
	log.Error().Err(cause).Int64("order_id", orderID).Msg("creating payment session failed")
	if err := m.setPayment(ctx, orderID, orders.StatusError, orders.SessionErrorCreation, nil, nil); err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("recording session creation failure")
	}
	return fmt.Errorf("create payment session for order %d: %w", orderID, cause)
}

// HandleReturnCallback reconciles the order with what the gateway says about the payment.
func (m *Manager) HandleReturnCallback(ctx context.Context, p CallbackParams) (*Outcome, error) {
	if p.TokenWS == "" {
		if p.TBKToken == "" {
			return nil, apperr.Invalid("token_ws", "payment token not provided")
		}
		return m.aborted(ctx, p), nil
	}

	tx, replayed, err := m.confirm(ctx, p.TokenWS)
	if err != nil {
		m.confirmFailed(ctx, p, err)
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	out := &Outcome{
		Kind:          OutcomeNotAuthorized,
		BuyOrder:      tx.BuyOrder,
		Amount:        tx.Amount,
		GatewayStatus: tx.Status,
		ResponseCode:  tx.ResponseCode,
		Replayed:      replayed,
	}
	if tx.Status == GatewayAuthorized {
		out.Kind = OutcomeAuthorized
	}

	o, err := m.locate(ctx, tx.BuyOrder, p.TokenWS)
	if err != nil {
		log.Warn().Err(err).Str("buy_order", tx.BuyOrder).Msg("no order for confirmed payment")
		return out, nil
	}
	out.OrderID = o.ID

	var next *orders.Status
	switch tx.Status {
	case GatewayAuthorized:
		s := orders.StatusPaid
		next = &s
	case GatewayFailed:
		s := orders.StatusRejected
		next = &s
	}
	if o.Status.Final() {
		next = nil
	}
	u := orders.PaymentUpdate{Status: next, PaymentStatus: &tx.Status}
	if tx.BuyOrder != "" {
		u.BuyOrder = &tx.BuyOrder
	}
	if _, err := m.Orders.UpdatePayment(ctx, o.ID, u); err != nil {
		log.Error().Err(err).Int64("order_id", o.ID).Msg("recording payment result")
		return out, nil
	}

	if !replayed {
		m.publish(ctx, o.ID, tx)
	}
	log.Info().Int64("order_id", o.ID).Str("buy_order", tx.BuyOrder).Str("gateway_status", tx.Status).
		Bool("replayed", replayed).Msg("payment reconciled")
	return out, nil
}

// confirm commits the token, or re-reads it when it was committed before.
func (m *Manager) confirm(ctx context.Context, token string) (Transaction, bool, error) {
	if m.Replay != nil {
		done, err := m.Replay.Committed(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("replay guard unavailable")
		}
		if done {
			st, err := m.Gateway.Status(ctx, token)
			return st.Transaction, true, err
		}
	}

	res, err := m.Gateway.Commit(ctx, token)
	if err != nil {
		if tx, ok := m.alreadyCommitted(ctx, token, err); ok {
			return tx, true, nil
		}
		return Transaction{}, false, err
	}
	m.markCommitted(ctx, token, res.BuyOrder)
	return res.Transaction, false, nil
}

// alreadyCommitted covers a replay the guard did not see: the gateway refuses a second
// commit of the token, but its status still reports the settled result.
func (m *Manager) alreadyCommitted(ctx context.Context, token string, commitErr error) (Transaction, bool) {
	if !errors.Is(commitErr, apperr.ErrGatewayToken) {
		return Transaction{}, false
	}
	st, err := m.Gateway.Status(ctx, token)
	if err != nil || st.Status == "" || Resumable(st.Status) {
		return Transaction{}, false
	}
	log.Info().Str("buy_order", st.BuyOrder).Str("gateway_status", st.Status).Msg("token was committed before")
	m.markCommitted(ctx, token, st.BuyOrder)
	return st.Transaction, true
}

func (m *Manager) markCommitted(ctx context.Context, token, buyOrder string) {
	if m.Replay == nil {
		return
	}
	if err := m.Replay.MarkCommitted(ctx, token, buyOrder); err != nil {
		log.Warn().Err(err).Msg("marking token committed")
	}
}

func (m *Manager) aborted(ctx context.Context, p CallbackParams) *Outcome {
	log.Info().Str("buy_order", p.TBKBuyOrder).Str("session_id", p.TBKSessionID).Msg("payment aborted by buyer")
	out := &Outcome{Kind: OutcomeAborted, BuyOrder: p.TBKBuyOrder}

	o, err := m.locate(ctx, p.TBKBuyOrder, p.TBKToken)
	if err != nil {
		log.Warn().Err(err).Str("buy_order", p.TBKBuyOrder).Msg("no order for aborted payment")
		return out
	}
	out.OrderID = o.ID
	if err := m.setPayment(ctx, o.ID, orders.StatusPending, orders.SessionRejected, nil, nil); err != nil {
		log.Error().Err(err).Int64("order_id", o.ID).Msg("recording aborted payment")
	}
	return out
}

func (m *Manager) confirmFailed(ctx context.Context, p CallbackParams, cause error) {
	log.Error().Err(cause).Str("buy_order", p.TBKBuyOrder).Msg("confirming payment failed")
	o, err := m.locate(ctx, p.TBKBuyOrder, p.TokenWS)
	if err != nil {
		log.Warn().Err(err).Msg("no order for failed confirmation")
		return
	}
	if o.Status.Final() {
		log.Warn().Int64("order_id", o.ID).Str("status", string(o.Status)).Msg("settled order left untouched")
		return
	}
	if err := m.setPayment(ctx, o.ID, orders.StatusError, orders.SessionError, nil, nil); err != nil {
		log.Error().Err(err).Int64("order_id", o.ID).Msg("recording confirmation failure")
	}
}

// locate finds the order by buy order first and by token second.
func (m *Manager) locate(ctx context.Context, buyOrder, token string) (*orders.Order, error) {
	if buyOrder != "" {
		o, err := m.Orders.FindByBuyOrder(ctx, buyOrder)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	if token != "" {
		return m.Orders.FindByToken(ctx, token)
	}
	return nil, apperr.NotFound("order with buy order", buyOrder)
}

func (m *Manager) setPayment(ctx context.Context, id int64, status orders.Status, session string, token, buyOrder *string) error {
	_, err := m.Orders.UpdatePayment(ctx, id, orders.PaymentUpdate{
		Status:        &status,
		PaymentStatus: &session,
		PaymentToken:  token,
		BuyOrder:      buyOrder,
	})
	return err
}

func (m *Manager) publish(ctx context.Context, orderID int64, tx Transaction) {
	var eventType string
	switch tx.Status {
	case GatewayAuthorized:
		eventType = events.PaymentAuthorized
	case GatewayFailed:
		eventType = events.PaymentFailed
	default:
		return
	}
	m.Events.Publish(ctx, eventType, orderID, events.PaymentPayload{
		OrderID:      orderID,
		BuyOrder:     tx.BuyOrder,
		Amount:       tx.Amount,
		Status:       tx.Status,
		ResponseCode: tx.ResponseCode,
	})
}
