package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/orders"
	"github.com/shopspring/decimal"
)

type memOrders struct {
	mu     sync.Mutex
	orders map[int64]*orders.Order
	writes int
}

func newMemOrders(os ...orders.Order) *memOrders {
	m := &memOrders{orders: map[int64]*orders.Order{}}
	for i := range os {
		o := os[i]
		m.orders[o.ID] = &o
	}
	return m
}

func (m *memOrders) Get(_ context.Context, id int64) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) find(match func(*orders.Order) bool, what, key string) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperr.NotFound(what, key)
}

func (m *memOrders) FindByToken(_ context.Context, token string) (*orders.Order, error) {
	return m.find(func(o *orders.Order) bool { return o.PaymentToken != nil && *o.PaymentToken == token }, "order with token", token)
}

func (m *memOrders) FindByBuyOrder(_ context.Context, buyOrder string) (*orders.Order, error) {
	return m.find(func(o *orders.Order) bool { return o.BuyOrder != nil && *o.BuyOrder == buyOrder }, "order with buy order", buyOrder)
}

func (m *memOrders) UpdatePayment(_ context.Context, id int64, u orders.PaymentUpdate) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	m.writes++
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.PaymentToken != nil {
		o.PaymentToken = ptr(*u.PaymentToken)
	}
	if u.PaymentStatus != nil {
		o.PaymentStatus = ptr(*u.PaymentStatus)
	}
	if u.BuyOrder != nil {
		o.BuyOrder = ptr(*u.BuyOrder)
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) order(id int64) orders.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.orders[id]
}

// fakeGateway keeps transactions by token and counts calls.
type fakeGateway struct {
	mu sync.Mutex

	next      int
	txs       map[string]*Transaction
	createErr error
	statusErr error
	commitErr error
	// commitStatus is the status a commit resolves to.
	commitStatus string

	creates, statuses, commits int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{txs: map[string]*Transaction{}, commitStatus: GatewayAuthorized}
}

func (g *fakeGateway) Create(_ context.Context, buyOrder, sessionID string, amount decimal.Decimal, _ string) (CreateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates++
	if g.createErr != nil {
		return CreateResult{}, g.createErr
	}
	g.next++
	token := "tok-" + string(rune('a'+g.next-1))
	g.txs[token] = &Transaction{Status: GatewayInitialized, BuyOrder: buyOrder, SessionID: sessionID, Amount: amount}
	return CreateResult{Token: token, URL: "https://webpay.test/init"}, nil
}

func (g *fakeGateway) Status(_ context.Context, token string) (StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses++
	if g.statusErr != nil {
		return StatusResult{}, g.statusErr
	}
	tx, ok := g.txs[token]
	if !ok {
		return StatusResult{}, &GatewayError{Op: "status", StatusCode: 404, Kind: apperr.ErrGatewayToken}
	}
	res := StatusResult{Transaction: *tx}
	if Resumable(tx.Status) {
		res.URL = "https://webpay.test/init"
	}
	return res, nil
}

func (g *fakeGateway) Commit(_ context.Context, token string) (CommitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.commits++
	if g.commitErr != nil {
		return CommitResult{}, g.commitErr
	}
	tx, ok := g.txs[token]
	if !ok || tx.Status != GatewayInitialized {
		return CommitResult{}, &GatewayError{Op: "commit", StatusCode: 422, Kind: apperr.ErrGatewayToken}
	}
	tx.Status = g.commitStatus
	code := 0
	if tx.Status != GatewayAuthorized {
		code = -1
	}
	tx.ResponseCode = &code
	return CommitResult{Transaction: *tx}, nil
}

func (g *fakeGateway) expire(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.txs[token].Status = GatewayFailed
}

type memReplay struct {
	mu        sync.Mutex
	committed map[string]string
}

func (r *memReplay) Committed(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.committed[token]
	return ok, nil
}

func (r *memReplay) MarkCommitted(_ context.Context, token, buyOrder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.committed == nil {
		r.committed = map[string]string{}
	}
	r.committed[token] = buyOrder
	return nil
}

// unavailableReplay behaves like a guard whose Redis is down.
type unavailableReplay struct{}

func (unavailableReplay) Committed(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func (unavailableReplay) MarkCommitted(context.Context, string, string) error {
	return errors.New("redis down")
}

type recordedEvent struct {
	Type    string
	ID      int64
	Payload any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(_ context.Context, eventType string, id int64, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType, id, payload})
}

func ptr[T any](v T) *T { return &v }
