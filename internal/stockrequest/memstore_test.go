package stockrequest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
)

// memStore is an in-memory Store. InTx holds the store lock for the whole
// transaction and restores a snapshot when fn fails.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]StockRequest
	stock    map[int64]WarehouseStock
	products map[int64]string
	branches map[int64]string

	failMarkApproved error
}

func newMemStore() *memStore {
	return &memStore{
		requests: map[int64]StockRequest{},
		stock:    map[int64]WarehouseStock{},
		products: map[int64]string{},
		branches: map[int64]string{},
	}
}

func (m *memStore) addProduct(id int64, name string, warehouse, minimum int) {
	m.products[id] = name
	m.stock[id] = WarehouseStock{ProductID: id, Available: warehouse, Minimum: minimum}
}

func (m *memStore) warehouse(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[id].Available
}

func (m *memStore) Insert(_ context.Context, in CreateInput) (*StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[in.ProductID]; !ok {
		return nil, apperr.NotFound("product", in.ProductID)
	}
	if _, ok := m.branches[in.BranchID]; !ok {
		return nil, apperr.NotFound("branch", in.BranchID)
	}
	m.nextID++
	sr := StockRequest{
		ID: m.nextID, BranchID: in.BranchID, ProductID: in.ProductID, Quantity: in.Quantity,
		Status: Status(in.Status), RequestedBy: in.RequestedBy, Notes: in.Notes,
		SubmittedAt: time.Now().Add(time.Duration(m.nextID) * time.Millisecond),
	}
	m.requests[sr.ID] = sr
	return m.joined(sr), nil
}

func (m *memStore) joined(sr StockRequest) *StockRequest {
	sr.ProductName = m.products[sr.ProductID]
	sr.BranchName = m.branches[sr.BranchID]
	return &sr
}

func (m *memStore) Get(_ context.Context, id int64) (*StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("stock request", id)
	}
	return m.joined(sr), nil
}

func (m *memStore) List(_ context.Context, f Filter) ([]StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []StockRequest{}
	for _, sr := range m.requests {
		if f.Status != nil && sr.Status != *f.Status {
			continue
		}
		if f.BranchID != nil && sr.BranchID != *f.BranchID {
			continue
		}
		out = append(out, *m.joined(sr))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (m *memStore) Transition(_ context.Context, id int64, from, to Status, ch Change) (*StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("stock request", id)
	}
	if sr.Status != from {
		return nil, apperr.InvalidState(string(to), sr.Status)
	}
	sr.Status = to
	at := ch.At
	switch to {
	case StatusRejected:
		sr.RespondedBy = ch.RespondedBy
		sr.RespondedAt = &at
		if ch.Reason != "" {
			sr.Notes = ch.Reason
		}
	case StatusShipped:
		sr.ShippedAt = &at
	case StatusReceived:
		sr.ReceivedAt = &at
	}
	m.requests[id] = sr
	return m.joined(sr), nil
}

func (m *memStore) DeletePending(_ context.Context, id int64) (*StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sr, ok := m.requests[id]
	if !ok {
		return nil, apperr.NotFound("stock request", id)
	}
	if sr.Status != StatusPending {
		return nil, apperr.InvalidState("delete", sr.Status)
	}
	delete(m.requests, id)
	return m.joined(sr), nil
}

func (m *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := make(map[int64]StockRequest, len(m.requests))
	for k, v := range m.requests {
		reqs[k] = v
	}
	stock := make(map[int64]WarehouseStock, len(m.stock))
	for k, v := range m.stock {
		stock[k] = v
	}
	if err := fn(memTx{m}); err != nil {
		m.requests, m.stock = reqs, stock
		return err
	}
	return nil
}

type memTx struct{ m *memStore }

func (t memTx) LockRequest(_ context.Context, id int64) (*StockRequest, error) {
	sr, ok := t.m.requests[id]
	if !ok {
		return nil, apperr.NotFound("stock request", id)
	}
	return &sr, nil
}

func (t memTx) LockWarehouseStock(_ context.Context, productID int64) (WarehouseStock, error) {
	ws, ok := t.m.stock[productID]
	if !ok {
		return ws, apperr.NotFound("product", productID)
	}
	return ws, nil
}

func (t memTx) DecrementWarehouseStock(_ context.Context, productID int64, qty int) (int, error) {
	ws := t.m.stock[productID]
	ws.Available -= qty
	t.m.stock[productID] = ws
	return ws.Available, nil
}

func (t memTx) MarkApproved(_ context.Context, id int64, respondedBy *int64, at time.Time) error {
	if t.m.failMarkApproved != nil {
		return t.m.failMarkApproved
	}
	sr := t.m.requests[id]
	sr.Status = StatusApproved
	sr.RespondedBy = respondedBy
	sr.RespondedAt = &at
	t.m.requests[id] = sr
	return nil
}
