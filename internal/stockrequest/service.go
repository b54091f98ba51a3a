package stockrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/events"
	"github.com/ariefcatur/ferremas-api/internal/validation"
	"github.com/rs/zerolog/log"
)

// StockListener is told when warehouse stock changed outside the product CRUD path.
type StockListener interface {
	Invalidate(ctx context.Context)
}

// Service is the branch stock request workflow.
type Service struct {
	Store  Store
	Events events.Publisher
	Stock  StockListener
	Now    func() time.Time
}

func NewService(store Store, pub events.Publisher, stock StockListener) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{Store: store, Events: pub, Stock: stock, Now: time.Now}
}

// Create validates the input and stores a new pending request. Any status sent by the caller is ignored.
func (s *Service) Create(ctx context.Context, in CreateInput) (*StockRequest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	in.Status = string(StatusPending)

	sr, err := s.Store.Insert(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.StockRequestCreated, sr)
	return sr, nil
}

// Approve moves a pending request to approved and takes the quantity out of the central
// warehouse. Both happen in one transaction: on any failure neither the stock nor the
// request changes.
func (s *Service) Approve(ctx context.Context, id int64, respondedBy *int64) (*StockRequest, error) {
	var remaining, minimum int
	err := s.Store.InTx(ctx, func(tx Tx) error {
		sr, err := tx.LockRequest(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(sr.Status, StatusApproved) {
			return apperr.InvalidState("approve", sr.Status)
		}
		ws, err := tx.LockWarehouseStock(ctx, sr.ProductID)
		if err != nil {
			return err
		}
		if ws.Available < sr.Quantity {
			return fmt.Errorf("insufficient warehouse stock: requested %d, available %d: %w",
				sr.Quantity, ws.Available, apperr.ErrInsufficientStock)
		}
		if remaining, err = tx.DecrementWarehouseStock(ctx, sr.ProductID, sr.Quantity); err != nil {
			return err
		}
		minimum = ws.Minimum
		return tx.MarkApproved(ctx, id, respondedBy, s.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	sr, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Stock != nil {
		s.Stock.Invalidate(ctx)
	}
	s.Events.Publish(ctx, events.StockRequestApproved, sr.ID, events.StockRequestApprovedPayload{
		StockRequestPayload: payload(sr),
		WarehouseStock:      remaining,
		MinimumStock:        minimum,
	})
	log.Info().Int64("stock_request_id", id).Int64("product_id", sr.ProductID).
		Int("quantity", sr.Quantity).Int("warehouse_stock", remaining).Msg("stock request approved")
	return sr, nil
}

// Reject closes a pending request. A blank reason keeps the notes the request was created with.
func (s *Service) Reject(ctx context.Context, id int64, respondedBy *int64, reason string) (*StockRequest, error) {
	return s.transition(ctx, id, StatusRejected, events.StockRequestRejected, Change{RespondedBy: respondedBy, Reason: reason})
}

func (s *Service) MarkShipped(ctx context.Context, id int64) (*StockRequest, error) {
	return s.transition(ctx, id, StatusShipped, events.StockRequestShipped, Change{})
}

func (s *Service) MarkReceived(ctx context.Context, id int64) (*StockRequest, error) {
	return s.transition(ctx, id, StatusReceived, events.StockRequestReceived, Change{})
}

func (s *Service) transition(ctx context.Context, id int64, to Status, eventType string, ch Change) (*StockRequest, error) {
	cur, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, to) {
		return nil, apperr.InvalidState(string(to), cur.Status)
	}
	ch.At = s.Now().UTC()
	sr, err := s.Store.Transition(ctx, id, cur.Status, to, ch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventType, sr)
	return sr, nil
}

// Delete removes a request that has not been acted on yet.
func (s *Service) Delete(ctx context.Context, id int64) (*StockRequest, error) {
	cur, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status != StatusPending {
		return nil, apperr.InvalidState("delete", cur.Status)
	}
	sr, err := s.Store.DeletePending(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.StockRequestDeleted, sr)
	return sr, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*StockRequest, error) {
	return s.Store.Get(ctx, id)
}

// List returns requests newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *Status) ([]StockRequest, error) {
	if status != nil && !status.Valid() {
		return nil, apperr.Invalid("status", "unknown status "+string(*status))
	}
	return s.Store.List(ctx, Filter{Status: status})
}

func (s *Service) ListByBranch(ctx context.Context, branchID int64) ([]StockRequest, error) {
	if branchID <= 0 {
		return nil, apperr.Invalid("branch_id", "must be greater than 0")
	}
	return s.Store.List(ctx, Filter{BranchID: &branchID})
}

func (s *Service) publish(ctx context.Context, eventType string, sr *StockRequest) {
	s.Events.Publish(ctx, eventType, sr.ID, payload(sr))
}

func payload(sr *StockRequest) events.StockRequestPayload {
	return events.StockRequestPayload{
		RequestID:   sr.ID,
		BranchID:    sr.BranchID,
		ProductID:   sr.ProductID,
		Quantity:    sr.Quantity,
		Status:      string(sr.Status),
		RespondedBy: sr.RespondedBy,
		Notes:       sr.Notes,
	}
}
