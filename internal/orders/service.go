package orders

import (
	"context"
	"fmt"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/validation"
)

// Service is the plain order CRUD. Payment fields belong to checkout and are not writable here.
type Service struct{ Store Store }

func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.Store.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return s.Store.ListByUser(ctx, userID)
}

// Update changes quantity or status. Quantity is editable only before checkout starts;
// the amount follows the new quantity.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Order, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Invalid("status", "unknown status "+string(*in.Status))
	}
	if in.Status == nil && in.Quantity == nil {
		return s.Store.Get(ctx, id)
	}

	cur, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && !CanTransition(cur.Status, *in.Status) {
		return nil, apperr.InvalidState("set status "+string(*in.Status), cur.Status)
	}
	if in.Quantity != nil && *in.Quantity == cur.Quantity {
		in.Quantity = nil
	}
	if in.Quantity != nil && (cur.Status != StatusPending || cur.PaymentToken != nil) {
		return nil, fmt.Errorf("cannot change quantity after checkout started: %w", apperr.ErrInvalidState)
	}
	return s.Store.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id int64) (*Order, error) {
	return s.Store.Delete(ctx, id)
}
