package orders

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) order(args mock.Arguments) (*Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockStore) Create(ctx context.Context, in CreateInput) (*Order, error) {
	return m.order(m.Called(ctx, in))
}

func (m *MockStore) Get(ctx context.Context, id int64) (*Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockStore) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, id int64, in UpdateInput) (*Order, error) {
	return m.order(m.Called(ctx, id, in))
}

func (m *MockStore) Delete(ctx context.Context, id int64) (*Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockStore) FindByToken(ctx context.Context, token string) (*Order, error) {
	return m.order(m.Called(ctx, token))
}

func (m *MockStore) FindByBuyOrder(ctx context.Context, buyOrder string) (*Order, error) {
	return m.order(m.Called(ctx, buyOrder))
}

func (m *MockStore) UpdatePayment(ctx context.Context, id int64, u PaymentUpdate) (*Order, error) {
	return m.order(m.Called(ctx, id, u))
}
