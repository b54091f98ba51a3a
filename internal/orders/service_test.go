package orders

import (
	"context"
	"testing"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_Create_Validates(t *testing.T) {
	store := new(MockStore)
	svc := &Service{Store: store}

	_, err := svc.Create(context.Background(), CreateInput{ProductID: 1, UserID: 1, Quantity: 0})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Update_StatusRules(t *testing.T) {
	ctx := context.Background()
	paid := StatusPaid
	pending := StatusPending

	t.Run("paid is final", func(t *testing.T) {
		store := new(MockStore)
		svc := &Service{Store: store}
		store.On("Get", mock.Anything, int64(7)).Return(&Order{ID: 7, Status: StatusPaid}, nil).Once()

		_, err := svc.Update(ctx, 7, UpdateInput{Status: &pending})
		require.ErrorIs(t, err, apperr.ErrInvalidState)
		store.AssertExpectations(t)
	})

	t.Run("paid is reserved for checkout", func(t *testing.T) {
		store := new(MockStore)
		svc := &Service{Store: store}
		store.On("Get", mock.Anything, int64(7)).Return(&Order{ID: 7, Status: StatusInProcess}, nil).Once()

		_, err := svc.Update(ctx, 7, UpdateInput{Status: &paid})
		require.ErrorIs(t, err, apperr.ErrInvalidState)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("in process back to pending", func(t *testing.T) {
		store := new(MockStore)
		svc := &Service{Store: store}
		in := UpdateInput{Status: &pending}
		store.On("Get", mock.Anything, int64(7)).Return(&Order{ID: 7, Status: StatusInProcess}, nil).Once()
		store.On("Update", mock.Anything, int64(7), in).Return(&Order{ID: 7, Status: StatusPending}, nil).Once()

		o, err := svc.Update(ctx, 7, in)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		store.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := &Service{Store: new(MockStore)}
		bogus := Status("shipped")
		_, err := svc.Update(ctx, 7, UpdateInput{Status: &bogus})
		require.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("quantity on a pending order", func(t *testing.T) {
		store := new(MockStore)
		svc := &Service{Store: store}
		q := 3
		store.On("Get", mock.Anything, int64(7)).Return(&Order{ID: 7, Quantity: 1, Status: StatusPending}, nil).Once()
		store.On("Update", mock.Anything, int64(7), UpdateInput{Quantity: &q}).Return(&Order{ID: 7, Quantity: 3}, nil).Once()
		_, err := svc.Update(ctx, 7, UpdateInput{Quantity: &q})
		require.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func TestService_Update_QuantityLockedOnceCheckoutStarted(t *testing.T) {
	ctx := context.Background()
	q := 5
	token := "tok-a"
	for name, cur := range map[string]*Order{
		"in process":         {ID: 7, Quantity: 1, Status: StatusInProcess, PaymentToken: &token},
		"pending with token": {ID: 7, Quantity: 1, Status: StatusPending, PaymentToken: &token},
		"paid":               {ID: 7, Quantity: 1, Status: StatusPaid},
	} {
		t.Run(name, func(t *testing.T) {
			store := new(MockStore)
			svc := &Service{Store: store}
			store.On("Get", mock.Anything, int64(7)).Return(cur, nil).Once()

			_, err := svc.Update(ctx, 7, UpdateInput{Quantity: &q})
			require.ErrorIs(t, err, apperr.ErrInvalidState)
			store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusPending))
	assert.False(t, CanTransition(StatusInProcess, StatusPaid))
	assert.False(t, CanTransition(StatusInProcess, StatusRejected))
	assert.True(t, CanTransition(StatusRejected, StatusPending))
	assert.False(t, CanTransition(StatusPaid, StatusPending))
	assert.False(t, CanTransition(StatusPending, StatusPaid))
}
