package checkout

import (
	"context"
	"regexp"
	"testing"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/events"
	"github.com/ariefcatur/ferremas-api/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buyOrderPattern = regexp.MustCompile(`^ORD-7-[0-9a-f]{8}$`)

type fixture struct {
	store  *memOrders
	gw     *fakeGateway
	replay *memReplay
	events *recorder
	m      *Manager
}

func newFixture(t *testing.T, o orders.Order) *fixture {
	t.Helper()
	f := &fixture{
		store:  newMemOrders(o),
		gw:     newFakeGateway(),
		replay: &memReplay{},
		events: &recorder{},
	}
	f.m = NewManager(f.store, f.gw, f.replay, f.events, "http://localhost:3000/api/webpay/return")
	return f
}

func order7() orders.Order {
	return orders.Order{
		ID:       7,
		Quantity: 1,
		Amount:   decimal.NewNullDecimal(decimal.NewFromInt(15000)),
		Status:   orders.StatusPending,
	}
}

func TestCreateOrResumeSession_NewSession(t *testing.T) {
	f := newFixture(t, order7())

	s, err := f.m.CreateOrResumeSession(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, s.Resumed)
	assert.Equal(t, "tok-a", s.Token)
	assert.Equal(t, "https://webpay.test/init", s.URL)
	assert.Regexp(t, buyOrderPattern, s.BuyOrder)
	assert.LessOrEqual(t, len(s.BuyOrder), 26)
	assert.True(t, decimal.NewFromInt(15000).Equal(s.Amount))

	o := f.store.order(7)
	assert.Equal(t, orders.StatusInProcess, o.Status)
	assert.Equal(t, orders.SessionInitiated, *o.PaymentStatus)
	assert.Equal(t, "tok-a", *o.PaymentToken)
	assert.Equal(t, s.BuyOrder, *o.BuyOrder)
	assert.Equal(t, "SES-7", f.gw.txs["tok-a"].SessionID)
}

func TestCreateOrResumeSession_TwiceReusesToken(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()

	first, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)
	second, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)
	third, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)

	assert.True(t, second.Resumed)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, first.BuyOrder, second.BuyOrder)
	assert.Equal(t, first.Token, third.Token)
	assert.Equal(t, 1, f.gw.creates)

	o := f.store.order(7)
	assert.Equal(t, orders.SessionResumed, *o.PaymentStatus)
	assert.Equal(t, orders.StatusInProcess, o.Status)
	assert.Equal(t, first.BuyOrder, *o.BuyOrder)
}

func TestCreateOrResumeSession_ExpiredTokenGetsNewBuyOrder(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()

	first, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)
	f.gw.expire(first.Token)

	second, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)
	assert.False(t, second.Resumed)
	assert.NotEqual(t, first.Token, second.Token)
	assert.NotEqual(t, first.BuyOrder, second.BuyOrder)
	assert.Regexp(t, buyOrderPattern, second.BuyOrder)
	assert.Equal(t, 2, f.gw.creates)

	o := f.store.order(7)
	assert.Equal(t, second.Token, *o.PaymentToken)
	assert.Equal(t, orders.SessionInitiated, *o.PaymentStatus)
}

func TestCreateOrResumeSession_StatusFailureFailsOpen(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()

	first, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)
	f.gw.statusErr = &GatewayError{Op: "status", Kind: apperr.ErrGatewayNetwork}

	second, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 2, f.gw.creates)
}

func TestCreateOrResumeSession_GatewayFailure(t *testing.T) {
	f := newFixture(t, order7())
	f.gw.createErr = &GatewayError{Op: "create", Message: "context deadline exceeded", Kind: apperr.ErrGatewayTimeout}

	_, err := f.m.CreateOrResumeSession(context.Background(), 7)
	require.ErrorIs(t, err, apperr.ErrGatewayTimeout)
	assert.Equal(t, FailureTimeout, ClassifyCreate(err).Kind)

	o := f.store.order(7)
	assert.Equal(t, orders.StatusError, o.Status)
	assert.Equal(t, orders.SessionErrorCreation, *o.PaymentStatus)
	assert.Nil(t, o.PaymentToken)
}

func TestCreateOrResumeSession_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("missing order", func(t *testing.T) {
		f := newFixture(t, order7())
		_, err := f.m.CreateOrResumeSession(ctx, 8)
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("no amount", func(t *testing.T) {
		o := order7()
		o.Amount = decimal.NullDecimal{}
		f := newFixture(t, o)
		_, err := f.m.CreateOrResumeSession(ctx, 7)
		require.ErrorIs(t, err, apperr.ErrInvalidInput)
		assert.Zero(t, f.gw.creates)
	})

	t.Run("zero amount", func(t *testing.T) {
		o := order7()
		o.Amount = decimal.NewNullDecimal(decimal.Zero)
		f := newFixture(t, o)
		_, err := f.m.CreateOrResumeSession(ctx, 7)
		require.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("already paid", func(t *testing.T) {
		o := order7()
		o.Status = orders.StatusPaid
		f := newFixture(t, o)
		_, err := f.m.CreateOrResumeSession(ctx, 7)
		require.ErrorIs(t, err, apperr.ErrInvalidState)
		assert.Zero(t, f.store.writes)
	})
}

func TestHandleReturnCallback_Authorized(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()
	s, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)

	out, err := f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthorized, out.Kind)
	assert.Equal(t, int64(7), out.OrderID)
	assert.Equal(t, s.BuyOrder, out.BuyOrder)

	o := f.store.order(7)
	assert.Equal(t, orders.StatusPaid, o.Status)
	assert.Equal(t, GatewayAuthorized, *o.PaymentStatus)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.PaymentAuthorized, f.events.events[0].Type)
	assert.Equal(t, int64(7), f.events.events[0].ID)
}

func TestHandleReturnCallback_ReplayReadsStatus(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()
	s, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)

	_, err = f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token})
	require.NoError(t, err)
	statuses := f.gw.statuses

	out, err := f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token})
	require.NoError(t, err)
	assert.True(t, out.Replayed)
	assert.Equal(t, OutcomeAuthorized, out.Kind)
	assert.Equal(t, 1, f.gw.commits)
	assert.Equal(t, statuses+1, f.gw.statuses)
	assert.Equal(t, orders.StatusPaid, f.store.order(7).Status)
	assert.Len(t, f.events.events, 1)
}

func TestHandleReturnCallback_Failed(t *testing.T) {
	f := newFixture(t, order7())
	f.gw.commitStatus = GatewayFailed
	ctx := context.Background()
	s, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)

	out, err := f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotAuthorized, out.Kind)
	require.NotNil(t, out.ResponseCode)
	assert.Equal(t, -1, *out.ResponseCode)

	o := f.store.order(7)
	assert.Equal(t, orders.StatusRejected, o.Status)
	assert.Equal(t, GatewayFailed, *o.PaymentStatus)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.PaymentFailed, f.events.events[0].Type)
}

func TestHandleReturnCallback_Aborted(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()
	s, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)

	out, err := f.m.HandleReturnCallback(ctx, CallbackParams{TBKToken: s.Token, TBKBuyOrder: s.BuyOrder, TBKSessionID: "SES-7"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, out.Kind)
	assert.Equal(t, int64(7), out.OrderID)
	assert.Zero(t, f.gw.commits)

	o := f.store.order(7)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, orders.SessionRejected, *o.PaymentStatus)
}

func TestHandleReturnCallback_AbortedFallsBackToToken(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()
	s, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)

	out, err := f.m.HandleReturnCallback(ctx, CallbackParams{TBKToken: s.Token, TBKBuyOrder: "ORD-unknown"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.OrderID)
	assert.Equal(t, orders.StatusPending, f.store.order(7).Status)
}

func TestHandleReturnCallback_MissingToken(t *testing.T) {
	f := newFixture(t, order7())
	_, err := f.m.HandleReturnCallback(context.Background(), CallbackParams{})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestHandleReturnCallback_CommitFailure(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()
	s, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)
	f.gw.commitErr = &GatewayError{Op: "commit", StatusCode: 422, Kind: apperr.ErrGatewayToken}

	_, err = f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token})
	require.ErrorIs(t, err, apperr.ErrGatewayToken)
	assert.Equal(t, FailureToken, ClassifyConfirm(err).Kind)

	o := f.store.order(7)
	assert.Equal(t, orders.StatusError, o.Status)
	assert.Equal(t, orders.SessionError, *o.PaymentStatus)
	assert.Empty(t, f.events.events)
}

func TestHandleReturnCallback_ReplayWithoutGuardKeepsPaid(t *testing.T) {
	f := newFixture(t, order7())
	f.m.Replay = unavailableReplay{}
	ctx := context.Background()
	s, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)

	_, err = f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token})
	require.NoError(t, err)
	require.Equal(t, orders.StatusPaid, f.store.order(7).Status)

	out, err := f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token, TBKBuyOrder: s.BuyOrder})
	require.NoError(t, err)
	assert.True(t, out.Replayed)
	assert.Equal(t, OutcomeAuthorized, out.Kind)
	assert.Equal(t, 2, f.gw.commits)

	o := f.store.order(7)
	assert.Equal(t, orders.StatusPaid, o.Status)
	assert.Equal(t, GatewayAuthorized, *o.PaymentStatus)
	assert.Len(t, f.events.events, 1)
}

func TestHandleReturnCallback_FailureNeverDowngradesPaid(t *testing.T) {
	f := newFixture(t, order7())
	ctx := context.Background()
	s, err := f.m.CreateOrResumeSession(ctx, 7)
	require.NoError(t, err)
	_, err = f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token})
	require.NoError(t, err)

	f.m.Replay = unavailableReplay{}
	f.gw.statusErr = &GatewayError{Op: "status", Message: "connection reset", Kind: apperr.ErrGatewayNetwork}
	_, err = f.m.HandleReturnCallback(ctx, CallbackParams{TokenWS: s.Token})
	require.ErrorIs(t, err, apperr.ErrGatewayToken)

	o := f.store.order(7)
	assert.Equal(t, orders.StatusPaid, o.Status)
	assert.Equal(t, GatewayAuthorized, *o.PaymentStatus)
}

func TestHandleReturnCallback_UnknownOrderStillSucceeds(t *testing.T) {
	f := newFixture(t, order7())
	f.gw.txs["tok-x"] = &Transaction{Status: GatewayInitialized, BuyOrder: "ORD-99-00000000", Amount: decimal.NewFromInt(1000)}

	out, err := f.m.HandleReturnCallback(context.Background(), CallbackParams{TokenWS: "tok-x"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthorized, out.Kind)
	assert.Zero(t, out.OrderID)
	assert.Zero(t, f.store.writes)
}

func TestNewBuyOrder_FitsGatewayLimit(t *testing.T) {
	bo := NewBuyOrder(9_999_999_999_999)
	assert.LessOrEqual(t, len(bo), 26)
	assert.NotEqual(t, bo, NewBuyOrder(9_999_999_999_999))
}
