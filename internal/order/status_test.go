package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestOrder(status Status) *Order {
	o := NewOrder("cust-1", 1, SourceWebsite, fixedNow)
	o.ID = 1
	o.Status = status
	return o
}

func TestApplyStampsPerTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		stamp    func(*Order) *time.Time
	}{
		{StatusNew, StatusConfirmed, func(o *Order) *time.Time { return o.ConfirmedAt }},
		{StatusConfirmed, StatusPreparing, func(o *Order) *time.Time { return o.PreparingAt }},
		{StatusPreparing, StatusReady, func(o *Order) *time.Time { return o.ReadyAt }},
		{StatusReady, StatusOutForDelivery, func(o *Order) *time.Time { return o.DispatchedAt }},
		{StatusOutForDelivery, StatusDelivered, func(o *Order) *time.Time { return o.DeliveredAt }},
		{StatusPreparing, StatusCanceled, func(o *Order) *time.Time { return o.CanceledAt }},
	}
	for _, tc := range cases {
		o := newTestOrder(tc.from)
		require.NoError(t, Apply(o, tc.to, fixedNow), "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.to, o.Status)
		require.NotNil(t, tc.stamp(o), "%s -> %s stamp missing", tc.from, tc.to)
		assert.Equal(t, fixedNow, *tc.stamp(o))
	}
}

func TestApplyReadyAndDispatchAreDistinctStamps(t *testing.T) {
	o := newTestOrder(StatusPreparing)
	require.NoError(t, Apply(o, StatusReady, fixedNow))
	later := fixedNow.Add(10 * time.Minute)
	require.NoError(t, Apply(o, StatusOutForDelivery, later))

	require.NotNil(t, o.ReadyAt)
	require.NotNil(t, o.DispatchedAt)
	assert.Equal(t, fixedNow, *o.ReadyAt)
	assert.Equal(t, later, *o.DispatchedAt)
}

func TestApplyForwardSkipsAllowed(t *testing.T) {
	o := newTestOrder(StatusConfirmed)
	require.NoError(t, Apply(o, StatusOutForDelivery, fixedNow))
	assert.Equal(t, StatusOutForDelivery, o.Status)
	assert.NotNil(t, o.DispatchedAt)
}

func TestApplyRejectsBackwardMoves(t *testing.T) {
	o := newTestOrder(StatusReady)
	err := Apply(o, StatusConfirmed, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, StatusReady, o.Status)
}

func TestApplyTerminalStatesFrozen(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCanceled} {
		o := newTestOrder(terminal)
		assert.ErrorIs(t, Apply(o, StatusCanceled, fixedNow), ErrInvalidOperation)
		assert.ErrorIs(t, Apply(o, StatusDelivered, fixedNow), ErrInvalidOperation)
	}
}

func TestApplyCancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []Status{StatusNew, StatusConfirmed, StatusPreparing, StatusReady, StatusOutForDelivery} {
		o := newTestOrder(from)
		require.NoError(t, Apply(o, StatusCanceled, fixedNow), "from %s", from)
		assert.Equal(t, StatusCanceled, o.Status)
		assert.NotNil(t, o.CanceledAt)
	}
}

func TestApplyUnknownStatus(t *testing.T) {
	o := newTestOrder(StatusNew)
	assert.ErrorIs(t, Apply(o, Status("Bogus"), fixedNow), ErrValidation)
}
