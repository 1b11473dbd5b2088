package repo

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderAccepted, true},
		{OrderPending, OrderVerified, true},
		{OrderPending, OrderRejected, true},
		{OrderPending, OrderCompleted, false},
		{OrderAccepted, OrderCompleted, true},
		{OrderAccepted, OrderFailed, true},
		{OrderVerified, OrderCompleted, true},
		{OrderVerified, OrderRejected, false},
		{OrderCompleted, OrderFailed, false},
		{OrderRejected, OrderAccepted, false},
		{OrderFailed, OrderCompleted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderCompleted.Terminal())
	assert.True(t, OrderFailed.Terminal())
	assert.True(t, OrderRejected.Terminal())
	assert.False(t, OrderPending.Terminal())
	assert.False(t, OrderAccepted.Terminal())
	assert.False(t, OrderVerified.Terminal())
}

func TestPredecessors(t *testing.T) {
	assert.ElementsMatch(t, []string{"accepted", "verified"}, Predecessors(OrderCompleted))
	assert.ElementsMatch(t, []string{"accepted", "verified"}, Predecessors(OrderFailed))
	assert.ElementsMatch(t, []string{"pending"}, Predecessors(OrderAccepted))
	assert.Empty(t, Predecessors(OrderPending))
}

func TestTransitionErrorMatchesSentinel(t *testing.T) {
	err := errors.Wrap(&TransitionError{OrderRef: "ORD-1", Current: OrderCompleted, Target: OrderFailed}, "finalize")
	assert.True(t, errors.Is(err, ErrTransitionRejected))

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, OrderCompleted, te.Current)
	assert.Contains(t, te.Error(), "ORD-1")
}

func TestDecodeProduct(t *testing.T) {
	payload := `{"id":"5d1c","title":"Pakiet VIP","description":"Dostep na 30 dni","image_url":"https://cdn.example/vip.png",
		"variants":[{"name":"30 dni","price":19.99},{"name":"90 dni","price":"49.00"}]}`

	p, err := DecodeProduct(payload)
	require.NoError(t, err)
	assert.Equal(t, "Pakiet VIP", p.Title)
	assert.Equal(t, "https://cdn.example/vip.png", p.ImageURL)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "19.99", p.Variants[0].Price.String())
	assert.Equal(t, "49.00", p.Variants[1].Price.String())
}

func TestDecodeProductRejectsGarbage(t *testing.T) {
	_, err := DecodeProduct("not json")
	assert.Error(t, err)
}
