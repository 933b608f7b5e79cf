package confirm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Ref string
	Qty int
}

func ceiling(n int) *int { return &n }

func TestGateCommitsAtCeiling(t *testing.T) {
	var (
		g    Gate[entry]
		list []entry
	)
	state, err := g.Offer(0, 10, ceiling(10), entry{Ref: "A", Qty: 10}, func(e entry) { list = append(list, e) })
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, state)
	assert.Len(t, list, 1)
	assert.False(t, g.IsPending())
	assert.Equal(t, StateIdle, g.State)
}

func TestGateCancelLeavesListUntouched(t *testing.T) {
	var g Gate[entry]
	list := []entry{{Ref: "A", Qty: 6}}
	add := func(e entry) { list = append(list, e) }

	state, err := g.Offer(6, 5, ceiling(10), entry{Ref: "B", Qty: 5}, add)
	require.NoError(t, err)
	assert.Equal(t, StatePendingConfirmation, state)
	assert.Len(t, list, 1)
	require.NotNil(t, g.Pending)
	assert.Equal(t, 10, g.Pending.Ceiling)

	state, err = g.Cancel()
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, state)
	assert.Len(t, list, 1)
	assert.Equal(t, StateIdle, g.State)
	assert.Nil(t, g.Pending)
}

func TestGateProceedAppends(t *testing.T) {
	var g Gate[entry]
	var list []entry
	add := func(e entry) { list = append(list, e) }

	state, err := g.Offer(0, 11, ceiling(10), entry{Ref: "A", Qty: 11}, add)
	require.NoError(t, err)
	assert.Equal(t, StatePendingConfirmation, state)
	assert.Empty(t, list)

	state, err = g.Proceed(add)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, state)
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].Ref)
	assert.Equal(t, StateIdle, g.State)
}

func TestGateRejectsOfferWhilePending(t *testing.T) {
	var g Gate[entry]
	noop := func(entry) {}
	_, err := g.Offer(5, 6, ceiling(10), entry{Ref: "A"}, noop)
	require.NoError(t, err)

	_, err = g.Offer(0, 1, ceiling(10), entry{Ref: "B"}, noop)
	require.ErrorIs(t, err, ErrPending)
	assert.Equal(t, "A", g.Pending.Item.Ref)
}

func TestGateDecisionsRequirePending(t *testing.T) {
	var g Gate[entry]
	state, err := g.Proceed(func(entry) {})
	require.ErrorIs(t, err, ErrNothingPending)
	assert.Equal(t, StateIdle, state)

	_, err = g.Cancel()
	require.ErrorIs(t, err, ErrNothingPending)
}

func TestGateWithoutCeilingAlwaysCommits(t *testing.T) {
	var g Gate[entry]
	calls := 0
	state, err := g.Offer(1000, 1000, nil, entry{}, func(entry) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, state)
	assert.Equal(t, 1, calls)
}

func TestGateSurvivesJSONRoundTrip(t *testing.T) {
	var g Gate[entry]
	_, err := g.Offer(9, 2, ceiling(10), entry{Ref: "X", Qty: 2}, func(entry) {})
	require.NoError(t, err)

	raw, err := json.Marshal(g)
	require.NoError(t, err)
	var restored Gate[entry]
	require.NoError(t, json.Unmarshal(raw, &restored))

	require.True(t, restored.IsPending())
	var got []entry
	_, err = restored.Proceed(func(e entry) { got = append(got, e) })
	require.NoError(t, err)
	assert.Equal(t, []entry{{Ref: "X", Qty: 2}}, got)
}
