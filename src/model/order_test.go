package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHistoryRingWraparound(t *testing.T) {
	var ring HistoryRing

	require.Empty(t, ring.Recent())

	ring.Push("a")
	require.Equal(t, []string{"a"}, ring.Recent())

	ring.Push("b")
	ring.Push("c")
	require.Equal(t, []string{"a", "b", "c"}, ring.Recent())

	// A fourth push overwrites the oldest entry.
	ring.Push("d")
	require.Equal(t, []string{"b", "c", "d"}, ring.Recent())

	ring.Push("e")
	ring.Push("f")
	ring.Push("g")
	require.Equal(t, []string{"e", "f", "g"}, ring.Recent())
}

func TestTradeOrderExists(t *testing.T) {
	var missing *TradeOrder
	require.False(t, missing.Exists())

	require.False(t, (&TradeOrder{}).Exists())
	require.True(t, (&TradeOrder{CreatedAt: time.Now()}).Exists())
}

func TestExecutionsExhausted(t *testing.T) {
	order := &TradeOrder{MaxExecutions: 0, ExecutionCount: 100}
	require.False(t, order.ExecutionsExhausted(), "zero cap means unbounded")

	order = &TradeOrder{MaxExecutions: 2, ExecutionCount: 1}
	require.False(t, order.ExecutionsExhausted())

	order.ExecutionCount = 2
	require.True(t, order.ExecutionsExhausted())
}

func TestDeadlinePassed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	order := &TradeOrder{}
	require.False(t, order.DeadlinePassed(now), "zero deadline never passes")

	order.Deadline = now
	require.False(t, order.DeadlinePassed(now), "deadline is inclusive of its own instant")

	require.True(t, order.DeadlinePassed(now.Add(time.Second)))
}
