package bus

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_SortedAndComplete(t *testing.T) {
	parts := map[string][]int{
		"TCS":      {1, 2, 3},
		"INFY":     {4},
		"RELIANCE": {},
	}
	res := Map(context.Background(), 2, parts, func(_ string, in []int) int {
		s := 0
		for _, v := range in {
			s += v
		}
		return s
	})

	require.Len(t, res, 3)
	assert.Equal(t, "INFY", res[0].Key)
	assert.Equal(t, 4, res[0].Value)
	assert.Equal(t, "RELIANCE", res[1].Key)
	assert.Equal(t, 0, res[1].Value)
	assert.Equal(t, "TCS", res[2].Key)
	assert.Equal(t, 6, res[2].Value)
}

func TestMap_PanicContainedToPartition(t *testing.T) {
	parts := map[string]string{"A": "ok", "B": "boom", "C": "ok"}
	res := Map(context.Background(), 3, parts, func(key, in string) string {
		if in == "boom" {
			panic("bad series")
		}
		return strings.ToLower(key)
	})

	vals, errs := Values(res)
	assert.Equal(t, []string{"a", "c"}, vals)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "partition B")
}

func TestMap_UsesAllWorkersConcurrently(t *testing.T) {
	parts := make(map[string]int)
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		parts[k] = 1
	}
	var calls atomic.Int32
	res := Map(context.Background(), 0, parts, func(string, int) int {
		calls.Add(1)
		return 1
	})
	assert.Len(t, res, 8)
	assert.EqualValues(t, 8, calls.Load())
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parts := map[string]int{"a": 1, "b": 2}
	res := Map(ctx, 1, parts, func(_ string, v int) int { return v })
	require.Len(t, res, 2)
	for _, r := range res {
		// a worker may still win the race for the first job
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
	}
}

func TestMap_Empty(t *testing.T) {
	res := Map(context.Background(), 4, map[string]int{}, func(_ string, v int) int { return v })
	assert.Empty(t, res)
}
