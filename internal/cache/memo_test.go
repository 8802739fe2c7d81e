package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo_ReusesSameVersion(t *testing.T) {
	m := NewMemo[int]()
	calls := 0
	load := func() (int, error) { calls++; return calls * 10, nil }

	v, err := m.Get("prices", "v1", load)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	v, _ = m.Get("prices", "v1", load)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, calls)

	v, _ = m.Get("prices", "v2", load)
	assert.Equal(t, 20, v, "new version reloads")

	hits, misses := m.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 2, misses)
}

func TestMemo_Invalidate(t *testing.T) {
	m := NewMemo[string]()
	calls := 0
	load := func() (string, error) { calls++; return "x", nil }

	_, _ = m.Get("a", "1", load)
	_, _ = m.Get("b", "1", load)
	m.Invalidate("a")
	_, _ = m.Get("a", "1", load)
	_, _ = m.Get("b", "1", load)
	assert.Equal(t, 3, calls)

	m.InvalidateAll()
	_, _ = m.Get("b", "1", load)
	assert.Equal(t, 4, calls)
}

func TestMemo_ErrorsNotCached(t *testing.T) {
	m := NewMemo[int]()
	boom := errors.New("boom")
	_, err := m.Get("k", "1", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := m.Get("k", "1", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMemo_Concurrent(t *testing.T) {
	m := NewMemo[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get("k", "1", func() (int, error) { return 42, nil })
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()
}
