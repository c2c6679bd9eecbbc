package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empirica-legal/expediente-tracker/internal/checker"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(10, time.Minute)

	result := &checker.CheckResult{CycleID: "cycle-1", Sequence: 1, NewCount: 2}
	require.NoError(t, c.Set(ResultKey(7), result))

	got, found := c.Get(ResultKey(7))
	require.True(t, found)
	assert.Equal(t, result, got)

	_, found = c.Get(ResultKey(8))
	assert.False(t, found)
}

func TestCacheDelete(t *testing.T) {
	c := NewCache(10, time.Minute)
	require.NoError(t, c.Set(ResultKey(7), &checker.CheckResult{CycleID: "cycle-1"}))

	c.Delete(ResultKey(7))
	_, found := c.Get(ResultKey(7))
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10, 50*time.Millisecond)
	require.NoError(t, c.Set(ResultKey(7), &checker.CheckResult{CycleID: "cycle-1"}))

	time.Sleep(80 * time.Millisecond)
	_, found := c.Get(ResultKey(7))
	assert.False(t, found)
}

func TestCacheStats(t *testing.T) {
	c := NewCache(10, time.Minute)
	require.NoError(t, c.Set(ResultKey(7), &checker.CheckResult{CycleID: "cycle-1"}))

	c.Get(ResultKey(7))
	c.Get(ResultKey(8))

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestCacheClear(t *testing.T) {
	c := NewCache(10, time.Minute)
	require.NoError(t, c.Set(ResultKey(7), &checker.CheckResult{CycleID: "cycle-1"}))

	c.Clear()
	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.EqualValues(t, 0, stats.Hits)
}

func TestCacheEviction(t *testing.T) {
	c := NewCache(2, time.Minute)
	require.NoError(t, c.Set(ResultKey(1), &checker.CheckResult{CycleID: "a"}))
	require.NoError(t, c.Set(ResultKey(2), &checker.CheckResult{CycleID: "b"}))
	require.NoError(t, c.Set(ResultKey(3), &checker.CheckResult{CycleID: "c"}))

	assert.LessOrEqual(t, c.Stats().Size, 2)
}

func TestResultKey(t *testing.T) {
	assert.Equal(t, "check:7", ResultKey(7))
}
