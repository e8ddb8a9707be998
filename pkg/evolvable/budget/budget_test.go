package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasBudgetInitiallyTrue(t *testing.T) {
	b := New(1000)
	assert.True(t, b.HasBudget())
}

func TestRecordConsumesBudget(t *testing.T) {
	b := New(100)
	b.Record(40, 40)
	assert.True(t, b.HasBudget())

	b.Record(10, 20)
	assert.False(t, b.HasBudget())

	status := b.Status()
	assert.Equal(t, int64(110), status.TokensUsedToday)
	assert.Equal(t, int64(2), status.APICallsToday)
	assert.Equal(t, int64(50), status.TotalTokensIn)
	assert.Equal(t, int64(60), status.TotalTokensOut)
	assert.Equal(t, int64(0), status.RemainingTokens)
}

func TestStatusPercentUsed(t *testing.T) {
	b := New(200)
	b.Record(50, 50)

	status := b.Status()
	assert.InDelta(t, 50.0, status.PercentUsed, 0.01)
	assert.Equal(t, int64(100), status.RemainingTokens)
}

func TestReset(t *testing.T) {
	b := New(100)
	b.Record(100, 0)
	assert.False(t, b.HasBudget())

	b.Reset()
	assert.True(t, b.HasBudget())

	status := b.Status()
	assert.Equal(t, int64(0), status.TokensUsedToday)
	assert.Equal(t, int64(0), status.APICallsToday)
	// Lifetime counters survive a daily reset.
	assert.Equal(t, int64(100), status.TotalTokensIn)
}

func TestZeroDailyCapNeverHasBudget(t *testing.T) {
	b := New(0)
	assert.False(t, b.HasBudget())

	status := b.Status()
	assert.Equal(t, float64(0), status.PercentUsed)
}

// BenchmarkRecord is the representative call the Benchmarker shells out
// to via `go test -bench` for this target; see pkg/evolvable/bench.
func BenchmarkRecord(b *testing.B) {
	budget := New(1 << 62)
	for i := 0; i < b.N; i++ {
		budget.Record(10, 10)
	}
}

func TestStopWithoutStart(t *testing.T) {
	b := New(100)
	assert.NotPanics(t, func() { b.Stop() })
}
