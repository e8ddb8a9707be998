// Package budget tracks daily and lifetime LLM token consumption and
// gates further calls once the daily cap is exhausted.
package budget

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status is a point-in-time snapshot of the budget's state.
type Status struct {
	DailyCap        int64   `json:"daily_cap"`
	TokensUsedToday int64   `json:"tokens_used_today"`
	APICallsToday   int64   `json:"api_calls_today"`
	TotalTokensIn   int64   `json:"total_tokens_in"`
	TotalTokensOut  int64   `json:"total_tokens_out"`
	LastResetDate   string  `json:"last_reset_date"` // YYYY-MM-DD, UTC
	RemainingTokens int64   `json:"remaining_tokens"`
	PercentUsed     float64 `json:"percent_used"` // rounded to one decimal
}

// Budget is a process-wide singleton tracking token spend against a
// daily cap. All methods are safe for concurrent use.
type Budget struct {
	mu sync.Mutex

	dailyCap        int64
	tokensUsedToday int64
	apiCallsToday   int64
	totalTokensIn   int64
	totalTokensOut  int64
	lastResetDate   string

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New returns a Budget with the given daily cap, initialized as if reset
// today.
func New(dailyCap int64) *Budget {
	return &Budget{
		dailyCap:      dailyCap,
		lastResetDate: today(),
	}
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// HasBudget reports whether at least one more call fits within today's
// cap. Applies a lazy midnight reset first.
func (b *Budget) HasBudget() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeResetLocked()
	return b.tokensUsedToday < b.dailyCap
}

// Record adds to today's and lifetime token counters and bumps the call
// count. Applies a lazy midnight reset first.
func (b *Budget) Record(tokensIn, tokensOut int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeResetLocked()
	b.tokensUsedToday += tokensIn + tokensOut
	b.totalTokensIn += tokensIn
	b.totalTokensOut += tokensOut
	b.apiCallsToday++
}

// Status returns a snapshot including remaining tokens and percentage
// used. Applies a lazy midnight reset first.
func (b *Budget) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeResetLocked()
	return b.snapshotLocked()
}

// Reset performs an explicit daily reset regardless of date.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
}

func (b *Budget) maybeResetLocked() {
	if t := today(); t != b.lastResetDate {
		b.lastResetDate = t
		b.tokensUsedToday = 0
		b.apiCallsToday = 0
	}
}

func (b *Budget) resetLocked() {
	b.lastResetDate = today()
	b.tokensUsedToday = 0
	b.apiCallsToday = 0
}

func (b *Budget) snapshotLocked() Status {
	remaining := b.dailyCap - b.tokensUsedToday
	if remaining < 0 {
		remaining = 0
	}
	var pct float64
	if b.dailyCap > 0 {
		pct = roundTo1(float64(b.tokensUsedToday) / float64(b.dailyCap) * 100)
	}
	return Status{
		DailyCap:        b.dailyCap,
		TokensUsedToday: b.tokensUsedToday,
		APICallsToday:   b.apiCallsToday,
		TotalTokensIn:   b.totalTokensIn,
		TotalTokensOut:  b.totalTokensOut,
		LastResetDate:   b.lastResetDate,
		RemainingTokens: remaining,
		PercentUsed:     pct,
	}
}

func roundTo1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// StartResetTicker begins an hourly background tick that triggers the
// lazy midnight reset so dashboards stay fresh even without queries. It
// returns immediately; call Stop to shut the ticker down.
func (b *Budget) StartResetTicker(ctx context.Context) {
	b.stopCh = make(chan struct{})
	b.wg.Add(1)
	go b.tick(ctx)
}

func (b *Budget) tick(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.mu.Lock()
			b.maybeResetLocked()
			b.mu.Unlock()
			slog.Debug("budget: hourly reset check complete")
		}
	}
}

// Stop signals the reset ticker to stop and waits for it to finish. Safe
// to call multiple times, and safe to call even if StartResetTicker was
// never called.
func (b *Budget) Stop() {
	b.stopOnce.Do(func() {
		if b.stopCh != nil {
			close(b.stopCh)
		}
	})
	b.wg.Wait()
}
