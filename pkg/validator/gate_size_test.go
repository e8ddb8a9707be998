package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func linesOf(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "x"
	}
	return strings.Join(lines, "\n")
}

func TestSizeLimitWithinCap(t *testing.T) {
	old := linesOf(50)
	rej := sizeLimit(old, old)
	assert.Nil(t, rej)
}

func TestSizeLimitExceedsCap(t *testing.T) {
	old := linesOf(50)
	new := linesOf(200)
	rej := sizeLimit(old, new)
	assert.NotNil(t, rej)
	assert.Contains(t, rej.Reason, "too_many_changes")
}

func TestSizeLimitClamp(t *testing.T) {
	// 0.6 * 10 = 6, clamped up to floor of 20
	assert.Equal(t, 20, clamp(round(0.6*10), 20, 80))
	// 0.6 * 200 = 120, clamped down to ceiling of 80
	assert.Equal(t, 80, clamp(round(0.6*200), 20, 80))
}
