package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentileCents(t *testing.T) {
	values := []int64{50000, 10000, 30000, 20000, 40000}

	// Nearest rank on the sorted copy {10000..50000}.
	assert.Equal(t, int64(20000), percentileCents(values, 0.25))
	assert.Equal(t, int64(30000), percentileCents(values, 0.50))
	assert.Equal(t, int64(40000), percentileCents(values, 0.75))
	assert.Equal(t, int64(50000), percentileCents(values, 0.90))
}

func TestPercentileCentsSingleValue(t *testing.T) {
	values := []int64{12345}
	assert.Equal(t, int64(12345), percentileCents(values, 0.25))
	assert.Equal(t, int64(12345), percentileCents(values, 0.90))
}

func TestPercentileCentsEmpty(t *testing.T) {
	assert.Equal(t, int64(0), percentileCents(nil, 0.5))
}

func TestPercentileCentsClampsUpperIndex(t *testing.T) {
	values := []int64{100, 200}
	// floor(2*1.0) = 2 clamps to the last element.
	assert.Equal(t, int64(200), percentileCents(values, 1.0))
}

func TestRateZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, rate(5, 0))
	assert.Equal(t, 50.0, rate(1, 2))
}

func TestMeanCentsRounds(t *testing.T) {
	assert.Equal(t, int64(0), meanCents(nil))
	assert.Equal(t, int64(33), meanCents([]int64{50, 25, 25}))
	assert.Equal(t, int64(17), meanCents([]int64{16, 17, 17}))
}

func TestTopKey(t *testing.T) {
	assert.Equal(t, "", topKey(map[string]int{}))
	assert.Equal(t, "hvac", topKey(map[string]int{"hvac": 3, "plumbing": 1}))
	// Ties break alphabetically for deterministic re-runs.
	assert.Equal(t, "electrical", topKey(map[string]int{"plumbing": 2, "electrical": 2}))
	// Empty keys never win.
	assert.Equal(t, "hvac", topKey(map[string]int{"": 9, "hvac": 1}))
}
