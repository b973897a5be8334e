package progression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coderquest/coderquest/internal/progression"
)

func TestXPThreshold_KnownValues(t *testing.T) {
	// floor(100 * 1.5^(L-1))
	tests := []struct {
		level    int
		expected int
	}{
		{1, 100},
		{2, 150},
		{3, 225},
		{4, 337},
		{5, 506},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, progression.XPThreshold(tt.level), "level=%d", tt.level)
	}
}

func TestXPThreshold_StrictlyIncreasing(t *testing.T) {
	for level := 1; level < 30; level++ {
		assert.Greater(t, progression.XPThreshold(level+1), progression.XPThreshold(level),
			"threshold must strictly increase at level %d", level)
	}
}

func TestLevelForXP_CumulativeWalk(t *testing.T) {
	tests := []struct {
		xp       int
		expected int
	}{
		{0, 1},
		{99, 1},
		{100, 2},  // level 1 needs 100
		{249, 2},  // level 2 needs 150 more
		{250, 3},
		{474, 3}, // level 3 needs 225 more
		{475, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, progression.LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelForXP_MonotoneNonDecreasing(t *testing.T) {
	prev := progression.LevelForXP(0)
	for xp := 1; xp <= 5000; xp += 7 {
		level := progression.LevelForXP(xp)
		assert.GreaterOrEqual(t, level, prev, "level must not decrease at xp=%d", xp)
		prev = level
	}
}

func TestXPIntoLevel(t *testing.T) {
	into, needed := progression.XPIntoLevel(0)
	assert.Equal(t, 0, into)
	assert.Equal(t, 100, needed)

	into, needed = progression.XPIntoLevel(120)
	assert.Equal(t, 20, into)
	assert.Equal(t, 150, needed)
}
