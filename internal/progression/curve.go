package progression

import "math"

// XPThreshold returns the XP required to advance from level to level+1.
// The curve is exponential: floor(100 * 1.5^(level-1)).
func XPThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(100 * math.Pow(1.5, float64(level-1))))
}

// LevelForXP walks the cumulative thresholds from level 1 and returns the
// last level whose cumulative requirement is met. Monotone non-decreasing
// in totalXP.
func LevelForXP(totalXP int) int {
	level := 1
	cumulative := 0
	for {
		cumulative += XPThreshold(level)
		if totalXP < cumulative {
			return level
		}
		level++
	}
}

// XPIntoLevel reports how far into the current level totalXP sits and the
// size of the current level's requirement, for progress display.
func XPIntoLevel(totalXP int) (into, needed int) {
	level := 1
	cumulative := 0
	for {
		needed = XPThreshold(level)
		if totalXP < cumulative+needed {
			return totalXP - cumulative, needed
		}
		cumulative += needed
		level++
	}
}
