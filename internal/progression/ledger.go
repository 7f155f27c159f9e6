package progression

// ApplyExpDelta adds a signed XP delta to (level, exp) and normalizes the
// result against the experience curve, cascading through as many level-ups
// or level-downs as the delta spans in a single call. The result always
// satisfies newLevel >= 1 and 0 <= newExp < ExpNeeded(newLevel).
// levelsChanged is signed and drives level-up/level-down notifications.
func ApplyExpDelta(level, exp, delta int) (newLevel, newExp, levelsChanged int) {
	if level < 1 {
		level = 1
	}
	if exp < 0 {
		exp = 0
	}

	startLevel := level
	exp += delta

	for exp >= ExpNeeded(level) {
		exp -= ExpNeeded(level)
		level++
	}
	for exp < 0 && level > 1 {
		level--
		exp += ExpNeeded(level)
	}
	// Floor of the progression: penalties cannot push below level 1, exp 0.
	if exp < 0 {
		exp = 0
	}

	return level, exp, level - startLevel
}
