package progression

import "math"

// CurveVersion identifies the exp-requirement formula. Stored exp values
// are only meaningful relative to the curve that produced them, so any
// change to ExpNeeded must bump this constant alongside a data migration.
const CurveVersion = 1

const (
	curveBase       = 100
	curveLinearStep = 50
	curveKneeLevel  = 10
	curveGrowth     = 1.02
)

// ExpNeeded returns the XP required to advance from the given level to the
// next one. Linear through level 10, super-linear after. Strictly
// increasing in level; pure function of level only.
func ExpNeeded(level int) int {
	if level < 1 {
		level = 1
	}
	if level <= curveKneeLevel {
		return curveBase + (level-1)*curveLinearStep
	}
	grown := float64(curveBase) * math.Pow(curveGrowth, float64(level-curveKneeLevel))
	return int(math.Floor(grown + float64(level)*100))
}
