// Package gamification contains the pure scoring rules of FocusArena:
// XP settlement for finished sessions and achievement condition
// evaluation. Nothing in this package touches storage, the clock is an
// explicit argument, and every function is deterministic.
package gamification

import (
	"math"

	"github.com/focusarena/focusarena/internal/domain/user"
)

// Scoring constants.
const (
	// BaseXPMultiplier scales actual focused minutes into XP.
	BaseXPMultiplier = 1.2

	// PunctualityMultiplier scales the intended duration into a bonus
	// when the user finishes close to plan.
	PunctualityMultiplier = 0.3

	// PunctualityToleranceMinutes is the maximum |actual - intended|
	// for which the punctuality bonus applies.
	PunctualityToleranceMinutes = 5
)

// Settlement is the outcome of settling one session against the user's
// current progression.
type Settlement struct {
	// BaseXP is floor(actualDuration * 1.2) for a completed session,
	// 0 for an abandoned one.
	BaseXP int

	// PunctualityBonus is floor(intendedDuration * 0.3) when the session
	// completed within tolerance of plan, 0 otherwise.
	PunctualityBonus int

	// XPEarned is BaseXP + PunctualityBonus.
	XPEarned int

	// NewLevel is the level after applying XPEarned.
	NewLevel int

	// LeveledUp reports whether NewLevel exceeds the level before
	// settlement.
	LeveledUp bool
}

// SettleSession computes the XP award and level outcome for a finished
// session. All XP quantities are floored to integers. Abandoned sessions
// earn nothing but still settle (the caller folds hours in regardless).
func SettleSession(currentXP, currentLevel, intendedDuration, actualDuration int, completed bool) Settlement {
	var base, bonus int

	if completed {
		base = int(math.Floor(float64(actualDuration) * BaseXPMultiplier))

		delta := actualDuration - intendedDuration
		if delta < 0 {
			delta = -delta
		}
		if delta <= PunctualityToleranceMinutes {
			bonus = int(math.Floor(float64(intendedDuration) * PunctualityMultiplier))
		}
	}

	earned := base + bonus
	newLevel := user.LevelForXP(currentXP + earned)

	return Settlement{
		BaseXP:           base,
		PunctualityBonus: bonus,
		XPEarned:         earned,
		NewLevel:         newLevel,
		LeveledUp:        newLevel > currentLevel,
	}
}
