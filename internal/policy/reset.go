package policy

import (
	"fmt"
	"time"

	"github.com/sideline/platform/internal/domain"
)

// Reset cooldowns by plan.
const (
	PaidResetCooldownDays = 7
	FreeResetCooldownDays = 30
)

// ResetEvaluation holds the result of a wallet reset eligibility check.
type ResetEvaluation struct {
	Allowed      bool      `json:"allowed"`
	ElapsedDays  int       `json:"elapsed_days"`
	CooldownDays int       `json:"cooldown_days"`
	NextEligible time.Time `json:"next_eligible"`
}

// EvaluateReset computes whole days elapsed since the last reset and compares
// them against the plan's cooldown.
func EvaluateReset(lastResetAt time.Time, isPaid bool, now time.Time) ResetEvaluation {
	cooldown := FreeResetCooldownDays
	if isPaid {
		cooldown = PaidResetCooldownDays
	}

	elapsed := int(now.Sub(lastResetAt) / (24 * time.Hour))
	return ResetEvaluation{
		Allowed:      elapsed >= cooldown,
		ElapsedDays:  elapsed,
		CooldownDays: cooldown,
		NextEligible: lastResetAt.Add(time.Duration(cooldown) * 24 * time.Hour),
	}
}

// ResetPeriodStarted reports whether now falls in a later calendar month
// (UTC) than lastResetAt. resets_used_month counts from zero again once it has.
func ResetPeriodStarted(lastResetAt, now time.Time) bool {
	ly, lm, _ := lastResetAt.UTC().Date()
	ny, nm, _ := now.UTC().Date()
	return ny > ly || (ny == ly && nm > lm)
}

// CanReset is EvaluateReset surfaced as a domain error.
func CanReset(lastResetAt time.Time, isPaid bool, now time.Time) error {
	eval := EvaluateReset(lastResetAt, isPaid, now)
	if !eval.Allowed {
		return domain.ErrTooSoon(fmt.Sprintf("wallet can be reset every %d days; next reset available %s",
			eval.CooldownDays, eval.NextEligible.UTC().Format(time.RFC3339)))
	}
	return nil
}
