package policy

import "github.com/sideline/platform/internal/domain"

// StakeLimitPolicy bounds a single wager.
type StakeLimitPolicy struct {
	MinStakeCents int64 `json:"min_stake_cents"`
	MaxStakeCents int64 `json:"max_stake_cents"`
}

// DefaultStakeLimits returns the default stake window ($5 to $100).
func DefaultStakeLimits() StakeLimitPolicy {
	return StakeLimitPolicy{
		MinStakeCents: 500,
		MaxStakeCents: 10_000,
	}
}

// StakeEvaluation holds the result of a stake check.
type StakeEvaluation struct {
	Allowed       bool   `json:"allowed"`
	BreachedLimit string `json:"breached_limit,omitempty"`
	LimitValue    int64  `json:"limit_value,omitempty"`
	RequestedAmt  int64  `json:"requested_amount,omitempty"`
}

// EvaluateStake checks a stake against the policy. A non-positive stake is
// always rejected; zero bounds are treated as unset.
func EvaluateStake(policy StakeLimitPolicy, stakeCents int64) StakeEvaluation {
	if stakeCents <= 0 {
		return StakeEvaluation{BreachedLimit: "positive", RequestedAmt: stakeCents}
	}

	if policy.MinStakeCents > 0 && stakeCents < policy.MinStakeCents {
		return StakeEvaluation{
			BreachedLimit: "min_stake",
			LimitValue:    policy.MinStakeCents,
			RequestedAmt:  stakeCents,
		}
	}

	if policy.MaxStakeCents > 0 && stakeCents > policy.MaxStakeCents {
		return StakeEvaluation{
			BreachedLimit: "max_stake",
			LimitValue:    policy.MaxStakeCents,
			RequestedAmt:  stakeCents,
		}
	}

	return StakeEvaluation{Allowed: true}
}

// CheckStake is EvaluateStake surfaced as a domain error.
func CheckStake(policy StakeLimitPolicy, stakeCents int64) error {
	if eval := EvaluateStake(policy, stakeCents); !eval.Allowed {
		return domain.ErrStakeOutOfRange(policy.MinStakeCents, policy.MaxStakeCents)
	}
	return nil
}
