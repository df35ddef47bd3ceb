package policy

import (
	"testing"
	"time"

	"github.com/sideline/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateStake_AllowsWithinLimits(t *testing.T) {
	result := EvaluateStake(DefaultStakeLimits(), 2_500)
	assert.True(t, result.Allowed)
}

func TestEvaluateStake_BoundsAreInclusive(t *testing.T) {
	policy := DefaultStakeLimits()
	assert.True(t, EvaluateStake(policy, 500).Allowed)
	assert.True(t, EvaluateStake(policy, 10_000).Allowed)
}

func TestEvaluateStake_BlocksBelowMinimum(t *testing.T) {
	result := EvaluateStake(DefaultStakeLimits(), 499)
	assert.False(t, result.Allowed)
	assert.Equal(t, "min_stake", result.BreachedLimit)
	assert.Equal(t, int64(500), result.LimitValue)
}

func TestEvaluateStake_BlocksAboveMaximum(t *testing.T) {
	result := EvaluateStake(DefaultStakeLimits(), 10_001)
	assert.False(t, result.Allowed)
	assert.Equal(t, "max_stake", result.BreachedLimit)
}

func TestEvaluateStake_RejectsNonPositive(t *testing.T) {
	unbounded := StakeLimitPolicy{}
	assert.False(t, EvaluateStake(unbounded, 0).Allowed)
	assert.False(t, EvaluateStake(unbounded, -100).Allowed)
	assert.True(t, EvaluateStake(unbounded, 1).Allowed)
}

func TestCheckStake(t *testing.T) {
	err := CheckStake(DefaultStakeLimits(), 20_000)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeStakeOutOfRange))

	require.NoError(t, CheckStake(DefaultStakeLimits(), 1_000))
}

func TestCanReset(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) time.Time { return now.Add(-time.Duration(d) * 24 * time.Hour) }

	tests := []struct {
		name    string
		last    time.Time
		isPaid  bool
		allowed bool
	}{
		{"paid 6 days", daysAgo(6), true, false},
		{"paid 7 days", daysAgo(7), true, true},
		{"paid just short of 7 days", daysAgo(7).Add(time.Minute), true, false},
		{"free 7 days", daysAgo(7), false, false},
		{"free 29 days", daysAgo(29), false, false},
		{"free 30 days", daysAgo(30), false, true},
		{"free 90 days", daysAgo(90), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanReset(tt.last, tt.isPaid, now)
			if tt.allowed {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.HasCode(err, domain.CodeTooSoon))
		})
	}
}

func TestEvaluateReset_NextEligible(t *testing.T) {
	last := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	eval := EvaluateReset(last, true, last.Add(48*time.Hour))
	assert.Equal(t, 2, eval.ElapsedDays)
	assert.Equal(t, 7, eval.CooldownDays)
	assert.Equal(t, last.Add(7*24*time.Hour), eval.NextEligible)
}

func TestResetPeriodStarted(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"same month", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 31, 23, 0, 0, 0, time.UTC), false},
		{"next month", time.Date(2026, 10, 31, 23, 0, 0, 0, time.UTC), time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), true},
		{"next year", time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC), time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"earlier month of a later year is still later", time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"compared in UTC", time.Date(2026, 10, 31, 20, 0, 0, 0, time.FixedZone("EDT", -4*3600)), time.Date(2026, 11, 1, 1, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResetPeriodStarted(tt.last, tt.now))
		})
	}
}
