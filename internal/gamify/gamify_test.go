package gamify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		xp   int
		tier string
	}{
		{0, "bronze"},
		{199, "bronze"},
		{200, "silver"},
		{799, "silver"},
		{800, "gold"},
		{1999, "gold"},
		{2000, "platinum"},
		{4999, "platinum"},
		{5000, "diamond"},
		{100000, "diamond"},
	}
	for _, c := range cases {
		require.Equal(t, c.tier, TierFor(c.xp), "xp=%d", c.xp)
	}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAdvanceStreakFirstActivity(t *testing.T) {
	res, err := AdvanceStreak(0, nil, day("2026-03-01"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Streak)
	require.Zero(t, res.BonusXP)
	require.False(t, res.Milestone)
}

func TestAdvanceStreakConsecutiveDay(t *testing.T) {
	last := day("2026-03-01")
	res, err := AdvanceStreak(3, &last, day("2026-03-02"))
	require.NoError(t, err)
	require.Equal(t, 4, res.Streak)
	require.Equal(t, XPDailyLogin, res.BonusXP)
	require.False(t, res.Milestone)
}

func TestAdvanceStreakMilestone(t *testing.T) {
	last := day("2026-03-01")
	res, err := AdvanceStreak(6, &last, day("2026-03-02"))
	require.NoError(t, err)
	require.Equal(t, 7, res.Streak)
	require.Equal(t, XPDailyLogin+XPStreakBonus, res.BonusXP)
	require.True(t, res.Milestone)
}

func TestAdvanceStreakSameDayIdempotent(t *testing.T) {
	last := day("2026-03-02")
	res, err := AdvanceStreak(4, &last, day("2026-03-02"))
	require.NoError(t, err)
	require.True(t, res.SameDay)
	require.Equal(t, 4, res.Streak)
	require.Zero(t, res.BonusXP)
}

func TestAdvanceStreakGapResets(t *testing.T) {
	last := day("2026-03-01")
	res, err := AdvanceStreak(12, &last, day("2026-03-05"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Streak)
	require.Zero(t, res.BonusXP)
}

func TestAdvanceStreakRejectsStaleDate(t *testing.T) {
	last := day("2026-03-05")
	_, err := AdvanceStreak(2, &last, day("2026-03-04"))
	require.ErrorIs(t, err, ErrStaleDate)
}
