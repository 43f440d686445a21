// Package gamify holds the pure functions behind tiers and login streaks.
// Nothing here touches storage; callers persist the results.
package gamify

import (
	"errors"
	"time"
)

// Tier break points, evaluated top-down.
var tiers = []struct {
	Name      string
	Threshold int
}{
	{"diamond", 5000},
	{"platinum", 2000},
	{"gold", 800},
	{"silver", 200},
}

// TierFor maps cumulative XP to a tier label.
func TierFor(xp int) string {
	for _, t := range tiers {
		if xp >= t.Threshold {
			return t.Name
		}
	}
	return "bronze"
}

// XP awards per event.
const (
	XPSignup         = 100
	XPDailyLogin     = 10
	XPStreakBonus    = 50
	XPDeposit        = 5
	XPTransfer       = 15
	XPGoalCreated    = 20
	XPSavingsDeposit = 10
	XPGoalReached    = 100
	XPScheduled      = 10
	XPSplitCreated   = 15
)

// StreakMilestone is the streak interval that earns bonus XP.
const StreakMilestone = 7

// ErrStaleDate is returned when an activity date precedes the recorded one.
var ErrStaleDate = errors.New("activity date precedes last recorded activity")

// StreakResult is the outcome of one streak transition.
type StreakResult struct {
	Streak    int
	BonusXP   int
	Milestone bool
	SameDay   bool
}

// AdvanceStreak applies the login-streak state machine for one activity on
// `today`, given the stored streak and last activity date. A repeat on the
// same day changes nothing; a consecutive day extends the streak and earns
// XPDailyLogin, plus XPStreakBonus every StreakMilestone days; first-ever
// activity or any gap resets the streak to 1. Dates are compared at day
// granularity in UTC. An out-of-order date is a caller error.
func AdvanceStreak(streak int, last *time.Time, today time.Time) (StreakResult, error) {
	day := truncateDay(today)
	if last == nil {
		return StreakResult{Streak: 1}, nil
	}
	prev := truncateDay(*last)
	if day.Before(prev) {
		return StreakResult{}, ErrStaleDate
	}
	if day.Equal(prev) {
		return StreakResult{Streak: streak, SameDay: true}, nil
	}
	if !day.Equal(prev.AddDate(0, 0, 1)) {
		return StreakResult{Streak: 1}, nil
	}
	res := StreakResult{Streak: streak + 1, BonusXP: XPDailyLogin}
	if res.Streak%StreakMilestone == 0 {
		res.BonusXP += XPStreakBonus
		res.Milestone = true
	}
	return res, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
