// Package domain contains core business types and interfaces.
//
// This file defines the daily search quota rules. The rules are pure;
// persistence of the reset and increment side effects lives in the
// quota service.
package domain

import "time"

// FreeSearchesPerDay is the daily search allowance for free accounts.
// Premium accounts with an unexpired subscription are unlimited.
const FreeSearchesPerDay = 5

// UnlimitedSearches is the sentinel remaining-count for active premium
// accounts.
const UnlimitedSearches = -1

// NeedsDailyReset reports whether the per-day search counter is stale.
// The counter resets exactly once per UTC calendar day: true iff the
// last reset's date is strictly before now's date.
func NeedsDailyReset(lastReset, now time.Time) bool {
	ly, lm, ld := lastReset.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	last := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	cur := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return last.Before(cur)
}

// AllowSearch decides whether the account may perform another search,
// assuming any due daily reset has already been applied. The premium
// check is independent of the reset: a lapsed premium account falls
// through to the free-tier counter.
func AllowSearch(u *User, now time.Time) bool {
	if u.PremiumActive(now) {
		return true
	}
	return u.SearchesToday < FreeSearchesPerDay
}

// RemainingSearches returns how many searches the account has left
// today, or UnlimitedSearches for active premium accounts. Never
// negative for free accounts.
func RemainingSearches(u *User, now time.Time) int {
	if u.PremiumActive(now) {
		return UnlimitedSearches
	}
	remaining := FreeSearchesPerDay - u.SearchesToday
	if remaining < 0 {
		return 0
	}
	return remaining
}
