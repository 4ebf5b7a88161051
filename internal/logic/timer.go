package logic

import (
	"errors"
	"time"
)

// ErrNoFermentationStart is returned when a fermenting batch has no
// recorded start time.
var ErrNoFermentationStart = errors.New("fermentation start not recorded")

const day = 24 * time.Hour

// ElapsedDays returns whole days between start and now.
func ElapsedDays(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / day)
}

// ReadyForHarvest reports whether at least days whole days have passed
// since start.
func ReadyForHarvest(start, now time.Time, days int) (bool, error) {
	if start.IsZero() {
		return false, ErrNoFermentationStart
	}
	return ElapsedDays(start, now) >= days, nil
}

// DaysRemaining returns whole days left until harvest, zero once ready.
func DaysRemaining(start, now time.Time, days int) (int, error) {
	if start.IsZero() {
		return 0, ErrNoFermentationStart
	}
	left := days - ElapsedDays(start, now)
	if left < 0 {
		left = 0
	}
	return left, nil
}
