package token

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxVestingSeconds is the longest cumulative cliff time a time.Duration can hold.
const MaxVestingSeconds = uint64(math.MaxInt64 / int64(time.Second))

// ErrVestingTooLong is returned when the cliffs add up to more than MaxVestingSeconds.
var ErrVestingTooLong = errors.New("vesting cliffs exceed the maximum duration")

// VestingSchedule releases an allocation of the total supply in cliffs.
// Percentages are fractions (0.25 == 25%).
type VestingSchedule struct {
	AllocationPercentage decimal.Decimal `json:"allocation_percentage"`
	Cliffs               []VestingCliff  `json:"cliffs"`
}

// VestingCliff 单个悬崖期；Duration 以秒计，从上一个悬崖结束开始累计
type VestingCliff struct {
	AllocationPercentage decimal.Decimal `json:"allocation_percentage"`
	Duration             uint64          `json:"duration"`
}

// Validate rejects schedules whose cumulative cliff time overflows a time.Duration.
func (v VestingSchedule) Validate() error {
	var cumulative uint64
	for i, cliff := range v.Cliffs {
		cumulative = addSeconds(cumulative, cliff.Duration)
		if cumulative > MaxVestingSeconds {
			return fmt.Errorf("%w: cliff %d ends after %d seconds", ErrVestingTooLong, i, MaxVestingSeconds)
		}
	}
	return nil
}

// UnlockedTokens returns the tokens released after elapsed seconds.
// Cliffs are cumulative; release stops at the first cliff not yet reached.
func (v VestingSchedule) UnlockedTokens(total decimal.Decimal, elapsed uint64) decimal.Decimal {
	allocated := v.AllocationPercentage.Mul(total)
	unlocked := decimal.Zero

	var cumulative uint64
	for _, cliff := range v.Cliffs {
		cumulative = addSeconds(cumulative, cliff.Duration)
		if elapsed < cumulative {
			break
		}
		unlocked = unlocked.Add(allocated.Mul(cliff.AllocationPercentage))
	}

	return unlocked
}

// UnlockEvents expands the cliffs into dated unlock events starting at start.
// Cliff times past MaxVestingSeconds are clamped to it.
func (v VestingSchedule) UnlockEvents(start time.Time, total decimal.Decimal) []UnlockEvent {
	allocated := v.AllocationPercentage.Mul(total)
	events := make([]UnlockEvent, 0, len(v.Cliffs))

	var cumulative uint64
	for _, cliff := range v.Cliffs {
		cumulative = min(addSeconds(cumulative, cliff.Duration), MaxVestingSeconds)
		events = append(events, UnlockEvent{
			Date:   start.Add(time.Duration(cumulative) * time.Second),
			Amount: allocated.Mul(cliff.AllocationPercentage),
		})
	}

	return events
}

// addSeconds saturates at math.MaxUint64.
func addSeconds(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
