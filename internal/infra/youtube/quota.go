package youtube

import (
	"fmt"
	"sync"
	"time"

	"channel-insight-service/internal/domain"
)

// Data API list calls used here cost one unit each.
const listCallCost = 1

// QuotaExceededError is returned when a fetch would overrun the daily
// budget. It matches domain.ErrRateLimited.
type QuotaExceededError struct {
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("youtube api quota exceeded: used %d/%d (requested %d more), resets at %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}

func (e *QuotaExceededError) Unwrap() error {
	return domain.ErrRateLimited
}

// quota tracks units spent against the daily limit. The API resets quotas
// at midnight Pacific time.
type quota struct {
	mu    sync.Mutex
	limit int
	used  int
	reset time.Time
	now   func() time.Time
}

func newQuota(limit int, now func() time.Time) *quota {
	q := &quota{limit: limit, now: now}
	q.reset = nextReset(now())
	return q
}

func pacific() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.FixedZone("PST", -8*60*60)
	}
	return loc
}

func nextReset(now time.Time) time.Time {
	pt := now.In(pacific())
	return time.Date(pt.Year(), pt.Month(), pt.Day()+1, 0, 0, 0, 0, pt.Location())
}

// rollLocked clears usage once the reset time has passed.
func (q *quota) rollLocked() {
	if now := q.now(); !now.Before(q.reset) {
		q.used = 0
		q.reset = nextReset(now)
	}
}

// check fails if cost more units would exceed the limit.
func (q *quota) check(cost int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked()
	if q.limit > 0 && q.used+cost > q.limit {
		return &QuotaExceededError{Used: q.used, Limit: q.limit, Requested: cost, ResetTime: q.reset}
	}
	return nil
}

func (q *quota) consume(cost int) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked()
	q.used += cost
	return q.limit - q.used
}

// exhaust marks the budget spent after the API itself reported exhaustion.
func (q *quota) exhaust() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked()
	if q.used < q.limit {
		q.used = q.limit
	}
}

func (q *quota) status() (used, limit int, reset time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked()
	return q.used, q.limit, q.reset
}
