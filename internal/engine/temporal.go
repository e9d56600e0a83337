package engine

import (
	"math"
	"sync"
	"time"

	"github.com/spinlab/campaign-engine/internal/models"
)

// DistributionStrategy selects how daily quotas are spread over the campaign.
type DistributionStrategy string

const (
	StrategyUniform   DistributionStrategy = "uniform"
	StrategyWeighted  DistributionStrategy = "weighted"
	StrategyPeakHours DistributionStrategy = "peak_hours"

	// earlyBoostMax is the weighted strategy's quota boost at campaign start,
	// decaying linearly to zero by campaign end.
	earlyBoostMax = 0.30

	// dampeningMax is how far AdjustProbability scales a probability down as
	// the day's quota utilization approaches 100%.
	dampeningMax = 0.50
)

// AwardCheck is the outcome of a daily-quota gate query.
type AwardCheck struct {
	CanAward       bool   `json:"canAward"`
	Reason         string `json:"reason,omitempty"`
	QuotaRemaining int    `json:"quotaRemaining"`
}

// TemporalAdjustment describes how a prize's probability was dampened against
// today's quota utilization.
type TemporalAdjustment struct {
	OriginalProbability float64 `json:"originalProbability"`
	AdjustedProbability float64 `json:"adjustedProbability"`
	Factor              float64 `json:"factor"`
	Reason              string  `json:"reason,omitempty"`
}

// DistributionStats is a read-only aggregate over the quota map.
type DistributionStats struct {
	DaysElapsed          int     `json:"daysElapsed"`
	DaysRemaining        int     `json:"daysRemaining"`
	TotalAwarded         int     `json:"totalAwarded"`
	AverageAwardsPerDay  float64 `json:"averageAwardsPerDay"`
	ProjectedTotalAwards float64 `json:"projectedTotalAwards"`
}

// TemporalDistributor throttles each prize's award rate so a multi-day
// campaign's finite pool is not exhausted on day one. One instance serves one
// running campaign process; state is in-memory and a multi-instance deployment
// must back it with a transactional counter store. All quota state is guarded
// by a single mutex, concurrent recordings never interleave.
type TemporalDistributor struct {
	mu            sync.Mutex
	campaignStart time.Time
	campaignEnd   time.Time
	strategy      DistributionStrategy
	quotas        map[string]map[string]*models.DailyQuota // date -> prize id
	carryOver     map[string]map[string]int                // date -> prize id -> carried units
	dayAwarded    map[string]int                           // date -> total units awarded
}

// NewTemporalDistributor creates a distributor for a campaign window. An
// unknown strategy falls back to uniform.
func NewTemporalDistributor(campaignStart, campaignEnd time.Time, strategy DistributionStrategy) *TemporalDistributor {
	switch strategy {
	case StrategyUniform, StrategyWeighted, StrategyPeakHours:
	default:
		strategy = StrategyUniform
	}
	return &TemporalDistributor{
		campaignStart: campaignStart,
		campaignEnd:   campaignEnd,
		strategy:      strategy,
		quotas:        make(map[string]map[string]*models.DailyQuota),
		carryOver:     make(map[string]map[string]int),
		dayAwarded:    make(map[string]int),
	}
}

// CalculateDailyQuota returns how many units of a prize should be awardable
// today, spreading the remaining pool over the remaining campaign days.
func (t *TemporalDistributor) CalculateDailyQuota(p models.Prize, now time.Time) int {
	remaining := p.Remaining()
	if remaining <= 0 {
		return 0
	}
	days := t.daysRemaining(now)
	base := int(math.Ceil(float64(remaining) / float64(days)))

	switch t.strategy {
	case StrategyWeighted:
		boost := earlyBoostMax * (1 - t.elapsedFraction(now))
		return int(math.Ceil(float64(base) * (1 + boost)))
	case StrategyPeakHours:
		// Reserved for time-of-day weighting; behaves as uniform for now.
		return base
	default:
		return base
	}
}

// CanAwardPrize looks up (or lazily creates) today's quota entry for the
// prize and reports whether another unit fits in it.
func (t *TemporalDistributor) CanAwardPrize(p models.Prize, now time.Time) AwardCheck {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.ensureQuota(p, now)
	remaining := entry.Quota - entry.Awarded
	if remaining <= 0 {
		return AwardCheck{CanAward: false, Reason: "daily quota exhausted", QuotaRemaining: 0}
	}
	return AwardCheck{CanAward: true, QuotaRemaining: remaining}
}

// RecordAttribution increments the day's total and the prize's awarded
// counter. Call exactly once per committed award; there is no rollback.
func (t *TemporalDistributor) RecordAttribution(prizeID string, date time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := dayKey(date)
	day := t.quotas[key]
	if day == nil {
		day = make(map[string]*models.DailyQuota)
		t.quotas[key] = day
	}
	entry := day[prizeID]
	if entry == nil {
		entry = &models.DailyQuota{PrizeID: prizeID, Date: key}
		day[prizeID] = entry
	}
	entry.Awarded++
	t.dayAwarded[key]++
}

// AdjustProbability dampens a prize's draw probability as today's quota fills
// up: zero once exhausted, otherwise a continuous scale-down of up to 50%.
func (t *TemporalDistributor) AdjustProbability(p models.Prize, originalProbability float64, now time.Time) TemporalAdjustment {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.ensureQuota(p, now)
	if entry.Quota <= 0 || entry.Awarded >= entry.Quota {
		return TemporalAdjustment{
			OriginalProbability: originalProbability,
			AdjustedProbability: 0,
			Factor:              0,
			Reason:              "daily quota exhausted",
		}
	}

	utilization := float64(entry.Awarded) / float64(entry.Quota)
	factor := 1 - dampeningMax*utilization
	return TemporalAdjustment{
		OriginalProbability: originalProbability,
		AdjustedProbability: originalProbability * factor,
		Factor:              factor,
	}
}

// ApplyCarryOver moves each prize's unused quota on the given date forward to
// the next day. Invoked by an external scheduler once per day boundary; the
// distributor does not self-schedule.
func (t *TemporalDistributor) ApplyCarryOver(date time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := dayKey(date)
	nextKey := dayKey(date.AddDate(0, 0, 1))
	for prizeID, entry := range t.quotas[key] {
		unused := entry.Quota - entry.Awarded
		if unused <= 0 {
			continue
		}
		if next, ok := t.quotas[nextKey][prizeID]; ok {
			next.Quota += unused
			continue
		}
		carried := t.carryOver[nextKey]
		if carried == nil {
			carried = make(map[string]int)
			t.carryOver[nextKey] = carried
		}
		carried[prizeID] += unused
	}
}

// GetDistributionStats derives reporting aggregates from the quota map.
func (t *TemporalDistributor) GetDistributionStats(now time.Time) DistributionStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, n := range t.dayAwarded {
		total += n
	}

	elapsed := int(now.Sub(t.campaignStart).Hours() / 24)
	if elapsed < 0 {
		elapsed = 0
	}
	average := 0.0
	if elapsed > 0 {
		average = float64(total) / float64(elapsed)
	}
	remaining := t.daysRemaining(now)

	return DistributionStats{
		DaysElapsed:          elapsed,
		DaysRemaining:        remaining,
		TotalAwarded:         total,
		AverageAwardsPerDay:  average,
		ProjectedTotalAwards: float64(total) + average*float64(remaining),
	}
}

// Reset clears all quota state. Intended for tests and campaign restarts.
func (t *TemporalDistributor) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.quotas = make(map[string]map[string]*models.DailyQuota)
	t.carryOver = make(map[string]map[string]int)
	t.dayAwarded = make(map[string]int)
}

// ensureQuota returns today's entry for the prize, creating it with the
// calculated base quota plus any carried-over units. Callers hold t.mu.
func (t *TemporalDistributor) ensureQuota(p models.Prize, now time.Time) *models.DailyQuota {
	key := dayKey(now)
	day := t.quotas[key]
	if day == nil {
		day = make(map[string]*models.DailyQuota)
		t.quotas[key] = day
	}
	if entry, ok := day[p.ID]; ok {
		return entry
	}
	entry := &models.DailyQuota{
		PrizeID: p.ID,
		Date:    key,
		Quota:   t.CalculateDailyQuota(p, now) + t.carryOver[key][p.ID],
	}
	day[p.ID] = entry
	return entry
}

func (t *TemporalDistributor) daysRemaining(now time.Time) int {
	days := int(math.Ceil(t.campaignEnd.Sub(now).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

func (t *TemporalDistributor) elapsedFraction(now time.Time) float64 {
	total := t.campaignEnd.Sub(t.campaignStart)
	if total <= 0 {
		return 1
	}
	f := float64(now.Sub(t.campaignStart)) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
