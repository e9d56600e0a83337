package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinlab/campaign-engine/internal/models"
)

var (
	campaignStart = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	campaignEnd   = time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC) // 10-day campaign
)

func hundredUnitPrize() models.Prize {
	return probabilityPrize("p1", 10, 100)
}

func TestCalculateDailyQuotaUniform(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()

	day1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 10, d.CalculateDailyQuota(prize, day1))

	// Day 6: 5 days remaining, 100 units remaining.
	day6 := time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 20, d.CalculateDailyQuota(prize, day6))
}

func TestCalculateDailyQuotaExhaustedPrize(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()
	prize.AwardedUnits = 100

	assert.Zero(t, d.CalculateDailyQuota(prize, campaignStart))
}

func TestCalculateDailyQuotaFloorsAtOneDay(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()

	// Past the campaign end the divisor stays at one day.
	afterEnd := campaignEnd.Add(48 * time.Hour)
	assert.Equal(t, 100, d.CalculateDailyQuota(prize, afterEnd))
}

func TestCalculateDailyQuotaWeightedBoostsEarly(t *testing.T) {
	uniform := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	weighted := NewTemporalDistributor(campaignStart, campaignEnd, StrategyWeighted)
	prize := hundredUnitPrize()

	early := campaignStart
	assert.Equal(t, 13, weighted.CalculateDailyQuota(prize, early)) // ceil(10 * 1.30)
	assert.Greater(t, weighted.CalculateDailyQuota(prize, early), uniform.CalculateDailyQuota(prize, early))

	// By campaign end the boost has decayed to nothing.
	late := campaignEnd
	assert.Equal(t, uniform.CalculateDailyQuota(prize, late), weighted.CalculateDailyQuota(prize, late))
}

func TestCalculateDailyQuotaPeakHoursMatchesUniform(t *testing.T) {
	uniform := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	peak := NewTemporalDistributor(campaignStart, campaignEnd, StrategyPeakHours)
	prize := hundredUnitPrize()

	day3 := campaignStart.AddDate(0, 0, 2)
	assert.Equal(t, uniform.CalculateDailyQuota(prize, day3), peak.CalculateDailyQuota(prize, day3))
}

func TestCanAwardPrizeAndExhaustion(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()
	day1 := campaignStart

	check := d.CanAwardPrize(prize, day1)
	require.True(t, check.CanAward)
	assert.Equal(t, 10, check.QuotaRemaining)

	for i := 0; i < 10; i++ {
		d.RecordAttribution(prize.ID, day1)
	}

	check = d.CanAwardPrize(prize, day1)
	assert.False(t, check.CanAward)
	assert.Zero(t, check.QuotaRemaining)
	assert.Equal(t, "daily quota exhausted", check.Reason)
}

func TestCarryOverIncreasesNextDayCapacity(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()
	day1 := campaignStart
	day2 := campaignStart.AddDate(0, 0, 1)

	// Consume half of day 1's quota of 10, carry the rest forward.
	require.True(t, d.CanAwardPrize(prize, day1).CanAward)
	for i := 0; i < 5; i++ {
		d.RecordAttribution(prize.ID, day1)
	}
	d.ApplyCarryOver(day1)

	// The 5 unused units are added on top of day 2's base quota.
	check := d.CanAwardPrize(prize, day2)
	base := d.CalculateDailyQuota(prize, day2)
	assert.Greater(t, check.QuotaRemaining, base)
	assert.Equal(t, base+5, check.QuotaRemaining)
}

func TestCarryOverIntoExistingEntry(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()
	day1 := campaignStart
	day2 := campaignStart.AddDate(0, 0, 1)

	// Day 2 entry is created before the carry-over runs.
	d.CanAwardPrize(prize, day1)
	before := d.CanAwardPrize(prize, day2).QuotaRemaining
	d.ApplyCarryOver(day1)

	after := d.CanAwardPrize(prize, day2).QuotaRemaining
	assert.Equal(t, before+10, after)
}

func TestAdjustProbabilityDampening(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()
	day1 := campaignStart

	// Untouched quota: no dampening.
	adj := d.AdjustProbability(prize, 40, day1)
	assert.Equal(t, 40.0, adj.AdjustedProbability)
	assert.Equal(t, 1.0, adj.Factor)

	// Half the quota consumed: scaled down by 25%.
	for i := 0; i < 5; i++ {
		d.RecordAttribution(prize.ID, day1)
	}
	adj = d.AdjustProbability(prize, 40, day1)
	assert.InDelta(t, 0.75, adj.Factor, 1e-9)
	assert.InDelta(t, 30, adj.AdjustedProbability, 1e-9)

	// Exhausted: hard zero.
	for i := 0; i < 5; i++ {
		d.RecordAttribution(prize.ID, day1)
	}
	adj = d.AdjustProbability(prize, 40, day1)
	assert.Zero(t, adj.AdjustedProbability)
	assert.Zero(t, adj.Factor)
	assert.Equal(t, "daily quota exhausted", adj.Reason)
}

func TestGetDistributionStats(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()

	day1 := campaignStart
	d.CanAwardPrize(prize, day1)
	for i := 0; i < 4; i++ {
		d.RecordAttribution(prize.ID, day1)
	}

	day3 := campaignStart.AddDate(0, 0, 2)
	stats := d.GetDistributionStats(day3)

	assert.Equal(t, 2, stats.DaysElapsed)
	assert.Equal(t, 8, stats.DaysRemaining)
	assert.Equal(t, 4, stats.TotalAwarded)
	assert.InDelta(t, 2.0, stats.AverageAwardsPerDay, 1e-9)
	assert.InDelta(t, 20.0, stats.ProjectedTotalAwards, 1e-9)
}

func TestReset(t *testing.T) {
	d := NewTemporalDistributor(campaignStart, campaignEnd, StrategyUniform)
	prize := hundredUnitPrize()

	d.RecordAttribution(prize.ID, campaignStart)
	d.Reset()

	stats := d.GetDistributionStats(campaignStart)
	assert.Zero(t, stats.TotalAwarded)
}
