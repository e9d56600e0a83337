package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinlab/campaign-engine/internal/models"
)

var testNow = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func manualSegment(id string, percent float64) models.Segment {
	return models.Segment{ID: id, Label: id, ManualProbabilityPercent: &percent}
}

func sumProbabilities(segments []models.Segment) float64 {
	sum := 0.0
	for _, s := range segments {
		sum += s.Probability
	}
	return sum
}

func TestComputeSegmentProbabilitiesEmptyInput(t *testing.T) {
	res := ComputeSegmentProbabilities(nil, nil, testNow)
	assert.Empty(t, res.Segments)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Aucun segment fourni", res.Errors[0])
}

func TestGuaranteedWinSingleSegment(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "p1"},
		{ID: "b"},
		{ID: "c"},
		{ID: "d"},
	}
	prizes := []models.Prize{probabilityPrize("p1", 100, 1)}

	res := ComputeSegmentProbabilities(segments, prizes, testNow)

	require.Len(t, res.Segments, 4)
	assert.True(t, res.HasGuaranteedWin)
	assert.InDelta(t, 100, res.Segments[0].Probability, ProbabilityTolerance)
	for _, s := range res.Segments[1:] {
		assert.Zero(t, s.Probability)
		assert.False(t, s.IsWinning)
	}
	assert.True(t, res.Segments[0].IsWinning)
}

func TestGuaranteedWinEqualSplitAcrossSegments(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "p1"},
		{ID: "b", PrizeID: "p1"},
	}
	prizes := []models.Prize{probabilityPrize("p1", 100, 1)}

	res := ComputeSegmentProbabilities(segments, prizes, testNow)

	assert.InDelta(t, 50, res.Segments[0].Probability, ProbabilityTolerance)
	assert.InDelta(t, 50, res.Segments[1].Probability, ProbabilityTolerance)
}

func TestMultipleGuaranteedPrizes(t *testing.T) {
	// Two 100% prizes with 1 and 2 linked segments: the prize share is
	// split first, then divided among each prize's own segments.
	segments := []models.Segment{
		{ID: "a", PrizeID: "p1"},
		{ID: "b", PrizeID: "p2"},
		{ID: "c", PrizeID: "p2"},
		{ID: "d"},
	}
	prizes := []models.Prize{
		probabilityPrize("p1", 100, 1),
		probabilityPrize("p2", 100, 1),
	}

	res := ComputeSegmentProbabilities(segments, prizes, testNow)

	assert.True(t, res.HasGuaranteedWin)
	assert.InDelta(t, 50, res.Segments[0].Probability, ProbabilityTolerance)
	assert.InDelta(t, 25, res.Segments[1].Probability, ProbabilityTolerance)
	assert.InDelta(t, 25, res.Segments[2].Probability, ProbabilityTolerance)
	assert.Zero(t, res.Segments[3].Probability)
}

func TestManualAndWinnerDistribution(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "p1"},
		manualSegment("b", 20),
		{ID: "c"},
		{ID: "d"},
	}
	prizes := []models.Prize{probabilityPrize("p1", 40, 5)}

	res := ComputeSegmentProbabilities(segments, prizes, testNow)

	assert.False(t, res.HasGuaranteedWin)
	assert.InDelta(t, 40, res.Segments[0].Probability, ProbabilityTolerance)
	assert.InDelta(t, 20, res.Segments[1].Probability, ProbabilityTolerance)
	assert.InDelta(t, 20, res.Segments[2].Probability, ProbabilityTolerance)
	assert.InDelta(t, 20, res.Segments[3].Probability, ProbabilityTolerance)
	assert.InDelta(t, 40, res.Residual, ProbabilityTolerance)
	assert.InDelta(t, 100, sumProbabilities(res.Segments), ProbabilityTolerance)
}

func TestOverflowNormalization(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "p1"},
		manualSegment("b", 40),
		{ID: "c"},
	}
	prizes := []models.Prize{probabilityPrize("p1", 80, 5)}

	res := ComputeSegmentProbabilities(segments, prizes, testNow)

	// 80 + 40 = 120, both scaled by 100/120.
	assert.InDelta(t, 80*100.0/120.0, res.Segments[0].Probability, ProbabilityTolerance)
	assert.InDelta(t, 40*100.0/120.0, res.Segments[1].Probability, ProbabilityTolerance)
	assert.Zero(t, res.Segments[2].Probability)
	assert.Zero(t, res.Residual)
	assert.InDelta(t, 100, sumProbabilities(res.Segments), ProbabilityTolerance)
}

func TestCalendarGatingOverridesEverything(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "cal"},
		manualSegment("b", 20),
		{ID: "c"},
	}
	prizes := []models.Prize{
		calendarPrize("cal", "2026-06-10", "00:00", "2026-06-10", "23:59"),
	}

	res := ComputeSegmentProbabilities(segments, prizes, testNow)

	assert.True(t, res.HasGuaranteedWin)
	assert.InDelta(t, 100, res.Segments[0].Probability, ProbabilityTolerance)
	assert.Zero(t, res.Segments[1].Probability)
	assert.Zero(t, res.Segments[2].Probability)
}

func TestInactiveCalendarPrizeDoesNotGate(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "cal"},
		{ID: "b"},
	}
	prizes := []models.Prize{
		calendarPrize("cal", "2026-07-01", "00:00", "2026-07-02", "23:59"),
	}

	res := ComputeSegmentProbabilities(segments, prizes, testNow)

	assert.False(t, res.HasGuaranteedWin)
	// Out-of-window calendar prize contributes nothing; the filler absorbs it all.
	assert.Zero(t, res.Segments[0].Probability)
	assert.False(t, res.Segments[0].IsWinning)
	assert.InDelta(t, 100, res.Segments[1].Probability, ProbabilityTolerance)
}

func TestEmptyRosterManualOnly(t *testing.T) {
	segments := []models.Segment{
		manualSegment("a", 10),
		{ID: "b"},
		{ID: "c"},
	}

	res := ComputeSegmentProbabilities(segments, nil, testNow)

	assert.InDelta(t, 10, res.Segments[0].Probability, ProbabilityTolerance)
	assert.InDelta(t, 45, res.Segments[1].Probability, ProbabilityTolerance)
	assert.InDelta(t, 45, res.Segments[2].Probability, ProbabilityTolerance)
	assert.InDelta(t, 90, res.Residual, ProbabilityTolerance)
}

func TestUnresolvablePrizeReferenceDegrades(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "ghost"},
		{ID: "b"},
	}

	res := ComputeSegmentProbabilities(segments, nil, testNow)

	assert.Empty(t, res.Errors)
	assert.False(t, res.Segments[0].IsWinning)
	assert.InDelta(t, 100, sumProbabilities(res.Segments), ProbabilityTolerance)
}

func TestExhaustedPrizeIsFiltered(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "p1"},
		{ID: "b"},
	}
	exhausted := probabilityPrize("p1", 100, 1)
	exhausted.AwardedUnits = 1

	res := ComputeSegmentProbabilities(segments, []models.Prize{exhausted}, testNow)

	assert.False(t, res.HasGuaranteedWin)
	assert.False(t, res.Segments[0].IsWinning)
	assert.Zero(t, res.Segments[0].Probability)
}

func TestNoFillerResidualNotDistributed(t *testing.T) {
	segments := []models.Segment{
		{ID: "a", PrizeID: "p1"},
		manualSegment("b", 10),
	}
	prizes := []models.Prize{probabilityPrize("p1", 30, 5)}

	res := ComputeSegmentProbabilities(segments, prizes, testNow)

	// No plain filler segment exists, so the residual is reported but the
	// distribution legitimately sums below 100.
	assert.InDelta(t, 60, res.Residual, ProbabilityTolerance)
	assert.InDelta(t, 40, sumProbabilities(res.Segments), ProbabilityTolerance)
}

func TestProbabilityConservation(t *testing.T) {
	tests := []struct {
		name     string
		segments []models.Segment
		prizes   []models.Prize
	}{
		{
			name: "plain fillers only",
			segments: []models.Segment{
				{ID: "a"}, {ID: "b"}, {ID: "c"},
			},
		},
		{
			name: "winners and fillers",
			segments: []models.Segment{
				{ID: "a", PrizeID: "p1"}, {ID: "b", PrizeID: "p2"}, {ID: "c"}, {ID: "d"},
			},
			prizes: []models.Prize{
				probabilityPrize("p1", 25, 3),
				probabilityPrize("p2", 35, 3),
			},
		},
		{
			name: "overflow scaling",
			segments: []models.Segment{
				{ID: "a", PrizeID: "p1"}, manualSegment("b", 70), {ID: "c"},
			},
			prizes: []models.Prize{probabilityPrize("p1", 90, 3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeSegmentProbabilities(tt.segments, tt.prizes, testNow)
			require.Empty(t, res.Errors)
			assert.InDelta(t, 100, sumProbabilities(res.Segments), ProbabilityTolerance)
		})
	}
}

func TestValidatePrizesWarnsOnOverflow(t *testing.T) {
	res := ValidatePrizes([]models.Prize{
		probabilityPrize("p1", 70, 1),
		probabilityPrize("p2", 50, 1),
	})
	assert.True(t, res.IsValid)
	assert.NotEmpty(t, res.Warnings)
}
