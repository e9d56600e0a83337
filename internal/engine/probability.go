package engine

import (
	"time"

	"github.com/spinlab/campaign-engine/internal/models"
)

// ProbabilityTolerance is the float tolerance within which segment
// probabilities are expected to sum to 100.
const ProbabilityTolerance = 1e-6

// ProbabilityResult is the output of one engine run: the input segments
// annotated with probability and win flag, plus the residual mass that was
// left for filler segments.
type ProbabilityResult struct {
	Segments         []models.Segment `json:"segments"`
	HasGuaranteedWin bool             `json:"hasGuaranteedWin"`
	Residual         float64          `json:"residual"`
	Errors           []string         `json:"errors,omitempty"`
}

// ComputeSegmentProbabilities computes, for an ordered segment list and the
// current prize roster, a per-segment probability distribution summing to 100.
//
// Priority order: available calendar prizes currently active take the whole
// 100%; else prizes configured at exactly 100% take it; else prize-linked and
// manually weighted segments keep their shares (scaled down together on
// overflow) and the residual is split equally among plain filler segments.
func ComputeSegmentProbabilities(segments []models.Segment, prizes []models.Prize, now time.Time) ProbabilityResult {
	if len(segments) == 0 {
		return ProbabilityResult{Errors: []string{"Aucun segment fourni"}}
	}

	// Availability filter: ignore exhausted prizes and unknown methods.
	// A segment referencing a prize absent from this map degrades to "no
	// prize" without erroring: campaign configs can transiently reference
	// deleted prizes during editing.
	available := make(map[string]models.Prize, len(prizes))
	for _, p := range prizes {
		if p.Method.IsRecognized() && IsPrizeAvailable(p) {
			available[p.ID] = p
		}
	}

	out := make([]models.Segment, len(segments))
	copy(out, segments)
	for i := range out {
		out[i].Probability = 0
		out[i].IsWinning = false
	}

	linkedCount := make(map[string]int)
	for _, s := range segments {
		if s.PrizeID == "" {
			continue
		}
		if _, ok := available[s.PrizeID]; ok {
			linkedCount[s.PrizeID]++
		}
	}

	// Calendar gating: an active calendar prize with linked segments takes
	// the entire distribution. "Today's scheduled giveaway overrides
	// everything else."
	var activeCalendar []string
	for id, p := range available {
		if p.Method == models.MethodCalendar && IsPrizeActive(p, now) && linkedCount[id] > 0 {
			activeCalendar = append(activeCalendar, id)
		}
	}
	if len(activeCalendar) > 0 {
		return distributeExclusively(out, available, activeCalendar, linkedCount)
	}

	// 100%-guarantee: probability/immediate prizes committed at exactly 100.
	var guaranteed []string
	for id, p := range available {
		if (p.Method == models.MethodProbability || p.Method == models.MethodImmediate) &&
			p.ProbabilityPercent == 100 && linkedCount[id] > 0 {
			guaranteed = append(guaranteed, id)
		}
	}
	if len(guaranteed) > 0 {
		return distributeExclusively(out, available, guaranteed, linkedCount)
	}

	// Normal distribution: winners get their prize's percentage split across
	// that prize's segments, manual losing weights are honored verbatim.
	totalWinners := 0.0
	manualSum := 0.0
	for i := range out {
		if p, ok := available[out[i].PrizeID]; ok && out[i].PrizeID != "" {
			out[i].Probability = p.ProbabilityPercent / float64(linkedCount[p.ID])
			totalWinners += out[i].Probability
			continue
		}
		if out[i].ManualProbabilityPercent != nil {
			out[i].Probability = clampPercent(*out[i].ManualProbabilityPercent)
			manualSum += out[i].Probability
		}
	}

	residual := 0.0
	if total := totalWinners + manualSum; total > 100 {
		scale := 100 / total
		for i := range out {
			out[i].Probability *= scale
		}
	} else {
		residual = 100 - total
		var fillers []int
		for i := range out {
			_, hasPrize := available[out[i].PrizeID]
			if (!hasPrize || out[i].PrizeID == "") && out[i].ManualProbabilityPercent == nil {
				fillers = append(fillers, i)
			}
		}
		// With no filler segments the residual is reported but not
		// distributed; this is the only case where the sum may fall
		// short of 100.
		if len(fillers) > 0 {
			share := residual / float64(len(fillers))
			for _, i := range fillers {
				out[i].Probability = share
			}
		}
	}

	markWinning(out, available)
	return ProbabilityResult{Segments: out, Residual: residual}
}

// distributeExclusively splits 100% equally among the given prizes, and within
// each prize equally among its linked segments. Every other segment, manual
// weights included, gets zero.
func distributeExclusively(out []models.Segment, available map[string]models.Prize, prizeIDs []string, linkedCount map[string]int) ProbabilityResult {
	chosen := make(map[string]bool, len(prizeIDs))
	for _, id := range prizeIDs {
		chosen[id] = true
	}
	perPrize := 100 / float64(len(prizeIDs))
	for i := range out {
		if chosen[out[i].PrizeID] {
			out[i].Probability = perPrize / float64(linkedCount[out[i].PrizeID])
		} else {
			out[i].Probability = 0
		}
	}
	markWinning(out, available)
	return ProbabilityResult{Segments: out, HasGuaranteedWin: true}
}

func markWinning(out []models.Segment, available map[string]models.Prize) {
	for i := range out {
		_, ok := available[out[i].PrizeID]
		out[i].IsWinning = ok && out[i].PrizeID != "" && out[i].Probability > 0
	}
}

// ValidatePrizes checks a roster for draw readiness. Probability sums above
// 100 are a warning, not an error: draw-time normalization handles them.
func ValidatePrizes(prizes []models.Prize) ValidationResult {
	return ValidatePrizeCollection(prizes)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
