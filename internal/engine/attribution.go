package engine

import (
	"math/rand"
	"time"

	"github.com/spinlab/campaign-engine/internal/models"
)

// Attribution method labels recorded on decisions and audit logs.
const (
	AttributionCalendar    = "calendar"
	AttributionProbability = "probability"
	AttributionNone        = "none"
)

// AttributionDecision is the authoritative verdict for one play event: did
// the player win, and which prize. The probability engine's IsWinning flags
// are advisory display data; when the two disagree, this decision stands.
//
// ForcedSegmentID tells the visual layer which segment must be displayed so
// the animation matches the decided prize. It is an explicit instruction, not
// a re-weighted probability: rendering a consistent result is the renderer's
// job, not a second random draw's.
type AttributionDecision struct {
	IsWinner        bool          `json:"isWinner"`
	Prize           *models.Prize `json:"prize,omitempty"`
	Method          string        `json:"method"`
	Reason          string        `json:"reason"`
	ForcedSegmentID string        `json:"forcedSegmentId,omitempty"`
}

// DecideWheelAttribution decides win/lose for one wheel play, independent of
// which segment the animation touches. Calendar prizes win at their exact
// scheduled moment; otherwise a uniform draw in [0,100) is matched against
// the cumulative probability of the available prizes.
//
// The draw uses the process PRNG (math/rand), the fast insecure path for
// routine plays; auditable draws go through SecureSpinner instead.
func DecideWheelAttribution(prizes []models.Prize, segments []models.Segment, now time.Time) AttributionDecision {
	for i := range prizes {
		p := prizes[i]
		if !IsPrizeAvailable(p) || p.Method != models.MethodCalendar {
			continue
		}
		if IsExactCalendarMoment(p, now) {
			return AttributionDecision{
				IsWinner:        true,
				Prize:           &p,
				Method:          AttributionCalendar,
				Reason:          "scheduled winning moment",
				ForcedSegmentID: firstLinkedSegment(segments, p.ID),
			}
		}
	}

	if decision, ok := drawByProbability(prizes, segments); ok {
		return decision
	}

	return AttributionDecision{Method: AttributionNone, Reason: "probability draw missed"}
}

// DecideScratchAttribution decides win/lose for one scratch-card play. The
// scratch calendar check uses the prize's whole activity window rather than
// the exact-moment tolerance: a scratch card scheduled for a day wins any
// time that day.
func DecideScratchAttribution(prizes []models.Prize, now time.Time) AttributionDecision {
	for i := range prizes {
		p := prizes[i]
		if !IsPrizeAvailable(p) || p.Method != models.MethodCalendar {
			continue
		}
		if IsPrizeActive(p, now) {
			return AttributionDecision{
				IsWinner: true,
				Prize:    &p,
				Method:   AttributionCalendar,
				Reason:   "active calendar window",
			}
		}
	}

	if decision, ok := drawByProbability(prizes, nil); ok {
		return decision
	}

	return AttributionDecision{Method: AttributionNone, Reason: "probability draw missed"}
}

// drawByProbability draws a uniform value in [0,100) and walks the available
// probability/immediate prizes accumulating thresholds; the first prize whose
// cumulative threshold covers the draw wins.
func drawByProbability(prizes []models.Prize, segments []models.Segment) (AttributionDecision, bool) {
	total := 0.0
	for _, p := range prizes {
		if IsPrizeAvailable(p) && (p.Method == models.MethodProbability || p.Method == models.MethodImmediate) {
			total += p.ProbabilityPercent
		}
	}
	if total <= 0 {
		return AttributionDecision{}, false
	}

	draw := rand.Float64() * 100
	if draw >= total {
		return AttributionDecision{}, false
	}

	cumulative := 0.0
	for i := range prizes {
		p := prizes[i]
		if !IsPrizeAvailable(p) || (p.Method != models.MethodProbability && p.Method != models.MethodImmediate) {
			continue
		}
		cumulative += p.ProbabilityPercent
		if draw < cumulative {
			return AttributionDecision{
				IsWinner:        true,
				Prize:           &p,
				Method:          AttributionProbability,
				Reason:          "probability draw hit",
				ForcedSegmentID: firstLinkedSegment(segments, p.ID),
			}, true
		}
	}
	return AttributionDecision{}, false
}

func firstLinkedSegment(segments []models.Segment, prizeID string) string {
	for _, s := range segments {
		if s.PrizeID == prizeID {
			return s.ID
		}
	}
	return ""
}
