package engine

import (
	"fmt"
	"time"

	"github.com/spinlab/campaign-engine/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// DefaultPrizeName is applied by the normalizer when a prize has no label.
	DefaultPrizeName = "Lot sans nom"

	// exactMomentTolerance is the window around a calendar prize's start
	// instant within which the play is considered the scheduled winning moment.
	exactMomentTolerance = 60 * time.Second
)

// ValidationResult collects every violation found in one pass. Validation
// never fails hard: it runs against user-editable, possibly incomplete draft
// data, so all outcomes are return values.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidatePrize checks a single prize record strictly: field presence, unit
// bounds, method, probability range and calendar window coherence.
func ValidatePrize(p models.Prize) ValidationResult {
	var errs []string

	if p.ID == "" {
		errs = append(errs, "prize id is required")
	}
	if p.Name == "" {
		errs = append(errs, "prize name is required")
	}
	if p.TotalUnits < 0 {
		errs = append(errs, "totalUnits must not be negative")
	}
	if p.AwardedUnits < 0 {
		errs = append(errs, "awardedUnits must not be negative")
	}
	if p.AwardedUnits > p.TotalUnits {
		errs = append(errs, fmt.Sprintf("awardedUnits (%d) exceeds totalUnits (%d)", p.AwardedUnits, p.TotalUnits))
	}

	if !p.Method.IsRecognized() {
		errs = append(errs, fmt.Sprintf("unknown attribution method %q", p.Method))
	}

	if p.Method == models.MethodProbability || p.Method == models.MethodImmediate {
		if p.ProbabilityPercent < 0 || p.ProbabilityPercent > 100 {
			errs = append(errs, fmt.Sprintf("probabilityPercent must be within [0,100], got %g", p.ProbabilityPercent))
		}
	}

	if p.Method == models.MethodCalendar {
		errs = append(errs, validateCalendarWindow(p)...)
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func validateCalendarWindow(p models.Prize) []string {
	var errs []string

	if p.StartDate == "" {
		errs = append(errs, "calendar prize requires a startDate")
	} else if _, err := time.Parse(dateLayout, p.StartDate); err != nil {
		errs = append(errs, fmt.Sprintf("invalid startDate %q, expected YYYY-MM-DD", p.StartDate))
	}
	if p.EndDate == "" {
		errs = append(errs, "calendar prize requires an endDate")
	} else if _, err := time.Parse(dateLayout, p.EndDate); err != nil {
		errs = append(errs, fmt.Sprintf("invalid endDate %q, expected YYYY-MM-DD", p.EndDate))
	}
	if p.StartTime != "" {
		if _, err := time.Parse(timeLayout, p.StartTime); err != nil {
			errs = append(errs, fmt.Sprintf("invalid startTime %q, expected HH:MM", p.StartTime))
		}
	}
	if p.EndTime != "" {
		if _, err := time.Parse(timeLayout, p.EndTime); err != nil {
			errs = append(errs, fmt.Sprintf("invalid endTime %q, expected HH:MM", p.EndTime))
		}
	}

	if len(errs) == 0 {
		start, startErr := calendarStart(p, time.UTC)
		end, endErr := calendarEnd(p, time.UTC)
		if startErr == nil && endErr == nil && !end.After(start) {
			errs = append(errs, "calendar window must end after it starts")
		}
	}
	return errs
}

// ValidatePrizeCollection validates each prize, enforces unique ids and warns
// (non-fatally) when probability-method percentages sum above 100: the engine
// normalizes that overflow at draw time.
func ValidatePrizeCollection(prizes []models.Prize) ValidationResult {
	var errs, warnings []string

	seen := make(map[string]bool, len(prizes))
	totalPercent := 0.0
	for i, p := range prizes {
		res := ValidatePrize(p)
		for _, e := range res.Errors {
			errs = append(errs, fmt.Sprintf("prize %d (%s): %s", i, p.ID, e))
		}
		if p.ID != "" {
			if seen[p.ID] {
				errs = append(errs, fmt.Sprintf("duplicate prize id %q", p.ID))
			}
			seen[p.ID] = true
		}
		if p.Method == models.MethodProbability || p.Method == models.MethodImmediate {
			totalPercent += p.ProbabilityPercent
		}
	}

	if totalPercent > 100 {
		warnings = append(warnings, fmt.Sprintf("probability percentages sum to %.2f%%, they will be normalized at draw time", totalPercent))
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

// NormalizePrize fills defaults and clamps out-of-range values instead of
// rejecting them. The normalizer is forgiving where the validator is strict;
// callers choose which to apply.
func NormalizePrize(p models.Prize) models.Prize {
	out := p
	if out.Name == "" {
		out.Name = DefaultPrizeName
	}
	if !out.Method.IsRecognized() {
		out.Method = models.MethodProbability
	}
	if out.TotalUnits < 1 {
		out.TotalUnits = 1
	}
	if out.AwardedUnits < 0 {
		out.AwardedUnits = 0
	}
	if out.AwardedUnits > out.TotalUnits {
		out.AwardedUnits = out.TotalUnits
	}
	if out.Method == models.MethodProbability || out.Method == models.MethodImmediate {
		if out.ProbabilityPercent <= 0 {
			out.ProbabilityPercent = 100
		}
		if out.ProbabilityPercent > 100 {
			out.ProbabilityPercent = 100
		}
	}
	return out
}

// IsPrizeAvailable reports whether the prize still has units to award.
func IsPrizeAvailable(p models.Prize) bool {
	return p.Remaining() > 0
}

// IsPrizeActive reports whether now falls inside a calendar prize's activity
// window. Prizes that are not time-gated are always active. A calendar prize
// whose window cannot be parsed is treated as inactive.
func IsPrizeActive(p models.Prize, now time.Time) bool {
	if p.Method != models.MethodCalendar {
		return true
	}
	start, err := calendarStart(p, now.Location())
	if err != nil {
		return false
	}
	end, err := calendarEnd(p, now.Location())
	if err != nil {
		return false
	}
	return !now.Before(start) && !now.After(end)
}

// IsExactCalendarMoment reports whether now is within the tolerance window
// around the prize's configured start instant. This is the "scheduled winning
// moment" check used by attribution, distinct from the broader window check
// of IsPrizeActive.
func IsExactCalendarMoment(p models.Prize, now time.Time) bool {
	if p.Method != models.MethodCalendar {
		return false
	}
	target, err := calendarStart(p, now.Location())
	if err != nil {
		return false
	}
	delta := now.Sub(target)
	if delta < 0 {
		delta = -delta
	}
	return delta <= exactMomentTolerance
}

// calendarStart resolves the prize's start instant; a missing start time
// means the beginning of the day.
func calendarStart(p models.Prize, loc *time.Location) (time.Time, error) {
	return parseMoment(p.StartDate, p.StartTime, "00:00", loc)
}

// calendarEnd resolves the prize's end instant; a missing end time means the
// end of the day.
func calendarEnd(p models.Prize, loc *time.Location) (time.Time, error) {
	return parseMoment(p.EndDate, p.EndTime, "23:59", loc)
}

func parseMoment(date, clock, defaultClock string, loc *time.Location) (time.Time, error) {
	if date == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if clock == "" {
		clock = defaultClock
	}
	return time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
}
