package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spinlab/campaign-engine/internal/models"
)

// SegmentSumTolerance is the tolerance used when checking that a segment
// list's probabilities sum to 100.
const SegmentSumTolerance = 0.01

// defaultPalette is alternated across segments that carry no explicit color.
var defaultPalette = []string{"#F44336", "#3F51B5", "#FF9800", "#009688", "#9C27B0", "#FFC107"}

// BuildSegments extracts the raw segment definitions from a campaign
// configuration, assigning ids and labels where the editor left them blank.
func BuildSegments(c *models.Campaign) []models.Segment {
	out := make([]models.Segment, len(c.Segments))
	copy(out, c.Segments)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = "segment-" + strconv.Itoa(i+1)
		}
		if out[i].Label == "" {
			if p := c.FindPrize(out[i].PrizeID); p != nil {
				out[i].Label = p.Name
			} else {
				out[i].Label = "Perdu"
			}
		}
	}
	return out
}

// GenerateFinalSegments runs the probability engine over a campaign's
// segments and re-applies the visual normalization the renderer expects:
// palette alternation, contrast-aware text color and padding to an even
// segment count.
func GenerateFinalSegments(c *models.Campaign, now time.Time) ProbabilityResult {
	segments := BuildSegments(c)

	// Wheels render poorly with an odd slice count; pad with a filler
	// losing segment before probabilities are computed so the filler takes
	// part in the residual split.
	if c.Type == models.CampaignTypeWheel && len(segments)%2 != 0 && len(segments) > 0 {
		segments = append(segments, models.Segment{
			ID:    fmt.Sprintf("segment-%d", len(segments)+1),
			Label: "Perdu",
		})
	}

	result := ComputeSegmentProbabilities(segments, c.Prizes, now)
	for i := range result.Segments {
		if result.Segments[i].Color == "" {
			result.Segments[i].Color = defaultPalette[i%len(defaultPalette)]
		}
		if result.Segments[i].TextColor == "" {
			result.Segments[i].TextColor = ContrastTextColor(result.Segments[i].Color)
		}
	}
	return result
}

// ContrastTextColor picks black or white text for a hex background color
// based on its relative luminance.
func ContrastTextColor(hexColor string) string {
	r, g, b, err := parseHexColor(hexColor)
	if err != nil {
		return "#FFFFFF"
	}
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	if luminance > 0.5 {
		return "#000000"
	}
	return "#FFFFFF"
}

func parseHexColor(s string) (r, g, b uint8, err error) {
	if len(s) == 7 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// AddSegment appends a segment, assigning the next positional id when none is
// given. The input slice is not mutated.
func AddSegment(segments []models.Segment, s models.Segment) []models.Segment {
	if s.ID == "" {
		s.ID = "segment-" + strconv.Itoa(len(segments)+1)
	}
	out := make([]models.Segment, 0, len(segments)+1)
	out = append(out, segments...)
	return append(out, s)
}

// RemoveSegment drops the segment with the given id, if present.
func RemoveSegment(segments []models.Segment, id string) []models.Segment {
	out := make([]models.Segment, 0, len(segments))
	for _, s := range segments {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// UpdateSegment replaces the segment whose id matches the update.
func UpdateSegment(segments []models.Segment, update models.Segment) []models.Segment {
	out := make([]models.Segment, len(segments))
	copy(out, segments)
	for i := range out {
		if out[i].ID == update.ID {
			out[i] = update
		}
	}
	return out
}

// ValidateSegments sanity-checks a computed segment list before it is handed
// to a renderer or a picker.
func ValidateSegments(segments []models.Segment) ValidationResult {
	var errs []string

	if len(segments) < 2 {
		errs = append(errs, "at least 2 segments are required")
	}

	seen := make(map[string]bool, len(segments))
	sum := 0.0
	for _, s := range segments {
		if seen[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate segment id %q", s.ID))
		}
		seen[s.ID] = true
		sum += s.Probability
	}

	if diff := sum - 100; diff > SegmentSumTolerance || diff < -SegmentSumTolerance {
		errs = append(errs, fmt.Sprintf("segment probabilities sum to %.4f, expected 100", sum))
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
