package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinlab/campaign-engine/internal/models"
)

func probabilityPrize(id string, percent float64, remaining int) models.Prize {
	return models.Prize{
		ID:                 id,
		Name:               "Prize " + id,
		TotalUnits:         remaining,
		Method:             models.MethodProbability,
		ProbabilityPercent: percent,
	}
}

func calendarPrize(id, startDate, startTime, endDate, endTime string) models.Prize {
	return models.Prize{
		ID:         id,
		Name:       "Prize " + id,
		TotalUnits: 1,
		Method:     models.MethodCalendar,
		StartDate:  startDate,
		StartTime:  startTime,
		EndDate:    endDate,
		EndTime:    endTime,
	}
}

func TestValidatePrize(t *testing.T) {
	tests := []struct {
		name       string
		prize      models.Prize
		wantValid  bool
		wantErrors int
	}{
		{
			name:      "valid probability prize",
			prize:     probabilityPrize("p1", 40, 10),
			wantValid: true,
		},
		{
			name:      "valid calendar prize",
			prize:     calendarPrize("p1", "2026-06-01", "10:00", "2026-06-30", "18:00"),
			wantValid: true,
		},
		{
			name: "missing id and name",
			prize: models.Prize{
				TotalUnits: 1,
				Method:     models.MethodProbability,
			},
			wantValid:  false,
			wantErrors: 2,
		},
		{
			name: "awarded exceeds total",
			prize: models.Prize{
				ID: "p1", Name: "n", TotalUnits: 5, AwardedUnits: 6,
				Method: models.MethodProbability, ProbabilityPercent: 10,
			},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "unknown method",
			prize: models.Prize{
				ID: "p1", Name: "n", TotalUnits: 1, Method: "raffle",
			},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "probability out of range",
			prize: models.Prize{
				ID: "p1", Name: "n", TotalUnits: 1,
				Method: models.MethodProbability, ProbabilityPercent: 120,
			},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "calendar prize without dates",
			prize:      models.Prize{ID: "p1", Name: "n", TotalUnits: 1, Method: models.MethodCalendar},
			wantValid:  false,
			wantErrors: 2,
		},
		{
			name:      "calendar window ends before it starts",
			prize:     calendarPrize("p1", "2026-06-30", "10:00", "2026-06-01", "10:00"),
			wantValid: false,
		},
		{
			name:      "malformed date",
			prize:     calendarPrize("p1", "01/06/2026", "10:00", "2026-06-30", "18:00"),
			wantValid: false,
		},
		{
			name:      "malformed time",
			prize:     calendarPrize("p1", "2026-06-01", "25:99", "2026-06-30", "18:00"),
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidatePrize(tt.prize)
			assert.Equal(t, tt.wantValid, res.IsValid)
			if tt.wantErrors > 0 {
				assert.Len(t, res.Errors, tt.wantErrors)
			}
			if !tt.wantValid {
				assert.NotEmpty(t, res.Errors)
			}
		})
	}
}

func TestValidatePrizeCollection(t *testing.T) {
	t.Run("duplicate ids are an error", func(t *testing.T) {
		res := ValidatePrizeCollection([]models.Prize{
			probabilityPrize("p1", 10, 1),
			probabilityPrize("p1", 20, 1),
		})
		require.False(t, res.IsValid)
		assert.Contains(t, res.Errors[0], "duplicate prize id")
	})

	t.Run("probability overflow is a warning, not an error", func(t *testing.T) {
		res := ValidatePrizeCollection([]models.Prize{
			probabilityPrize("p1", 80, 1),
			probabilityPrize("p2", 40, 1),
		})
		assert.True(t, res.IsValid)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "normalized at draw time")
	})
}

func TestNormalizePrize(t *testing.T) {
	normalized := NormalizePrize(models.Prize{
		TotalUnits:         -3,
		AwardedUnits:       -1,
		Method:             "bogus",
		ProbabilityPercent: 250,
	})

	assert.Equal(t, DefaultPrizeName, normalized.Name)
	assert.Equal(t, models.MethodProbability, normalized.Method)
	assert.Equal(t, 1, normalized.TotalUnits)
	assert.Equal(t, 0, normalized.AwardedUnits)
	assert.Equal(t, 100.0, normalized.ProbabilityPercent)
}

func TestNormalizePrizeClampsAwardedToTotal(t *testing.T) {
	normalized := NormalizePrize(models.Prize{
		ID: "p1", Name: "n", TotalUnits: 3, AwardedUnits: 9,
		Method: models.MethodProbability, ProbabilityPercent: 50,
	})
	assert.Equal(t, 3, normalized.AwardedUnits)
}

func TestIsPrizeActive(t *testing.T) {
	p := calendarPrize("p1", "2026-06-10", "10:00", "2026-06-10", "18:00")

	inWindow := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	before := time.Date(2026, 6, 10, 9, 59, 0, 0, time.UTC)
	after := time.Date(2026, 6, 10, 18, 1, 0, 0, time.UTC)

	assert.True(t, IsPrizeActive(p, inWindow))
	assert.False(t, IsPrizeActive(p, before))
	assert.False(t, IsPrizeActive(p, after))

	// Non-calendar prizes are never time-gated.
	assert.True(t, IsPrizeActive(probabilityPrize("p2", 10, 1), before))
}

func TestIsExactCalendarMoment(t *testing.T) {
	p := calendarPrize("p1", "2026-06-10", "10:00", "2026-06-10", "18:00")

	assert.True(t, IsExactCalendarMoment(p, time.Date(2026, 6, 10, 10, 0, 30, 0, time.UTC)))
	assert.True(t, IsExactCalendarMoment(p, time.Date(2026, 6, 10, 9, 59, 10, 0, time.UTC)))
	assert.False(t, IsExactCalendarMoment(p, time.Date(2026, 6, 10, 10, 2, 0, 0, time.UTC)))
	assert.False(t, IsExactCalendarMoment(probabilityPrize("p2", 10, 1), time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)))
}

func TestIsPrizeAvailable(t *testing.T) {
	available := models.Prize{TotalUnits: 2, AwardedUnits: 1}
	exhausted := models.Prize{TotalUnits: 2, AwardedUnits: 2}

	assert.True(t, IsPrizeAvailable(available))
	assert.False(t, IsPrizeAvailable(exhausted))
}
