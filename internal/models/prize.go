package models

import "time"

// AttributionMethod determines how a prize is awarded
type AttributionMethod string

const (
	MethodProbability AttributionMethod = "probability"
	MethodCalendar    AttributionMethod = "calendar"
	MethodImmediate   AttributionMethod = "immediate"
)

// IsRecognized reports whether the method is one of the three allowed values.
func (m AttributionMethod) IsRecognized() bool {
	return m == MethodProbability || m == MethodCalendar || m == MethodImmediate
}

// Prize represents one awardable reward pool within a campaign
type Prize struct {
	ID                 string            `bson:"id" json:"id"`
	Name               string            `bson:"name" json:"name"`
	TotalUnits         int               `bson:"totalUnits" json:"totalUnits"`
	AwardedUnits       int               `bson:"awardedUnits" json:"awardedUnits"`
	Method             AttributionMethod `bson:"method" json:"method"`
	ProbabilityPercent float64           `bson:"probabilityPercent" json:"probabilityPercent"`   // 0-100, probability/immediate methods
	StartDate          string            `bson:"startDate,omitempty" json:"startDate,omitempty"` // YYYY-MM-DD, calendar method
	StartTime          string            `bson:"startTime,omitempty" json:"startTime,omitempty"` // HH:MM (24h)
	EndDate            string            `bson:"endDate,omitempty" json:"endDate,omitempty"`
	EndTime            string            `bson:"endTime,omitempty" json:"endTime,omitempty"`
	CreatedAt          time.Time         `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt          time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Remaining returns the number of units still awardable
func (p *Prize) Remaining() int {
	return p.TotalUnits - p.AwardedUnits
}
