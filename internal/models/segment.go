package models

// Segment represents one visual slot (wheel slice or scratch card) a player
// can land on. A segment may reference a prize; one prize may back several
// segments. Probability and IsWinning are engine outputs, never operator input.
type Segment struct {
	ID                       string   `bson:"id" json:"id"`
	Label                    string   `bson:"label" json:"label"`
	Color                    string   `bson:"color,omitempty" json:"color,omitempty"`
	TextColor                string   `bson:"textColor,omitempty" json:"textColor,omitempty"`
	PrizeID                  string   `bson:"prizeId,omitempty" json:"prizeId,omitempty"`
	ManualProbabilityPercent *float64 `bson:"manualProbabilityPercent,omitempty" json:"manualProbabilityPercent,omitempty"`
	Probability              float64  `bson:"probability" json:"probability"`
	IsWinning                bool     `bson:"isWinning" json:"isWinning"`
}

// SegmentSnapshot captures a segment's identity and computed probability at
// draw time, embedded in a proof of fairness.
type SegmentSnapshot struct {
	ID          string  `bson:"id" json:"id"`
	Probability float64 `bson:"probability" json:"probability"`
}
