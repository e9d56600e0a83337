package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignType identifies the game mode a campaign is built around
type CampaignType string

const (
	CampaignTypeWheel   CampaignType = "wheel"
	CampaignTypeScratch CampaignType = "scratch"
)

// CampaignStatus represents the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusCancelled CampaignStatus = "CANCELLED"
)

// Campaign represents one gamified marketing campaign: a prize roster, a
// segment layout and a schedule. Prizes are embedded; awarding a prize
// increments its awardedUnits counter in place.
type Campaign struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name       string             `bson:"name" json:"name"`
	Type       CampaignType       `bson:"type" json:"type"`
	Status     CampaignStatus     `bson:"status" json:"status"`
	StartDate  time.Time          `bson:"startDate" json:"startDate"`
	EndDate    time.Time          `bson:"endDate" json:"endDate"`
	Strategy   string             `bson:"strategy,omitempty" json:"strategy,omitempty"` // uniform, weighted or peak_hours
	Prizes     []Prize            `bson:"prizes" json:"prizes"`
	Segments   []Segment          `bson:"segments" json:"segments"`
	TotalPlays int                `bson:"totalPlays" json:"totalPlays"`
	CreatedBy  string             `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FindPrize returns the embedded prize with the given id, or nil.
func (c *Campaign) FindPrize(prizeID string) *Prize {
	for i := range c.Prizes {
		if c.Prizes[i].ID == prizeID {
			return &c.Prizes[i]
		}
	}
	return nil
}
