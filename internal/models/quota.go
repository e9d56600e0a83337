package models

// DailyQuota tracks, for one (day, prize) pair, how many units may be awarded
// that day and how many actually were. Entries are created lazily on first
// query or attribution for the day.
type DailyQuota struct {
	CampaignID string `bson:"campaignId,omitempty" json:"campaignId,omitempty"`
	PrizeID    string `bson:"prizeId" json:"prizeId"`
	Date       string `bson:"date" json:"date"` // YYYY-MM-DD
	Quota      int    `bson:"quota" json:"quota"`
	Awarded    int    `bson:"awarded" json:"awarded"`
}
