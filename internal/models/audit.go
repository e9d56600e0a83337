package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog is the tamper-evident record of one attribution decision. Created
// at attribution time, immutable thereafter; the signature is a SHA-256 over
// the canonical fields and enables later tamper detection.
type AuditLog struct {
	MongoID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ID                    string             `bson:"logId" json:"id"`
	Timestamp             time.Time          `bson:"timestamp" json:"timestamp"`
	CampaignID            string             `bson:"campaignId" json:"campaignId"`
	ParticipantID         string             `bson:"participantId" json:"participantId"`
	ParticipantRank       int                `bson:"participantRank" json:"participantRank"` // ordinal of this play within the campaign
	IsWinner              bool               `bson:"isWinner" json:"isWinner"`
	PrizeID               string             `bson:"prizeId,omitempty" json:"prizeId,omitempty"`
	PrizeName             string             `bson:"prizeName,omitempty" json:"prizeName,omitempty"`
	SegmentID             string             `bson:"segmentId,omitempty" json:"segmentId,omitempty"`
	AttributionMethod     string             `bson:"attributionMethod" json:"attributionMethod"`
	Proof                 *ProofOfFairness   `bson:"proof,omitempty" json:"proof,omitempty"`
	PrizesRemainingBefore int                `bson:"prizesRemainingBefore" json:"prizesRemainingBefore"`
	PrizesRemainingAfter  int                `bson:"prizesRemainingAfter" json:"prizesRemainingAfter"`
	Signature             string             `bson:"signature" json:"signature"`
	Verified              bool               `bson:"verified" json:"verified"`
}
