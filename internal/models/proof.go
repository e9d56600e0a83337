package models

import "time"

// ProofOfFairness is the immutable record of one provably-fair draw. It is
// fully self-describing: a third party can re-derive the random value and the
// result hash from the proof's own fields without access to the spinner that
// produced it.
type ProofOfFairness struct {
	ServerSeed     string            `bson:"serverSeed" json:"serverSeed"`
	ServerSeedHash string            `bson:"serverSeedHash" json:"serverSeedHash"`
	ClientSeed     string            `bson:"clientSeed" json:"clientSeed"`
	Nonce          uint64            `bson:"nonce" json:"nonce"`
	Result         string            `bson:"result" json:"result"`         // chosen segment id
	ResultHash     string            `bson:"resultHash" json:"resultHash"` // binds seeds+nonce+result
	RandomValue    float64           `bson:"randomValue" json:"randomValue"`
	Timestamp      time.Time         `bson:"timestamp" json:"timestamp"`
	Segments       []SegmentSnapshot `bson:"segments" json:"segments"`
}
