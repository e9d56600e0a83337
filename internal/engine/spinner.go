package engine

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/spinlab/campaign-engine/internal/models"
)

var (
	// ErrNoSegments is returned when a spin is attempted on an empty wheel.
	ErrNoSegments = errors.New("no segments to spin")
	// ErrZeroProbability is returned when every segment weighs zero.
	ErrZeroProbability = errors.New("total segment probability is zero")
	// ErrClientSeedTooShort is returned for player-supplied seeds under 8 characters.
	ErrClientSeedTooShort = errors.New("client seed must be at least 8 characters")
)

// SecureSpinner is a provably-fair weighted selector. The server seed is
// generated at construction and kept secret until reveal; its hash can be
// published before the draw so players can verify the seed was not swapped
// afterwards. The nonce increments once per completed spin, so every draw on
// one instance is distinct and replayable.
type SecureSpinner struct {
	mu             sync.Mutex
	serverSeed     string // hex of 32 random bytes, revealed in each proof
	serverSeedHash string
	clientSeed     string
	nonce          uint64
}

// SpinResult carries the chosen segment together with its proof. IsVerified
// is the result of an immediate self-check of the freshly built proof.
type SpinResult struct {
	WinningSegment models.Segment         `json:"winningSegment"`
	Proof          models.ProofOfFairness `json:"proof"`
	IsVerified     bool                   `json:"isVerified"`
}

// NewSecureSpinner creates a spinner. An empty clientSeed gets a random one;
// a player-supplied seed must be at least 8 characters.
func NewSecureSpinner(clientSeed string) (*SecureSpinner, error) {
	if clientSeed == "" {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate client seed: %w", err)
		}
		clientSeed = hex.EncodeToString(buf)
	} else if len(clientSeed) < 8 {
		return nil, ErrClientSeedTooShort
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to generate server seed: %w", err)
	}
	serverSeed := hex.EncodeToString(seed)
	hash := sha256.Sum256([]byte(serverSeed))

	return &SecureSpinner{
		serverSeed:     serverSeed,
		serverSeedHash: hex.EncodeToString(hash[:]),
		clientSeed:     clientSeed,
	}, nil
}

// ServerSeedHash returns the commitment that is safe to publish before any draw.
func (s *SecureSpinner) ServerSeedHash() string {
	return s.serverSeedHash
}

// ClientSeed returns the seed the player contributed to the draws.
func (s *SecureSpinner) ClientSeed() string {
	return s.clientSeed
}

// Spin selects one segment by roulette-wheel selection over the segments'
// probabilities, deterministic given seeds and nonce. Weights need not sum to
// 100; they are normalized. The nonce read and increment happen under the
// instance lock, so concurrent spins never share a nonce.
func (s *SecureSpinner) Spin(segments []models.Segment, now time.Time) (*SpinResult, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	total := 0.0
	for _, seg := range segments {
		total += seg.Probability
	}
	if total <= 0 {
		return nil, ErrZeroProbability
	}

	s.mu.Lock()
	nonce := s.nonce
	s.nonce++
	s.mu.Unlock()

	random := deriveRandom(s.serverSeed, s.clientSeed, nonce)

	// Walk cumulative normalized shares; keep full float64 precision until
	// the final comparison so skewed weights are not truncated away.
	winner := segments[len(segments)-1]
	cumulative := 0.0
	for _, seg := range segments {
		cumulative += seg.Probability / total
		if random < cumulative {
			winner = seg
			break
		}
	}

	snapshots := make([]models.SegmentSnapshot, len(segments))
	for i, seg := range segments {
		snapshots[i] = models.SegmentSnapshot{ID: seg.ID, Probability: seg.Probability}
	}

	proof := models.ProofOfFairness{
		ServerSeed:     s.serverSeed,
		ServerSeedHash: s.serverSeedHash,
		ClientSeed:     s.clientSeed,
		Nonce:          nonce,
		Result:         winner.ID,
		ResultHash:     resultHash(s.serverSeed, s.clientSeed, nonce, winner.ID),
		RandomValue:    random,
		Timestamp:      now,
		Segments:       snapshots,
	}

	return &SpinResult{
		WinningSegment: winner,
		Proof:          proof,
		IsVerified:     VerifyProof(proof),
	}, nil
}

// VerifyProof re-derives the random value and the result hash purely from the
// proof's own fields and checks both against what is recorded, plus that the
// claimed winning segment exists in the segment snapshot. Callable by a third
// party with no access to the spinner that produced the proof.
func VerifyProof(p models.ProofOfFairness) bool {
	seedHash := sha256.Sum256([]byte(p.ServerSeed))
	if hex.EncodeToString(seedHash[:]) != p.ServerSeedHash {
		return false
	}
	if resultHash(p.ServerSeed, p.ClientSeed, p.Nonce, p.Result) != p.ResultHash {
		return false
	}
	if deriveRandom(p.ServerSeed, p.ClientSeed, p.Nonce) != p.RandomValue {
		return false
	}
	for _, s := range p.Segments {
		if s.ID == p.Result {
			return true
		}
	}
	return false
}

// deriveRandom maps seeds+nonce to a float in [0,1) via the first 8 bytes of
// a SHA-256 digest.
func deriveRandom(serverSeed, clientSeed string, nonce uint64) float64 {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", serverSeed, clientSeed, nonce)))
	v := binary.BigEndian.Uint64(digest[:8])
	return float64(v) / float64(math.MaxUint64)
}

// resultHash binds seeds, nonce and the announced result together, distinct
// from the seed commitment, so tampering with the result alone is detectable.
func resultHash(serverSeed, clientSeed string, nonce uint64, result string) string {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d:%s", serverSeed, clientSeed, nonce, result)))
	return hex.EncodeToString(digest[:])
}
