package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"

	"github.com/spinlab/campaign-engine/internal/engine"
	"github.com/spinlab/campaign-engine/internal/models"
	"github.com/spinlab/campaign-engine/internal/repositories"
	"github.com/spinlab/campaign-engine/internal/utils"
)

// PlayRequest is one participant interaction with a campaign.
type PlayRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
	ClientSeed    string `json:"clientSeed"`
}

// PlayResult is what a play returns to the client: the authoritative
// decision, the segment the front end should land the animation on, and the
// fairness proof of the draw.
type PlayResult struct {
	IsWinner        bool                   `json:"isWinner"`
	Prize           *models.Prize          `json:"prize,omitempty"`
	Method          string                 `json:"method"`
	Reason          string                 `json:"reason,omitempty"`
	Segment         models.Segment         `json:"segment"`
	Segments        []models.Segment       `json:"segments"`
	Proof           models.ProofOfFairness `json:"proof"`
	ParticipantRank int                    `json:"participantRank"`
	AuditLogID      string                 `json:"auditLogId"`
}

// PlayService runs the full attribution pipeline for a participant play
type PlayService interface {
	Play(ctx context.Context, campaignID primitive.ObjectID, req PlayRequest) (*PlayResult, error)
	GetDistributionStats(ctx context.Context, campaignID primitive.ObjectID) (engine.DistributionStats, error)
}

type playService struct {
	campaignRepo repositories.CampaignRepository
	auditRepo    repositories.AuditLogRepository
	quotaRepo    repositories.QuotaRepository

	// One distributor per campaign; quota state is in-memory with a
	// write-through of counters to the quota repository.
	mu           sync.Mutex
	distributors map[string]*engine.TemporalDistributor

	now func() time.Time
}

// NewPlayService creates a new PlayService implementation
func NewPlayService(
	campaignRepo repositories.CampaignRepository,
	auditRepo repositories.AuditLogRepository,
	quotaRepo repositories.QuotaRepository,
) PlayService {
	return &playService{
		campaignRepo: campaignRepo,
		auditRepo:    auditRepo,
		quotaRepo:    quotaRepo,
		distributors: make(map[string]*engine.TemporalDistributor),
		now:          time.Now,
	}
}

// Play executes one participant play end to end: probability distribution,
// attribution decision, quota gate, provably fair draw, award commit and
// signed audit record.
func (s *playService) Play(ctx context.Context, campaignID primitive.ObjectID, req PlayRequest) (*PlayResult, error) {
	now := s.now()

	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusActive {
		return nil, fmt.Errorf("campaign %s is not active", campaignID.Hex())
	}
	if now.Before(campaign.StartDate) || now.After(campaign.EndDate) {
		return nil, fmt.Errorf("campaign %s is outside its schedule", campaignID.Hex())
	}

	probs := engine.GenerateFinalSegments(campaign, now)
	if len(probs.Errors) > 0 {
		return nil, fmt.Errorf("cannot compute probabilities: %s", probs.Errors[0])
	}

	var decision engine.AttributionDecision
	switch campaign.Type {
	case models.CampaignTypeScratch:
		decision = engine.DecideScratchAttribution(campaign.Prizes, now)
	default:
		decision = engine.DecideWheelAttribution(campaign.Prizes, probs.Segments, now)
	}

	// Quota gate: a win the daily distribution cannot absorb becomes a loss.
	if decision.IsWinner {
		check := s.distributor(campaign).CanAwardPrize(*decision.Prize, now)
		if !check.CanAward {
			slog.Info("Win blocked by daily quota",
				"campaignId", campaignID.Hex(),
				"prizeId", decision.Prize.ID,
				"reason", check.Reason)
			decision = engine.AttributionDecision{
				IsWinner: false,
				Method:   engine.AttributionNone,
				Reason:   check.Reason,
			}
		}
	}

	spinner, err := engine.NewSecureSpinner(req.ClientSeed)
	if err != nil {
		return nil, err
	}
	spin, err := spinner.Spin(probs.Segments, now)
	if err != nil {
		return nil, err
	}

	segment := s.displayedSegment(probs.Segments, decision, spin)

	var before, after int
	if decision.IsWinner {
		prize := decision.Prize
		before = prize.Remaining()
		after = before - 1

		if err := s.campaignRepo.IncrementPrizeAwarded(ctx, campaignID, prize.ID); err != nil {
			slog.Error("Failed to commit prize award", "error", err, "campaignId", campaignID.Hex(), "prizeId", prize.ID)
			return nil, fmt.Errorf("failed to commit award: %w", err)
		}
		s.distributor(campaign).RecordAttribution(prize.ID, now)
		if err := s.quotaRepo.IncrementAwarded(ctx, campaignID.Hex(), prize.ID, now.Format("2006-01-02")); err != nil {
			// Quota write-through is best effort; the award itself is already
			// durable on the campaign document.
			slog.Warn("Failed to persist quota counter", "error", err, "prizeId", prize.ID)
		}
	}

	rank, err := s.campaignRepo.IncrementTotalPlays(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to record play: %w", err)
	}

	params := engine.AuditParams{
		CampaignID:            campaignID.Hex(),
		ParticipantID:         req.ParticipantID,
		ParticipantRank:       rank,
		IsWinner:              decision.IsWinner,
		AttributionMethod:     decision.Method,
		SegmentID:             segment.ID,
		Proof:                 &spin.Proof,
		PrizesRemainingBefore: before,
		PrizesRemainingAfter:  after,
		Timestamp:             now,
	}
	if decision.Prize != nil {
		params.PrizeID = decision.Prize.ID
		params.PrizeName = decision.Prize.Name
	}
	auditLog, err := engine.CreateAuditLog(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}
	if err := s.auditRepo.Create(ctx, &auditLog); err != nil {
		slog.Error("Failed to persist audit log", "error", err, "logId", auditLog.ID)
		return nil, fmt.Errorf("failed to persist audit log: %w", err)
	}

	slog.Info("Play completed",
		"campaignId", campaignID.Hex(),
		"participant", utils.MaskParticipantID(req.ParticipantID),
		"rank", rank,
		"isWinner", decision.IsWinner,
		"method", decision.Method,
		"segmentId", segment.ID)

	return &PlayResult{
		IsWinner:        decision.IsWinner,
		Prize:           decision.Prize,
		Method:          decision.Method,
		Reason:          decision.Reason,
		Segment:         segment,
		Segments:        probs.Segments,
		Proof:           spin.Proof,
		ParticipantRank: rank,
		AuditLogID:      auditLog.ID,
	}, nil
}

// GetDistributionStats reports temporal distribution health for a campaign
func (s *playService) GetDistributionStats(ctx context.Context, campaignID primitive.ObjectID) (engine.DistributionStats, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return engine.DistributionStats{}, err
	}
	return s.distributor(campaign).GetDistributionStats(s.now()), nil
}

// displayedSegment reconciles the crypto draw with the authoritative
// decision. The spin stays the source of the fairness proof; when its
// outcome contradicts the decision (calendar forcing, quota degradation) the
// animation target is moved to a segment consistent with the decision.
func (s *playService) displayedSegment(segments []models.Segment, decision engine.AttributionDecision, spin *engine.SpinResult) models.Segment {
	if decision.ForcedSegmentID != "" {
		for _, seg := range segments {
			if seg.ID == decision.ForcedSegmentID {
				return seg
			}
		}
	}

	spun := spin.WinningSegment
	if decision.IsWinner {
		if decision.Prize != nil && spun.PrizeID == decision.Prize.ID {
			return spun
		}
		for _, seg := range segments {
			if decision.Prize != nil && seg.PrizeID == decision.Prize.ID {
				return seg
			}
		}
		return spun
	}

	if !spun.IsWinning {
		return spun
	}
	for _, seg := range segments {
		if !seg.IsWinning {
			return seg
		}
	}
	return spun
}

// distributor returns the campaign's temporal distributor, creating it on
// first use from the campaign schedule and strategy.
func (s *playService) distributor(campaign *models.Campaign) *engine.TemporalDistributor {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := campaign.ID.Hex()
	if d, ok := s.distributors[key]; ok {
		return d
	}
	strategy := engine.DistributionStrategy(campaign.Strategy)
	if strategy == "" {
		strategy = engine.StrategyUniform
	}
	d := engine.NewTemporalDistributor(campaign.StartDate, campaign.EndDate, strategy)
	s.distributors[key] = d
	return d
}
