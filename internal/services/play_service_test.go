package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spinlab/campaign-engine/internal/engine"
	"github.com/spinlab/campaign-engine/internal/models"
)

type fakeCampaignRepo struct {
	campaign *models.Campaign
	plays    int
}

func (f *fakeCampaignRepo) Create(ctx context.Context, c *models.Campaign) error { return nil }

func (f *fakeCampaignRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	if f.campaign == nil || f.campaign.ID != id {
		return nil, mongo.ErrNoDocuments
	}
	c := *f.campaign
	return &c, nil
}

func (f *fakeCampaignRepo) FindAll(ctx context.Context, page, limit int) ([]*models.Campaign, error) {
	return []*models.Campaign{f.campaign}, nil
}

func (f *fakeCampaignRepo) FindByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.Campaign, error) {
	return nil, nil
}

func (f *fakeCampaignRepo) Update(ctx context.Context, c *models.Campaign) error { return nil }
func (f *fakeCampaignRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return nil
}
func (f *fakeCampaignRepo) Count(ctx context.Context) (int64, error) { return 1, nil }

func (f *fakeCampaignRepo) IncrementPrizeAwarded(ctx context.Context, campaignID primitive.ObjectID, prizeID string) error {
	prize := f.campaign.FindPrize(prizeID)
	if prize == nil {
		return mongo.ErrNoDocuments
	}
	prize.AwardedUnits++
	return nil
}

func (f *fakeCampaignRepo) IncrementTotalPlays(ctx context.Context, campaignID primitive.ObjectID) (int, error) {
	f.plays++
	f.campaign.TotalPlays = f.plays
	return f.plays, nil
}

type fakeAuditRepo struct {
	logs []*models.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeAuditRepo) FindByLogID(ctx context.Context, logID string) (*models.AuditLog, error) {
	for _, l := range f.logs {
		if l.ID == logID {
			return l, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeAuditRepo) FindByCampaignID(ctx context.Context, campaignID string, page, limit int) ([]*models.AuditLog, error) {
	return f.logs, nil
}

func (f *fakeAuditRepo) FindAllByCampaignID(ctx context.Context, campaignID string) ([]*models.AuditLog, error) {
	return f.logs, nil
}

func (f *fakeAuditRepo) CountByCampaignID(ctx context.Context, campaignID string) (int64, error) {
	return int64(len(f.logs)), nil
}

type fakeQuotaRepo struct {
	increments int
}

func (f *fakeQuotaRepo) Upsert(ctx context.Context, q *models.DailyQuota) error { return nil }
func (f *fakeQuotaRepo) IncrementAwarded(ctx context.Context, campaignID, prizeID, date string) error {
	f.increments++
	return nil
}
func (f *fakeQuotaRepo) FindByCampaignAndDate(ctx context.Context, campaignID, date string) ([]*models.DailyQuota, error) {
	return nil, nil
}

func newTestService(c *models.Campaign, now time.Time) (*playService, *fakeCampaignRepo, *fakeAuditRepo, *fakeQuotaRepo) {
	campaignRepo := &fakeCampaignRepo{campaign: c}
	auditRepo := &fakeAuditRepo{}
	quotaRepo := &fakeQuotaRepo{}
	svc := NewPlayService(campaignRepo, auditRepo, quotaRepo).(*playService)
	svc.now = func() time.Time { return now }
	return svc, campaignRepo, auditRepo, quotaRepo
}

func testCampaign(probability float64, totalUnits int, now time.Time) *models.Campaign {
	return &models.Campaign{
		ID:        primitive.NewObjectID(),
		Name:      "Summer Giveaway",
		Type:      models.CampaignTypeWheel,
		Status:    models.CampaignStatusActive,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(9 * 24 * time.Hour),
		Strategy:  "uniform",
		Prizes: []models.Prize{{
			ID:                 "prize-1",
			Name:               "Gift Card",
			TotalUnits:         totalUnits,
			Method:             models.MethodProbability,
			ProbabilityPercent: probability,
		}},
		Segments: []models.Segment{
			{ID: "segment-1", Label: "Gift Card", PrizeID: "prize-1"},
			{ID: "segment-2", Label: "Perdu"},
		},
	}
}

func TestPlayGuaranteedWin(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	campaign := testCampaign(100, 50, now)
	svc, campaignRepo, auditRepo, quotaRepo := newTestService(campaign, now)

	result, err := svc.Play(context.Background(), campaign.ID, PlayRequest{
		ParticipantID: "player-42",
		ClientSeed:    "player-seed-1",
	})
	require.NoError(t, err)

	assert.True(t, result.IsWinner)
	require.NotNil(t, result.Prize)
	assert.Equal(t, "prize-1", result.Prize.ID)
	assert.Equal(t, "prize-1", result.Segment.PrizeID)
	assert.Equal(t, 1, result.ParticipantRank)
	assert.True(t, engine.VerifyProof(result.Proof))

	assert.Equal(t, 1, campaignRepo.campaign.Prizes[0].AwardedUnits)
	assert.Equal(t, 1, quotaRepo.increments)

	require.Len(t, auditRepo.logs, 1)
	log := auditRepo.logs[0]
	assert.Equal(t, result.AuditLogID, log.ID)
	assert.True(t, log.IsWinner)
	verification := engine.VerifyAuditLog(*log, now)
	assert.True(t, verification.IsValid)
}

func TestPlayAlwaysLoss(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	campaign := testCampaign(0, 50, now)
	svc, campaignRepo, auditRepo, _ := newTestService(campaign, now)

	result, err := svc.Play(context.Background(), campaign.ID, PlayRequest{
		ParticipantID: "player-42",
		ClientSeed:    "player-seed-1",
	})
	require.NoError(t, err)

	assert.False(t, result.IsWinner)
	assert.Nil(t, result.Prize)
	assert.False(t, result.Segment.IsWinning)
	assert.Equal(t, 0, campaignRepo.campaign.Prizes[0].AwardedUnits)

	require.Len(t, auditRepo.logs, 1)
	assert.False(t, auditRepo.logs[0].IsWinner)
}

func TestPlayQuotaDegradesWinToLoss(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	// 9 units with 9 campaign days remaining: a daily quota of one.
	campaign := testCampaign(100, 9, now)
	svc, _, auditRepo, _ := newTestService(campaign, now)

	first, err := svc.Play(context.Background(), campaign.ID, PlayRequest{
		ParticipantID: "player-1",
		ClientSeed:    "player-seed-1",
	})
	require.NoError(t, err)
	assert.True(t, first.IsWinner)

	second, err := svc.Play(context.Background(), campaign.ID, PlayRequest{
		ParticipantID: "player-2",
		ClientSeed:    "player-seed-2",
	})
	require.NoError(t, err)
	assert.False(t, second.IsWinner)
	assert.Equal(t, "daily quota exhausted", second.Reason)
	assert.False(t, second.Segment.IsWinning)

	require.Len(t, auditRepo.logs, 2)
	assert.False(t, auditRepo.logs[1].IsWinner)
}

func TestPlayInactiveCampaignRejected(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	campaign := testCampaign(100, 50, now)
	campaign.Status = models.CampaignStatusDraft
	svc, _, auditRepo, _ := newTestService(campaign, now)

	_, err := svc.Play(context.Background(), campaign.ID, PlayRequest{
		ParticipantID: "player-42",
		ClientSeed:    "player-seed-1",
	})
	require.Error(t, err)
	assert.Empty(t, auditRepo.logs)
}

func TestPlayUnknownCampaign(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	campaign := testCampaign(100, 50, now)
	svc, _, _, _ := newTestService(campaign, now)

	_, err := svc.Play(context.Background(), primitive.NewObjectID(), PlayRequest{
		ParticipantID: "player-42",
		ClientSeed:    "player-seed-1",
	})
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestPlayScratchUsesActivityWindow(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	campaign := testCampaign(100, 50, now)
	campaign.Type = models.CampaignTypeScratch
	campaign.Prizes[0].Method = models.MethodCalendar
	campaign.Prizes[0].StartDate = "2026-06-10"
	campaign.Prizes[0].EndDate = "2026-06-10"
	svc, _, _, _ := newTestService(campaign, now)

	result, err := svc.Play(context.Background(), campaign.ID, PlayRequest{
		ParticipantID: "player-42",
		ClientSeed:    "player-seed-1",
	})
	require.NoError(t, err)
	assert.True(t, result.IsWinner)
	assert.Equal(t, engine.AttributionCalendar, result.Method)
}

func TestGetDistributionStats(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	campaign := testCampaign(100, 50, now)
	svc, _, _, _ := newTestService(campaign, now)

	_, err := svc.Play(context.Background(), campaign.ID, PlayRequest{
		ParticipantID: "player-42",
		ClientSeed:    "player-seed-1",
	})
	require.NoError(t, err)

	stats, err := svc.GetDistributionStats(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAwarded)
}
