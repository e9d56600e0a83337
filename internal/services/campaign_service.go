package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"

	"github.com/spinlab/campaign-engine/internal/engine"
	"github.com/spinlab/campaign-engine/internal/models"
	"github.com/spinlab/campaign-engine/internal/repositories"
)

// CampaignService defines the interface for campaign management operations
type CampaignService interface {
	CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	GetCampaigns(ctx context.Context, page, limit int) ([]*models.Campaign, int64, error)
	GetCampaignsByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *models.Campaign) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.CampaignStatus) (*models.Campaign, error)
	DeleteCampaign(ctx context.Context, id primitive.ObjectID) error

	// GetFinalSegments computes the segment layout a client should render
	// right now: padding, probability distribution and colors applied.
	GetFinalSegments(ctx context.Context, id primitive.ObjectID, now time.Time) (engine.ProbabilityResult, error)
}

type campaignService struct {
	campaignRepo    repositories.CampaignRepository
	defaultStrategy string
}

// NewCampaignService creates a new CampaignService implementation
func NewCampaignService(campaignRepo repositories.CampaignRepository, defaultStrategy string) CampaignService {
	return &campaignService{
		campaignRepo:    campaignRepo,
		defaultStrategy: defaultStrategy,
	}
}

// CreateCampaign validates and stores a new campaign in DRAFT state
func (s *campaignService) CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := s.prepare(campaign); err != nil {
		return nil, err
	}
	campaign.Status = models.CampaignStatusDraft
	campaign.TotalPlays = 0

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		slog.Error("Failed to create campaign", "error", err, "name", campaign.Name)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	slog.Info("Campaign created", "campaignId", campaign.ID.Hex(), "name", campaign.Name, "type", campaign.Type)
	return campaign, nil
}

func (s *campaignService) GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	return s.campaignRepo.FindByID(ctx, id)
}

func (s *campaignService) GetCampaigns(ctx context.Context, page, limit int) ([]*models.Campaign, int64, error) {
	campaigns, err := s.campaignRepo.FindAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.campaignRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (s *campaignService) GetCampaignsByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.Campaign, error) {
	return s.campaignRepo.FindByStatus(ctx, status)
}

// UpdateCampaign re-validates the roster and replaces the stored document
func (s *campaignService) UpdateCampaign(ctx context.Context, campaign *models.Campaign) error {
	if err := s.prepare(campaign); err != nil {
		return err
	}
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		slog.Error("Failed to update campaign", "error", err, "campaignId", campaign.ID.Hex())
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	return nil
}

// UpdateStatus moves a campaign through its lifecycle
func (s *campaignService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.CampaignStatus) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignStatusCompleted || campaign.Status == models.CampaignStatusCancelled {
		return nil, fmt.Errorf("campaign %s is already %s", id.Hex(), campaign.Status)
	}

	campaign.Status = status
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, err
	}
	slog.Info("Campaign status updated", "campaignId", id.Hex(), "status", status)
	return campaign, nil
}

func (s *campaignService) DeleteCampaign(ctx context.Context, id primitive.ObjectID) error {
	return s.campaignRepo.Delete(ctx, id)
}

func (s *campaignService) GetFinalSegments(ctx context.Context, id primitive.ObjectID, now time.Time) (engine.ProbabilityResult, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return engine.ProbabilityResult{}, err
	}
	return engine.GenerateFinalSegments(campaign, now), nil
}

// prepare normalizes the prize roster, builds a default segment layout when
// none was supplied and rejects rosters the engine cannot draw from.
func (s *campaignService) prepare(campaign *models.Campaign) error {
	if campaign.Name == "" {
		return fmt.Errorf("campaign name is required")
	}
	if campaign.Type != models.CampaignTypeWheel && campaign.Type != models.CampaignTypeScratch {
		return fmt.Errorf("unknown campaign type %q", campaign.Type)
	}
	if !campaign.EndDate.After(campaign.StartDate) {
		return fmt.Errorf("campaign end date must be after start date")
	}
	if campaign.Strategy == "" {
		campaign.Strategy = s.defaultStrategy
	}

	for i := range campaign.Prizes {
		campaign.Prizes[i] = engine.NormalizePrize(campaign.Prizes[i])
	}
	result := engine.ValidatePrizeCollection(campaign.Prizes)
	if !result.IsValid {
		return fmt.Errorf("invalid prize roster: %s", strings.Join(result.Errors, "; "))
	}
	for _, w := range result.Warnings {
		slog.Warn("Prize roster warning", "campaign", campaign.Name, "warning", w)
	}

	if len(campaign.Segments) == 0 {
		campaign.Segments = engine.BuildSegments(campaign)
	}
	return nil
}
