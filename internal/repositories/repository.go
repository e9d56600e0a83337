package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spinlab/campaign-engine/internal/models"
)

// CampaignRepository defines the interface for campaign data operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Campaign, error)
	FindByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)

	// IncrementPrizeAwarded atomically bumps the awarded counter of one
	// embedded prize; the single-document atomicity is what keeps awards
	// consistent across concurrent plays.
	IncrementPrizeAwarded(ctx context.Context, campaignID primitive.ObjectID, prizeID string) error

	// IncrementTotalPlays atomically bumps the campaign play counter and
	// returns the new value, used as the participant rank of the play.
	IncrementTotalPlays(ctx context.Context, campaignID primitive.ObjectID) (int, error)
}

// AuditLogRepository defines the interface for attribution audit records
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	FindByLogID(ctx context.Context, logID string) (*models.AuditLog, error)
	FindByCampaignID(ctx context.Context, campaignID string, page, limit int) ([]*models.AuditLog, error)
	FindAllByCampaignID(ctx context.Context, campaignID string) ([]*models.AuditLog, error)
	CountByCampaignID(ctx context.Context, campaignID string) (int64, error)
}

// QuotaRepository persists daily quota counters so the in-memory distributor
// state can be rebuilt; keyed by (campaignId, prizeId, date).
type QuotaRepository interface {
	Upsert(ctx context.Context, quota *models.DailyQuota) error
	IncrementAwarded(ctx context.Context, campaignID, prizeID, date string) error
	FindByCampaignAndDate(ctx context.Context, campaignID, date string) ([]*models.DailyQuota, error)
}

// UserRepository defines the interface for operator account operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
