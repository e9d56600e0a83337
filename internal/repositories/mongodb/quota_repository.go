package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spinlab/campaign-engine/internal/models"
	"github.com/spinlab/campaign-engine/internal/repositories"
)

// QuotaRepository implements the repositories.QuotaRepository interface
type QuotaRepository struct {
	collection *mongo.Collection
}

// NewQuotaRepository creates a new QuotaRepository
func NewQuotaRepository(db *mongo.Database) repositories.QuotaRepository {
	return &QuotaRepository{
		collection: db.Collection("daily_quotas"),
	}
}

func quotaKey(campaignID, prizeID, date string) bson.M {
	return bson.M{
		"campaignId": campaignID,
		"prizeId":    prizeID,
		"date":       date,
	}
}

// Upsert writes the quota document for a (campaign, prize, date) key,
// creating it on first sight
func (r *QuotaRepository) Upsert(ctx context.Context, quota *models.DailyQuota) error {
	filter := quotaKey(quota.CampaignID, quota.PrizeID, quota.Date)
	update := bson.M{"$set": bson.M{
		"quota":   quota.Quota,
		"awarded": quota.Awarded,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// IncrementAwarded atomically bumps the awarded counter of one quota document
func (r *QuotaRepository) IncrementAwarded(ctx context.Context, campaignID, prizeID, date string) error {
	filter := quotaKey(campaignID, prizeID, date)
	update := bson.M{"$inc": bson.M{"awarded": 1}}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindByCampaignAndDate loads all quota documents for a campaign on one date
func (r *QuotaRepository) FindByCampaignAndDate(ctx context.Context, campaignID, date string) ([]*models.DailyQuota, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"campaignId": campaignID, "date": date})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var quotas []*models.DailyQuota
	if err := cursor.All(ctx, &quotas); err != nil {
		return nil, err
	}
	return quotas, nil
}
