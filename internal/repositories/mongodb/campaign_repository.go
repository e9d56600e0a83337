package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spinlab/campaign-engine/internal/models"
	"github.com/spinlab/campaign-engine/internal/repositories"
)

// CampaignRepository implements the repositories.CampaignRepository interface
type CampaignRepository struct {
	collection *mongo.Collection
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *mongo.Database) repositories.CampaignRepository {
	return &CampaignRepository{
		collection: db.Collection("campaigns"),
	}
}

// Create creates a new campaign
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, campaign)
	if err != nil {
		return err
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		campaign.ID = id
	}
	return nil
}

// FindByID finds a campaign by ID
func (r *CampaignRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&campaign)
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// FindAll finds campaigns with pagination
func (r *CampaignRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Campaign, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var campaigns []*models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// FindByStatus finds campaigns by lifecycle status
func (r *CampaignRepository) FindByStatus(ctx context.Context, status models.CampaignStatus) ([]*models.Campaign, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var campaigns []*models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// Update updates a campaign
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": campaign.ID}, campaign)
	return err
}

// Delete deletes a campaign
func (r *CampaignRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Count counts all campaigns
func (r *CampaignRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// IncrementPrizeAwarded atomically increments the awarded counter of one
// embedded prize. Availability is checked by the caller before committing.
func (r *CampaignRepository) IncrementPrizeAwarded(ctx context.Context, campaignID primitive.ObjectID, prizeID string) error {
	filter := bson.M{
		"_id":       campaignID,
		"prizes.id": prizeID,
	}
	update := bson.M{
		"$inc": bson.M{"prizes.$.awardedUnits": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncrementTotalPlays atomically increments the play counter and returns the
// updated value
func (r *CampaignRepository) IncrementTotalPlays(ctx context.Context, campaignID primitive.ObjectID) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Campaign
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": campaignID},
		bson.M{"$inc": bson.M{"totalPlays": 1}},
		opts,
	).Decode(&updated)
	if err != nil {
		return 0, err
	}
	return updated.TotalPlays, nil
}
