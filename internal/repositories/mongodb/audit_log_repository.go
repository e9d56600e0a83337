package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spinlab/campaign-engine/internal/models"
	"github.com/spinlab/campaign-engine/internal/repositories"
)

// AuditLogRepository implements the repositories.AuditLogRepository interface
type AuditLogRepository struct {
	collection *mongo.Collection
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *mongo.Database) repositories.AuditLogRepository {
	return &AuditLogRepository{
		collection: db.Collection("audit_logs"),
	}
}

// Create inserts a new audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	result, err := r.collection.InsertOne(ctx, log)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		log.MongoID = oid
	}
	return nil
}

// FindByLogID finds an audit log by its application-level log ID
func (r *AuditLogRepository) FindByLogID(ctx context.Context, logID string) (*models.AuditLog, error) {
	var log models.AuditLog
	err := r.collection.FindOne(ctx, bson.M{"logId": logID}).Decode(&log)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// FindByCampaignID finds audit logs for a campaign with pagination
func (r *AuditLogRepository) FindByCampaignID(ctx context.Context, campaignID string, page, limit int) ([]*models.AuditLog, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"timestamp": -1}) // Most recent plays first

	cursor, err := r.collection.Find(ctx, bson.M{"campaignId": campaignID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*models.AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// FindAllByCampaignID finds every audit log for a campaign, oldest first,
// for report generation and CSV export
func (r *AuditLogRepository) FindAllByCampaignID(ctx context.Context, campaignID string) ([]*models.AuditLog, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": 1})

	cursor, err := r.collection.Find(ctx, bson.M{"campaignId": campaignID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*models.AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// CountByCampaignID counts audit logs for a campaign
func (r *AuditLogRepository) CountByCampaignID(ctx context.Context, campaignID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"campaignId": campaignID})
}
