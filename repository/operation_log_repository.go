package repository

import (
	"context"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// OperationLogRepository appends to the apiOperationLogs collection.
type OperationLogRepository struct {
	coll *mongo.Collection
}

// NewOperationLogRepository binds the repository to apiOperationLogs.
func NewOperationLogRepository(database *mongo.Database) *OperationLogRepository {
	return &OperationLogRepository{coll: database.Collection(ApiOperationLogsCollection)}
}

// Insert stores entry.
func (r *OperationLogRepository) Insert(ctx context.Context, entry *models.OperationLog) error {
	_, err := r.coll.InsertOne(ctx, entry)
	return handleMongoError(err)
}

// DeleteBefore removes entries older than cutoff and returns how many went.
func (r *OperationLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{"operationTime": bson.M{"$lt": cutoff}}
	utils.LogDbOperation("deleteMany", ApiOperationLogsCollection, filter)

	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, handleMongoError(err)
	}
	return res.DeletedCount, nil
}
