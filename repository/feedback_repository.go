package repository

import (
	"context"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedbackRepository persists feedback items in MongoDB.
type FeedbackRepository struct {
	coll *mongo.Collection
}

// NewFeedbackRepository binds the repository to the feedbacks collection.
func NewFeedbackRepository(database *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{coll: database.Collection(FeedbacksCollection)}
}

// scopeFilter renders a scope as a query document.
func scopeFilter(scope models.FeedbackScope) bson.M {
	if scope.All {
		return bson.M{}
	}

	var clauses bson.A
	if scope.CreatedBy != "" {
		clauses = append(clauses, bson.M{"createdBy": scope.CreatedBy})
	}
	if scope.AssignedTo != "" {
		clauses = append(clauses, bson.M{"assignedTo": scope.AssignedTo})
	}
	if scope.Unassigned {
		clauses = append(clauses, bson.M{"assignedTo": bson.M{"$in": bson.A{nil, ""}}})
	}

	switch len(clauses) {
	case 0:
		// matches nothing
		return bson.M{"_id": bson.M{"$exists": false}}
	case 1:
		return clauses[0].(bson.M)
	default:
		return bson.M{"$or": clauses}
	}
}

func guardFilter(objID primitive.ObjectID, guard models.FeedbackGuard) bson.M {
	filter := bson.M{"_id": objID}
	if guard.CreatedBy != "" {
		filter["createdBy"] = guard.CreatedBy
	}
	if guard.Status != "" {
		filter["status"] = guard.Status
	}
	return filter
}

// Insert stores f and fills in its id.
func (r *FeedbackRepository) Insert(ctx context.Context, f *models.Feedback) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if f.Comments == nil {
		f.Comments = []models.Comment{}
	}
	utils.LogDbOperation("insert", FeedbacksCollection, f.ID.Hex())

	_, err := r.coll.InsertOne(ctx, f)
	return handleMongoError(err)
}

// FindByID returns the item with id.
func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var f models.Feedback
	if err := r.coll.FindOne(ctx, bson.M{"_id": objID}).Decode(&f); err != nil {
		return nil, handleMongoError(err)
	}
	return &f, nil
}

// Find returns the items in scope, newest first.
func (r *FeedbackRepository) Find(ctx context.Context, scope models.FeedbackScope) ([]models.Feedback, error) {
	filter := scopeFilter(scope)
	utils.LogDbOperation("find", FeedbacksCollection, filter)

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, handleMongoError(err)
	}
	defer cursor.Close(ctx)

	items := []models.Feedback{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, handleMongoError(err)
	}
	return items, nil
}

// Count returns the number of items in scope.
func (r *FeedbackRepository) Count(ctx context.Context, scope models.FeedbackScope) (int64, error) {
	filter := scopeFilter(scope)
	utils.LogDbOperation("count", FeedbacksCollection, filter)

	n, err := r.coll.CountDocuments(ctx, filter)
	return n, handleMongoError(err)
}

// Update applies upd in a single atomic operation when the guard still holds
// and returns the updated item. ErrNotFound covers both a missing item and a
// failed guard.
func (r *FeedbackRepository) Update(ctx context.Context, id string, guard models.FeedbackGuard, upd models.FeedbackUpdate) (*models.Feedback, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now()}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Attachment != nil {
		set["attachment"] = *upd.Attachment
	}
	if upd.AssignedTo != nil {
		set["assignedTo"] = *upd.AssignedTo
	}
	if upd.AssignedRole != nil {
		if *upd.AssignedRole == "" {
			unset["assignedRole"] = ""
		} else {
			set["assignedRole"] = *upd.AssignedRole
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := guardFilter(objID, guard)
	utils.LogDbOperation("update", FeedbacksCollection, filter)

	return r.findOneAndUpdate(ctx, filter, update)
}

// AppendComment pushes c onto the item's thread atomically.
func (r *FeedbackRepository) AppendComment(ctx context.Context, id string, c models.Comment) (*models.Feedback, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	utils.LogDbOperation("push comment", FeedbacksCollection, objID.Hex())

	return r.findOneAndUpdate(ctx, bson.M{"_id": objID}, update)
}

// Delete removes the item when the guard still holds.
func (r *FeedbackRepository) Delete(ctx context.Context, id string, guard models.FeedbackGuard) error {
	objID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	filter := guardFilter(objID, guard)
	utils.LogDbOperation("delete", FeedbacksCollection, filter)

	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return handleMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FeedbackRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Feedback, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var f models.Feedback
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&f); err != nil {
		return nil, handleMongoError(err)
	}
	return &f, nil
}
