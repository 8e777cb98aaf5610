package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// collection names
	UsersCollection            = "users"
	FeedbacksCollection        = "feedbacks"
	ApiOperationLogsCollection = "apiOperationLogs"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate key")
)

var (
	client *mongo.Client
	db     *mongo.Database
)

// InitMongoDB connects to MongoDB and selects dbName.
func InitMongoDB(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	client, err = mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	db = client.Database(dbName)
	utils.Logger.Info().Str("database", dbName).Msg("connected to MongoDB")

	return db, nil
}

// CloseMongoDB disconnects the client opened by InitMongoDB.
func CloseMongoDB(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("disconnect MongoDB failed")
		return
	}
	utils.Logger.Info().Msg("disconnected from MongoDB")
}

// GetDatabaseStatus pings the server and reports per-collection document
// counts.
func GetDatabaseStatus(ctx context.Context) (map[string]interface{}, error) {
	if client == nil || db == nil {
		return nil, errors.New("MongoDB is not initialised")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	counts := make(map[string]int64)
	for _, collName := range []string{UsersCollection, FeedbacksCollection, ApiOperationLogsCollection} {
		n, err := db.Collection(collName).EstimatedDocumentCount(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", collName, err)
		}
		counts[collName] = n
	}

	return map[string]interface{}{
		"connected":   true,
		"database":    db.Name(),
		"collections": counts,
	}, nil
}

// InitializeCollections creates missing collections and the indexes the
// queries rely on.
func InitializeCollections(ctx context.Context, database *mongo.Database) error {
	collections := []string{
		UsersCollection,
		FeedbacksCollection,
		ApiOperationLogsCollection,
	}

	existing, err := database.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	for _, collName := range collections {
		if present[collName] {
			utils.Logger.Info().Str("collection", collName).Msg("collection exists")
			continue
		}
		if err := database.CreateCollection(ctx, collName); err != nil {
			return fmt.Errorf("create collection %s: %w", collName, err)
		}
		utils.Logger.Info().Str("collection", collName).Msg("collection created")
	}

	if err := ensureIndexes(ctx, database); err != nil {
		return err
	}
	return migrateLegacyRoles(ctx, database.Collection(UsersCollection))
}

// migrateLegacyRoles rewrites stored roles still carrying an old spelling.
func migrateLegacyRoles(ctx context.Context, users *mongo.Collection) error {
	coordinator := models.UserRoleMIT_COORDINATOR
	legacy := coordinator.StoredSpellings()[1:]

	res, err := users.UpdateMany(ctx,
		bson.M{"role": bson.M{"$in": legacy}},
		bson.M{"$set": bson.M{"role": coordinator}},
	)
	if err != nil {
		return fmt.Errorf("migrate legacy roles: %w", err)
	}
	if res.ModifiedCount > 0 {
		utils.Logger.Info().Int64("users", res.ModifiedCount).Msg("legacy coordinator roles migrated")
	}
	return nil
}

func ensureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		FeedbacksCollection: {
			{Keys: bson.D{{Key: "createdBy", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		ApiOperationLogsCollection: {
			{Keys: bson.D{{Key: "operationTime", Value: -1}}},
		},
	}

	for collName, idx := range indexes {
		if _, err := database.Collection(collName).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collName, err)
		}
	}
	return nil
}

// adminSeedStore is satisfied by both user repositories.
type adminSeedStore interface {
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
	Insert(ctx context.Context, u *models.User) error
}

// InitializeAdminAccount seeds an ADMIN user when none exists.
func InitializeAdminAccount(ctx context.Context, users adminSeedStore, email, password string) error {
	count, err := users.CountByRole(ctx, models.UserRoleADMIN)
	if err != nil {
		return fmt.Errorf("count admin accounts: %w", err)
	}
	if count > 0 {
		utils.Logger.Info().Msg("admin account exists, skipping seed")
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := &models.User{
		Name:      "Administrator",
		Username:  "admin",
		Email:     email,
		Password:  hash,
		Role:      models.UserRoleADMIN,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Insert(ctx, admin); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	utils.Logger.Info().Str("email", email).Msg("default admin account created")
	return nil
}

// handleMongoError maps driver errors onto the package sentinels.
func handleMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Join(err, ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(err, ErrDuplicate)
	}
	return err
}

// parseObjectID converts a hex id. Malformed ids cannot name a document, so
// they are reported as not found.
func parseObjectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, ErrNotFound)
	}
	return objID, nil
}
