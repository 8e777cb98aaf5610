package repository

import (
	"context"
	"strings"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository reads and writes the users collection.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository binds the repository to the users collection.
func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{coll: database.Collection(UsersCollection)}
}

// Insert stores u and fills in its id.
func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	utils.LogDbOperation("insert", UsersCollection, u.Email)

	_, err := r.coll.InsertOne(ctx, u)
	return handleMongoError(err)
}

// FindByID returns the user with id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

// FindByLogin looks a user up by email or username.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": strings.ToLower(login)},
		bson.M{"username": login},
	}}
	return r.findOne(ctx, filter)
}

// FindByIDs returns the users among ids keyed by hex id. Unknown and
// malformed ids are skipped.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	objIDs := make(bson.A, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	result := make(map[string]*models.User, len(objIDs))
	if len(objIDs) == 0 {
		return result, nil
	}

	users, err := r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID.Hex()] = &users[i]
	}
	return result, nil
}

// FindByRole returns the users holding role, ordered by name.
func (r *UserRepository) FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	return r.find(ctx, roleFilter(role))
}

// FindAll returns every user ordered by name.
func (r *UserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.M{})
}

// CountByRole counts the users holding role.
func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, roleFilter(role))
	return n, handleMongoError(err)
}

// roleFilter also matches documents written before the coordinator role was
// renamed.
func roleFilter(role models.UserRole) bson.M {
	return bson.M{"role": bson.M{"$in": role.StoredSpellings()}}
}

// canonicalRole rewrites a legacy stored role to its current spelling.
func canonicalRole(u *models.User) {
	if role, ok := models.ParseUserRole(string(u.Role)); ok {
		u.Role = role
	}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	utils.LogDbOperation("findOne", UsersCollection, filter)

	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, handleMongoError(err)
	}
	canonicalRole(&u)
	return &u, nil
}

func (r *UserRepository) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	utils.LogDbOperation("find", UsersCollection, filter)

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, handleMongoError(err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, handleMongoError(err)
	}
	for i := range users {
		canonicalRole(&users[i])
	}
	return users, nil
}
