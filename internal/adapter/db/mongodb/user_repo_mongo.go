package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"user-management-api/internal/domain/user"
	apperrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"
)

// EmailIndexName is the name of the unique index on the email field.
const EmailIndexName = "uk_users_email"

// UserRepoMongo implements the Repository interface using a MongoDB collection.
type UserRepoMongo struct {
	coll *mongo.Collection // Collection holding one document per user
	log  *zap.Logger       // Structured logger for database operations
}

// NewUserRepoMongo creates a new instance of UserRepoMongo.
func NewUserRepoMongo(coll *mongo.Collection, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{coll: coll, log: log}
}

// userDocument is the stored shape of a user.
type userDocument struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
	Age   int                `bson:"age"`
}

func (d userDocument) toDomain() user.User {
	return user.User{
		ID:    d.ID.Hex(),
		Name:  d.Name,
		Email: d.Email,
		Age:   d.Age,
	}
}

// EnsureIndexes creates the unique email index if it does not exist yet.
func (r *UserRepoMongo) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(EmailIndexName),
	}
	if _, err := r.coll.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

// Ping checks that the primary is reachable.
func (r *UserRepoMongo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// Save inserts u when it has no ID yet and replaces the stored document
// otherwise. Replacing a document that no longer exists returns nil, nil.
func (r *UserRepoMongo) Save(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}
	log := logger.WithContext(ctx, r.log)

	doc := userDocument{Name: u.Name, Email: u.Email, Age: u.Age}

	if !u.IsPersisted() {
		doc.ID = primitive.NewObjectID()
		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			return nil, r.writeError(log, "insert", u.Email, err)
		}
		log.Debug("user inserted in db", zap.String("id", doc.ID.Hex()))
		saved := doc.toDomain()
		return &saved, nil
	}

	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", u.ID, err)
	}
	doc.ID = oid

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return nil, r.writeError(log, "replace", u.Email, err)
	}
	if res.MatchedCount == 0 {
		log.Warn("user vanished before replace", zap.String("id", u.ID))
		return nil, nil
	}

	log.Debug("user replaced in db", zap.String("id", u.ID))
	saved := doc.toDomain()
	return &saved, nil
}

// FindByID returns the user stored under id, or nil when there is none.
// An id that is not a valid ObjectID cannot match any document.
func (r *UserRepoMongo) FindByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		logger.WithContext(ctx, r.log).Debug("id is not an object id", zap.String("id", id))
		return nil, nil
	}

	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := doc.toDomain()
	return &u, nil
}

// ExistsByEmail reports whether a user with exactly this email is stored.
func (r *UserRepoMongo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	err := r.coll.FindOne(ctx, bson.M{"email": email}, opts).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		logger.WithContext(ctx, r.log).Error("failed to check email in db", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email: %w", err)
	}
}

// FindAll returns every stored user in natural order.
func (r *UserRepoMongo) FindAll(ctx context.Context) ([]user.User, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		logger.WithContext(ctx, r.log).Error("failed to decode users", zap.Error(err))
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]user.User, len(docs))
	for i, doc := range docs {
		users[i] = doc.toDomain()
	}
	return users, nil
}

// RemoveByID deletes the user stored under id. Deleting a missing user is not an error.
func (r *UserRepoMongo) RemoveByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		logger.WithContext(ctx, r.log).Error("failed to delete user in db", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logger.WithContext(ctx, r.log).Debug("user deleted in db", zap.String("id", id), zap.Int64("deleted", res.DeletedCount))
	return nil
}

func (r *UserRepoMongo) writeError(log *zap.Logger, op, email string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		log.Warn("unique email index rejected write", zap.String("op", op), zap.String("email", email))
		return apperrors.NewDuplicateEmailError(email)
	}
	log.Error("failed to write user in db", zap.String("op", op), zap.Error(err), zap.String("email", email))
	return fmt.Errorf("failed to %s user: %w", op, err)
}
