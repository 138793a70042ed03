package store

import (
	"context"
	"errors"
	"time"

	"github.com/ripple-social/apiserver/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const userCollection = "users"

type userDoc struct {
	ID   bson.ObjectID `bson:"_id,omitempty"`
	User types.User    `bson:",inline"`
}

// UserMongoRepository handles persistence for users on MongoDB.
type UserMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository constructs the repository and ensures the unique
// email index exists.
func NewUserMongoRepository(ctx context.Context, db *mongo.Database) (*UserMongoRepository, error) {
	_, err := db.Collection(userCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &UserMongoRepository{db: db}, nil
}

func (r *UserMongoRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return types.User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *UserMongoRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserMongoRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, userDoc{User: user})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}

	objectID, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return types.User{}, errors.New("unexpected inserted id type")
	}
	user.ID = objectID.Hex()
	return user, nil
}

func (r *UserMongoRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	objectID, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return types.User{}, ErrNotFound
	}

	user.UpdatedAt = time.Now()

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"name":          user.Name,
			"email":         user.Email,
			"bio":           user.Bio,
			"avatar_key":    user.AvatarKey,
			"password_hash": user.PasswordHash,
			"updated_at":    user.UpdatedAt,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, result.Err()
	}

	var doc userDoc
	if err := result.Decode(&doc); err != nil {
		return types.User{}, err
	}
	doc.User.ID = doc.ID.Hex()
	return doc.User, nil
}

func (r *UserMongoRepository) ListByIDs(ctx context.Context, ids []string) ([]types.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	objectIDs := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := bson.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, objectID)
	}

	cursor, err := r.db.Collection(userCollection).Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []types.User
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		doc.User.ID = doc.ID.Hex()
		users = append(users, doc.User)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserMongoRepository) findOne(ctx context.Context, filter bson.M) (types.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, result.Err()
	}

	var doc userDoc
	if err := result.Decode(&doc); err != nil {
		return types.User{}, err
	}
	doc.User.ID = doc.ID.Hex()
	return doc.User, nil
}
