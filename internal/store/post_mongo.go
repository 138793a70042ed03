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

const postCollection = "posts"

type postDoc struct {
	ID   bson.ObjectID `bson:"_id,omitempty"`
	Post types.Post    `bson:",inline"`
}

// PostMongoRepository handles persistence for posts on MongoDB.
type PostMongoRepository struct {
	db *mongo.Database
}

func NewPostMongoRepository(db *mongo.Database) *PostMongoRepository {
	return &PostMongoRepository{db: db}
}

func (r *PostMongoRepository) Get(ctx context.Context, id string) (types.Post, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return types.Post{}, ErrNotFound
	}

	result := r.db.Collection(postCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, result.Err()
	}

	var doc postDoc
	if err := result.Decode(&doc); err != nil {
		return types.Post{}, err
	}
	doc.Post.ID = doc.ID.Hex()
	return doc.Post, nil
}

func (r *PostMongoRepository) List(ctx context.Context) ([]types.Post, error) {
	return r.find(ctx, bson.M{}, nil)
}

func (r *PostMongoRepository) ListByAuthor(ctx context.Context, authorID string) ([]types.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"author_id": authorID}, opts)
}

func (r *PostMongoRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	result, err := r.db.Collection(postCollection).InsertOne(ctx, postDoc{Post: post})
	if err != nil {
		return types.Post{}, err
	}

	objectID, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return types.Post{}, errors.New("unexpected inserted id type")
	}
	post.ID = objectID.Hex()
	return post, nil
}

func (r *PostMongoRepository) Update(ctx context.Context, post types.Post) (types.Post, error) {
	objectID, err := bson.ObjectIDFromHex(post.ID)
	if err != nil {
		return types.Post{}, ErrNotFound
	}

	post.UpdatedAt = time.Now()

	result := r.db.Collection(postCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"title":      post.Title,
			"content":    post.Content,
			"updated_at": post.UpdatedAt,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, result.Err()
	}

	var doc postDoc
	if err := result.Decode(&doc); err != nil {
		return types.Post{}, err
	}
	doc.Post.ID = doc.ID.Hex()
	return doc.Post, nil
}

func (r *PostMongoRepository) Delete(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.db.Collection(postCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostMongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]types.Post, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.db.Collection(postCollection).Find(ctx, filter, opts)
	} else {
		cursor, err = r.db.Collection(postCollection).Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []types.Post
	for cursor.Next(ctx) {
		var doc postDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		doc.Post.ID = doc.ID.Hex()
		posts = append(posts, doc.Post)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
