package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/linkupapp/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by the Mongo-backed repositories when the
// referenced document (or embedded comment/reply) does not exist. Malformed
// object ids map here too: such a document cannot exist.
var ErrNotFound = errors.New("record not found")

// PostRepository defines the interface for post document operations.
// Comments and replies live inside the post document, so each mutation below
// is a single atomic document write.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetAll(ctx context.Context, skip, limit int64) ([]models.Post, int64, error)
	GetByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, int64, error)
	IncrementLikesCount(ctx context.Context, id string, delta int) error
	IncrementReshareCount(ctx context.Context, id string) error
	AddComment(ctx context.Context, postID string, comment *models.Comment) error
	RemoveComment(ctx context.Context, postID string, commentID primitive.ObjectID) error
	AddReply(ctx context.Context, postID string, commentID primitive.ObjectID, reply *models.Reply) error
	RemoveReply(ctx context.Context, postID string, commentID, replyID primitive.ObjectID) error
	AddCommentLike(ctx context.Context, postID string, commentID primitive.ObjectID, userID uint) (bool, error)
	RemoveCommentLike(ctx context.Context, postID string, commentID primitive.ObjectID, userID uint) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *MongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *MongoPostRepository) GetAll(ctx context.Context, skip, limit int64) ([]models.Post, int64, error) {
	return r.find(ctx, bson.M{}, skip, limit)
}

func (r *MongoPostRepository) GetByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, int64, error) {
	return r.find(ctx, bson.M{"user_id": userID}, skip, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Post, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *MongoPostRepository) IncrementLikesCount(ctx context.Context, id string, delta int) error {
	return r.increment(ctx, id, bson.M{"likes_count": delta})
}

func (r *MongoPostRepository) IncrementReshareCount(ctx context.Context, id string) error {
	return r.increment(ctx, id, bson.M{"reshare_count": 1})
}

func (r *MongoPostRepository) increment(ctx context.Context, id string, fields bson.M) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddComment appends the comment and bumps comments_count in one write.
func (r *MongoPostRepository) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	if comment.Likes == nil {
		comment.Likes = []uint{}
	}
	if comment.Replies == nil {
		comment.Replies = []models.Reply{}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$push": bson.M{"comments": comment},
		"$inc":  bson.M{"comments_count": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveComment pulls the comment and decrements comments_count. Author
// checks happen in the handler, which reads the post first.
func (r *MongoPostRepository) RemoveComment(ctx context.Context, postID string, commentID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$pull": bson.M{"comments": bson.M{"id": commentID}},
		"$inc":  bson.M{"comments_count": -1},
	})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) AddReply(ctx context.Context, postID string, commentID primitive.ObjectID, reply *models.Reply) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	reply.ID = primitive.NewObjectID()
	reply.CreatedAt = time.Now()
	if reply.Likes == nil {
		reply.Likes = []uint{}
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "comments.id": commentID},
		bson.M{"$push": bson.M{"comments.$.replies": reply}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) RemoveReply(ctx context.Context, postID string, commentID, replyID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$pull": bson.M{"comments.$[c].replies": bson.M{"id": replyID}}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"c.id": commentID}},
		}),
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCommentLike adds userID to the comment's like set. Returns false when
// the user already liked the comment (the filter excludes that case, so the
// write matches nothing).
func (r *MongoPostRepository) AddCommentLike(ctx context.Context, postID string, commentID primitive.ObjectID, userID uint) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return false, ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "comments": bson.M{"$elemMatch": bson.M{"id": commentID, "likes": bson.M{"$ne": userID}}}},
		bson.M{"$addToSet": bson.M{"comments.$.likes": userID}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoPostRepository) RemoveCommentLike(ctx context.Context, postID string, commentID primitive.ObjectID, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "comments.id": commentID},
		bson.M{"$pull": bson.M{"comments.$.likes": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
