package repositories

import (
	"context"
	"time"

	"github.com/linkupapp/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for direct-message operations
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetConversation(ctx context.Context, userA, userB uint) ([]models.Message, error)
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

func (r *MongoMessageRepository) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.Status = models.MessageStatusSent
	message.Timestamp = time.Now()
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

// GetConversation returns all messages between the pair, oldest first.
func (r *MongoMessageRepository) GetConversation(ctx context.Context, userA, userB uint) ([]models.Message, error) {
	filter := bson.M{"$or": []bson.M{
		{"sender_id": userA, "recipient_id": userB},
		{"sender_id": userB, "recipient_id": userA},
	}}
	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
