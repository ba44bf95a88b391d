package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message delivery states.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// Message is a direct message stored in MongoDB. Creation is gated by a
// mutual accepted follow between sender and recipient.
type Message struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SenderID    uint               `json:"sender_id" bson:"sender_id"`
	RecipientID uint               `json:"recipient_id" bson:"recipient_id"`
	Ciphertext  string             `json:"ciphertext" bson:"ciphertext"`
	Status      string             `json:"status" bson:"status"`
	Timestamp   time.Time          `json:"timestamp" bson:"timestamp"`
}

// SendMessageRequest defines the request body for sending a direct message.
type SendMessageRequest struct {
	RecipientID uint   `json:"recipient_id" validate:"required"`
	Ciphertext  string `json:"ciphertext" validate:"required"`
}
