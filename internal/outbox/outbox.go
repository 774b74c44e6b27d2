package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusPending marks an email the delivery worker has not sent yet.
const StatusPending = "pending"

// Email is a rendered email waiting for delivery.
type Email struct {
	// ID is derived from Type, UserID and Period, so each user gets at most
	// one email of a type per period.
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	To        string    `bson:"to"`
	Type      string    `bson:"type"`
	Period    string    `bson:"period"`
	Subject   string    `bson:"subject"`
	HTML      string    `bson:"html"`
	Error     string    `bson:"error,omitempty"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Key returns the document ID for an email.
func Key(emailType, userID, period string) string {
	return emailType + ":" + userID + ":" + period
}

// MongoOutbox stores emails in MongoDB.
type MongoOutbox struct {
	provider CollectionProvider
	now      func() time.Time
}

// NewMongoOutbox creates a new MongoOutbox.
func NewMongoOutbox(provider CollectionProvider) *MongoOutbox {
	return &MongoOutbox{provider: provider, now: time.Now}
}

// Enqueue stores email unless one with the same key is already queued.
// It reports whether the email was new.
func (o *MongoOutbox) Enqueue(ctx context.Context, email *Email) (bool, error) {
	if email.ID == "" {
		email.ID = Key(email.Type, email.UserID, email.Period)
	}
	if email.Status == "" {
		email.Status = StatusPending
	}
	if email.CreatedAt.IsZero() {
		email.CreatedAt = o.now().UTC()
	}

	collection := o.provider.Collection(EmailsCollection)
	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": email.ID},
		bson.M{"$setOnInsert": email},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue email %s: %w", email.ID, err)
	}
	return result.UpsertedCount > 0, nil
}

// LogOutbox logs emails instead of storing them. It is used when no
// MongoDB is configured.
type LogOutbox struct {
	Logger *slog.Logger
}

// Enqueue logs email and always reports it as new.
func (o LogOutbox) Enqueue(ctx context.Context, email *Email) (bool, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Email ready",
		"type", email.Type,
		"user_id", email.UserID,
		"period", email.Period,
		"subject", email.Subject,
		"error", email.Error,
	)
	return true, nil
}
