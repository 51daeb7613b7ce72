package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect establishes a connection to MongoDB and returns the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	// Ping the database to verify connection.
	ctxPing, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing, nil); err != nil {
		return nil, err
	}
	log.Println("Connected to MongoDB")
	return client, nil
}

// UserCollection returns the MongoDB collection for users.
func UserCollection(client *mongo.Client, db string) *mongo.Collection {
	return client.Database(db).Collection("users")
}

// ResetTokenCollection returns the MongoDB collection for password reset tokens.
func ResetTokenCollection(client *mongo.Client, db string) *mongo.Collection {
	return client.Database(db).Collection("reset_tokens")
}

// EnsureIndexes creates the indexes the stores rely on: a unique index on
// user email, and a TTL index so expired reset tokens are purged by the
// server instead of accumulating.
func EnsureIndexes(ctx context.Context, client *mongo.Client, db string) error {
	users := UserCollection(client, db)
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	tokens := ResetTokenCollection(client, db)
	_, err = tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}
