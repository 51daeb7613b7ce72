package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotRedeemable is returned when no live token matches a redemption
// attempt: the value was never issued, already redeemed, or has expired.
var ErrNotRedeemable = errors.New("token is not valid")

// Repository is the persistence interface for password reset tokens.
type Repository interface {
	Insert(ctx context.Context, t *models.ResetToken) error
	// Redeem removes and returns the unexpired token with the given value.
	// The find-and-remove is a single atomic operation: of two concurrent
	// redemptions of the same value, exactly one succeeds.
	Redeem(ctx context.Context, value string, now time.Time) (*models.ResetToken, error)
}

const opTimeout = 5 * time.Second

// MongoRepository stores reset tokens in a MongoDB collection.
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a reset token repository backed by col.
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, t *models.ResetToken) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("error inserting reset token: %w", err)
	}
	return nil
}

// Redeem uses FindOneAndDelete so the lookup and the removal happen in one
// round trip; expired tokens simply never match the filter.
func (r *MongoRepository) Redeem(ctx context.Context, value string, now time.Time) (*models.ResetToken, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	filter := bson.M{
		"token":   value,
		"expires": bson.M{"$gt": now},
	}
	var t models.ResetToken
	err := r.col.FindOneAndDelete(ctx, filter).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotRedeemable
		}
		return nil, fmt.Errorf("error redeeming reset token: %w", err)
	}
	return &t, nil
}
