package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetToken is a single-use password reset credential. It references its
// user by email only; the token is removed the moment it is redeemed.
type ResetToken struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Token   string             `bson:"token"`
	Email   string             `bson:"email"`
	Expires time.Time          `bson:"expires"`
}
