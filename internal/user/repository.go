package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("no user found")

// ErrDuplicateEmail is returned when an insert collides with an existing email.
var ErrDuplicateEmail = errors.New("user already exists")

// Repository is the persistence interface for user records.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, u *models.User) error
	UpdatePasswordByID(ctx context.Context, id, hash string) error
	UpdatePasswordByEmail(ctx context.Context, email, hash string) error
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

const opTimeout = 5 * time.Second

// MongoRepository stores users in a MongoDB collection.
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a user repository backed by col.
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &u, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var u models.User
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &u, nil
}

func (r *MongoRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("error inserting user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return u, nil
}

// UpdateProfile replaces the profile fields of the record with id. The
// password hash is rewritten only when u carries a non-empty one.
func (r *MongoRepository) UpdateProfile(ctx context.Context, id string, u *models.User) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	set := bson.M{
		"name":          u.Name,
		"email":         u.Email,
		"register_date": u.RegisterDate,
		"street":        u.Street,
		"city":          u.City,
		"phone":         u.Phone,
	}
	if u.PasswordHash != "" {
		set["password"] = u.PasswordHash
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) UpdatePasswordByID(ctx context.Context, id, hash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	return r.updatePassword(ctx, bson.M{"_id": oid}, hash)
}

func (r *MongoRepository) UpdatePasswordByEmail(ctx context.Context, email, hash string) error {
	return r.updatePassword(ctx, bson.M{"email": email}, hash)
}

func (r *MongoRepository) updatePassword(ctx context.Context, filter bson.M, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"password": hash}})
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	return users, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
