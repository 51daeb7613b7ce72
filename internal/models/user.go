package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered shop user.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	IsAdmin      bool               `bson:"is_admin,omitempty"`
	RegisterDate time.Time          `bson:"register_date"`
	Street       string             `bson:"street,omitempty"`
	City         string             `bson:"city,omitempty"`
	Phone        string             `bson:"phone,omitempty"`
}

// Profile is the projection of a User returned over the API. It never
// carries the password hash.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	// Pointer so the minimal registration projection omits it entirely.
	RegisterDate *time.Time `json:"registerDate,omitempty"`
	Street       string     `json:"street,omitempty"`
	City         string     `json:"city,omitempty"`
	Phone        string     `json:"phone,omitempty"`
}

// Profile returns the API projection of u.
func (u *User) Profile() Profile {
	rd := u.RegisterDate
	return Profile{
		ID:           u.ID.Hex(),
		Name:         u.Name,
		Email:        u.Email,
		IsAdmin:      u.IsAdmin,
		RegisterDate: &rd,
		Street:       u.Street,
		City:         u.City,
		Phone:        u.Phone,
	}
}
