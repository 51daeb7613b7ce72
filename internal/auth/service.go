package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"shopcart/internal/email"
	"shopcart/internal/models"
	"shopcart/internal/token"
	"shopcart/internal/user"

	"golang.org/x/crypto/bcrypt"
)

// resetTokenValidity is how long a password reset link stays usable.
const resetTokenValidity = 1 * time.Hour

// Service orchestrates login, registration, profile access, and the
// password reset flow. All state lives in the two repositories; the service
// itself holds no mutable state between calls.
type Service struct {
	users       user.Repository
	tokens      token.Repository
	mail        email.Sender
	issuer      *TokenIssuer
	frontendURL string
	now         func() time.Time
}

// NewService creates the auth service.
func NewService(users user.Repository, tokens token.Repository, mail email.Sender, issuer *TokenIssuer, frontendURL string) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		mail:        mail,
		issuer:      issuer,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

// Session is a signed token plus the profile it belongs to.
type Session struct {
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

// UpdateProfileRequest carries the fields a PATCH may change. Password is
// optional: the stored hash is rewritten only when a new password is given.
type UpdateProfileRequest struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     string    `json:"password,omitempty"`
	RegisterDate time.Time `json:"registerDate"`
	Street       string    `json:"street"`
	City         string    `json:"city"`
	Phone        string    `json:"phone"`
}

// Login verifies credentials and returns a fresh session.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*Session, error) {
	if emailAddr == "" || password == "" {
		return nil, ErrMissingFields
	}

	u, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if err == user.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.issuer.Issue(u.ID.Hex(), u.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("could not sign the token: %w", err)
	}

	return &Session{Token: tok, User: u.Profile()}, nil
}

// Register creates a new user and returns a session scoped to it. The
// profile in the response carries id, name, and email only.
func (s *Service) Register(ctx context.Context, emailAddr, password, name string) (*Session, error) {
	if emailAddr == "" || password == "" || name == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	newUser := &models.User{
		Name:         name,
		Email:        emailAddr,
		PasswordHash: string(hash),
		RegisterDate: s.now(),
	}
	saved, err := s.users.Insert(ctx, newUser)
	if err != nil {
		return nil, err
	}

	tok, err := s.issuer.Issue(saved.ID.Hex(), saved.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("could not sign the token: %w", err)
	}

	return &Session{
		Token: tok,
		User: models.Profile{
			ID:    saved.ID.Hex(),
			Name:  saved.Name,
			Email: saved.Email,
		},
	}, nil
}

// GetProfile returns the user projection for id, without the password hash.
func (s *Service) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// UpdateProfile replaces the profile fields of the user with id and returns
// the updated projection. When req.Password is non-empty the password is
// re-hashed with a fresh salt; otherwise the stored hash is left untouched.
func (s *Service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*models.Profile, error) {
	upd := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		RegisterDate: req.RegisterDate,
		Street:       req.Street,
		City:         req.City,
		Phone:        req.Phone,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		upd.PasswordHash = string(hash)
	}

	if err := s.users.UpdateProfile(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// RequestPasswordReset issues a single-use reset token for the user with the
// given email and mails them a link embedding it.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	u, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	value, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	t := &models.ResetToken{
		Token:   value,
		Email:   u.Email,
		Expires: s.now().Add(resetTokenValidity),
	}
	if err := s.tokens.Insert(ctx, t); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/auth/reset-password/%s", s.frontendURL, value)
	if err := s.mail.SendPasswordResetEmail(u.Email, resetLink); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	log.Printf("Password reset email sent to %s", u.Email)
	return nil
}

// RedeemPasswordReset consumes a reset token and sets the new password on
// the associated user. The token is removed atomically with the lookup, so
// of two concurrent redemptions exactly one succeeds.
func (s *Service) RedeemPasswordReset(ctx context.Context, value, newPassword string) error {
	if value == "" || newPassword == "" {
		return ErrMissingFields
	}

	t, err := s.tokens.Redeem(ctx, value, s.now())
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if err := s.users.UpdatePasswordByEmail(ctx, t.Email, string(hash)); err != nil {
		return err
	}
	log.Printf("Password for %s reset successfully", t.Email)
	return nil
}

// ListUsers returns the projections of every user, for the admin list view.
func (s *Service) ListUsers(ctx context.Context) ([]models.Profile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}

// DeleteUser removes the user with id. Reset tokens issued to the user are
// not cleaned up; they expire on their own and redeeming one fails at the
// user lookup.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// generateResetToken creates a secure random token for password reset.
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
