package core

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// AuthService orchestrates signup and signin: it validates against the user
// store, hashes/verifies passwords, and mints identity tokens. It is the only
// place a token is issued, and it never issues one on a failed attempt.
type AuthService struct {
	users      UserRepository
	tokens     *TokenService
	bcryptCost int
}

func NewAuthService(users UserRepository, tokens *TokenService, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// SignUp creates a user and returns a fresh token for it. A duplicate email
// yields ErrEmailTaken whether detected by the pre-check or by the store's
// unique index.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (string, *User, error) {
	email = NormalizeEmail(email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return "", nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return "", nil, err
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", nil, err
	}

	rec, err := s.users.Create(ctx, uuid.NewString(), name, email, hash)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(rec.ID)
	if err != nil {
		return "", nil, err
	}
	return token, publicUser(rec), nil
}

// SignIn verifies credentials and returns a fresh token. Unknown email and
// wrong password both come back as ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *User, error) {
	rec, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !VerifyPassword(password, rec.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(rec.ID)
	if err != nil {
		return "", nil, err
	}
	return token, publicUser(rec), nil
}

// CurrentUser loads the identity behind a verified token subject.
func (s *AuthService) CurrentUser(ctx context.Context, subjectID string) (*User, error) {
	rec, err := s.users.FindByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return publicUser(rec), nil
}

func publicUser(rec *UserRecord) *User {
	return &User{ID: rec.ID, Name: rec.Name, Email: rec.Email, CreatedAt: rec.CreatedAt}
}
