package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	AddUser(u *User) error
	FindUserByEmail(email string) (*User, error)
	GetUser(id string) (*User, error)
}

// TokenSigner mints a session token for an authenticated user. Signing
// lives outside the service so the JWT secret stays at the edge.
type TokenSigner func(userID, role, email string, signedUp time.Time) (string, error)

type AuthService struct {
	store UserStore
	sign  TokenSigner
	now   func() time.Time
	idGen func() string
}

func NewAuthService(store UserStore, sign TokenSigner) *AuthService {
	return &AuthService{
		store: store,
		sign:  sign,
		now:   time.Now,
		idGen: func() string { return shortID(12) },
	}
}

// Register creates a participant account and returns a signed token.
// Admin accounts are provisioned by the seed tool, never through here.
func (s *AuthService) Register(email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", NewInvalidError("a valid email is required")
	}
	if len(password) < 8 {
		return nil, "", NewInvalidError("password must be at least 8 characters")
	}
	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, "", storeErr(err)
	}
	if existing != nil {
		return nil, "", NewConflictError("an account with this email already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user := &User{
		ID:        s.idGen(),
		Email:     email,
		PassHash:  hash,
		Role:      "user",
		CreatedAt: s.now(),
	}
	if err := s.store.AddUser(user); err != nil {
		return nil, "", storeErr(err)
	}
	token, err := s.sign(user.ID, user.Role, user.Email, user.CreatedAt)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Me resolves the caller's account from the store rather than echoing token
// claims, so a deleted account stops resolving even while its token is
// still within TTL.
func (s *AuthService) Me(ident Identity) (*User, error) {
	user, err := s.store.GetUser(ident.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if user == nil {
		return nil, NewUnauthorizedError("account no longer exists")
	}
	return user, nil
}

// Login verifies credentials and returns a signed token. Failures are
// deliberately indistinct between unknown email and wrong password.
func (s *AuthService) Login(email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, "", storeErr(err)
	}
	if user == nil {
		return nil, "", NewUnauthorizedError("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)) != nil {
		return nil, "", NewUnauthorizedError("invalid email or password")
	}
	token, err := s.sign(user.ID, user.Role, user.Email, user.CreatedAt)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
