// Package auth issues and verifies the JWT credentials used by both
// the API and the event stream endpoint.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the identity extracted from a verified credential.
type Claims struct {
	UserID string
	Role   models.Role
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string            `json:"access_token"`
	User        models.PublicUser `json:"user"`
}

// Service signs and verifies tokens and manages account credentials.
type Service struct {
	store  *sqlite.Store
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// NewService constructs an auth service with an HMAC signing secret.
func NewService(store *sqlite.Store, secret string, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, secret: []byte(secret), ttl: ttl, logger: logger}
}

// Register creates a new account with a hashed password.
func (s *Service) Register(ctx context.Context, email, password, name string, role models.Role) (models.PublicUser, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.PublicUser{}, apperr.BadRequest("email and password are required")
	}
	if !role.Valid() {
		return models.PublicUser{}, apperr.BadRequest("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.PublicUser{}, apperr.Internal("hash password", err)
	}

	user, err := s.store.CreateUser(ctx, models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return models.PublicUser{}, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	return user.Public(), nil
}

// Login checks the credentials and issues a signed token. Unknown
// emails and wrong passwords report the same message so accounts
// cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			s.logger.Warn("login failed, unknown email")
			return Session{}, apperr.Authentication("invalid credentials")
		}
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login failed, wrong password", slog.String("user_id", user.ID))
		return Session{}, apperr.Authentication("invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return Session{}, apperr.Internal("sign token", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	return Session{AccessToken: token, User: user.Public()}, nil
}

func (s *Service) issueToken(user models.User) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(user.ID).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Claim("role", string(user.Role)).
		Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), s.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Verify parses and validates a token and returns the identity it
// carries. Expired, malformed and wrongly signed tokens all report an
// authentication error.
func (s *Service) Verify(credential string) (Claims, error) {
	if credential == "" {
		return Claims{}, apperr.Authentication("authentication token required")
	}

	tok, err := jwt.Parse([]byte(credential), jwt.WithKey(jwa.HS256(), s.secret), jwt.WithValidate(true))
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return Claims{}, apperr.Authentication("token expired, please login again")
		}
		return Claims{}, apperr.Authentication("invalid token")
	}

	userID, ok := tok.Subject()
	if !ok || userID == "" {
		return Claims{}, apperr.Authentication("invalid token")
	}

	var role string
	if err := tok.Get("role", &role); err != nil {
		return Claims{}, apperr.Authentication("invalid token")
	}

	claims := Claims{UserID: userID, Role: models.Role(role)}
	if !claims.Role.Valid() {
		return Claims{}, apperr.Authentication("invalid token")
	}
	return claims, nil
}
