//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/arunprabus/health-api/internal/hashutil"
	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/repository"
	"github.com/arunprabus/health-api/pkg/logger"
)

const (
	keyJWTSecret      = "auth.jwt_secret"
	tokenIssuer       = "health-api"
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt input limit
	defaultTokenTTL   = 7 * 24 * time.Hour
)

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Principal, error)
}

type AuthService interface {
	Authenticator
	Signup(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	CurrentUser(ctx context.Context, id string) (*model.User, error)
}

type AuthResponse struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

type AuthConfig struct {
	// Secret signs local tokens; when empty one is generated and kept in settings.
	Secret string
	TTL    time.Duration
}

type authService struct {
	users    repository.UserRepository
	settings repository.SettingsRepository
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	secret []byte
}

func NewAuthService(users repository.UserRepository, settings repository.SettingsRepository, cfg AuthConfig) AuthService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	s := &authService{users: users, settings: settings, ttl: ttl, now: time.Now}
	if cfg.Secret != "" {
		s.secret = []byte(cfg.Secret)
	}
	return s
}

func (s *authService) Signup(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: &hashStr,
		Provider:     model.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := model.Profile{
		ID:        user.ID,
		Name:      emailLocalPart(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("user signed up", "module", "service", "action", "create", "resource", "user", "result", "ok", "user_id", user.ID)
	return &user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || user.PasswordHash == nil {
		// Unknown or provider-managed account. The address is logged only as a digest.
		logger.Warn("login rejected", "module", "service", "action", "login", "resource", "user", "result", "failed", "email_sha256", hashutil.SHA256Hex(email))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		logger.Warn("login rejected", "module", "service", "action", "login", "resource", "user", "result", "failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

func (s *authService) CurrentUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	secret, err := s.signingSecret(ctx)
	if err != nil {
		return nil, err
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.Provider != model.ProviderLocal {
		return nil, ErrInvalidToken
	}
	return principalFromUser(user), nil
}

func (s *authService) issueToken(ctx context.Context, userID string) (string, time.Time, error) {
	secret, err := s.signingSecret(ctx)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// signingSecret loads the persisted secret, creating it on first use.
func (s *authService) signingSecret(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.secret != nil {
		return s.secret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	stored, err := s.settings.SetIfAbsent(ctx, keyJWTSecret, hex.EncodeToString(buf))
	if err != nil {
		return nil, fmt.Errorf("store secret: %w", err)
	}
	s.secret = []byte(stored)
	return s.secret, nil
}

func principalFromUser(user *model.User) *model.Principal {
	p := &model.Principal{ID: user.ID, Email: user.Email, Provider: user.Provider}
	if user.Username != nil {
		p.Username = *user.Username
	}
	return p
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fieldRequired("email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "", fieldInvalid("email", "must be a valid email")
	}
	return email, nil
}

func validatePassword(password string) error {
	if password == "" {
		return fieldRequired("password")
	}
	if len(password) < minPasswordLength {
		return fieldInvalid("password", "length must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fieldInvalid("password", "length must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func emailLocalPart(email string) string {
	if i := strings.LastIndex(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
