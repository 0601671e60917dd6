package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/team-roster/models"
	"github.com/Dosada05/team-roster/repositories"
	"github.com/Dosada05/team-roster/sessions"
	"github.com/Dosada05/team-roster/utils"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"
)

const (
	accessTokenName = "auth_token"
	defaultCacheTTL = 5 * time.Minute
)

type AuthService interface {
	// Login exchanges credentials for a signed bearer token.
	Login(ctx context.Context, input LoginInput) (string, error)
	// Authenticate resolves a bearer token to its user. Any failure is ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*Principal, error)
	Logout(ctx context.Context, tokenID string) error
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type LoginInput struct {
	Email    string
	Password string
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User    *models.User
	TokenID string
}

type AuthConfig struct {
	JWTSecret  []byte
	TokenTTL   time.Duration
	BcryptCost int
	// CacheTTL bounds how long a cached token owner is trusted before the
	// access_tokens row is read again. Revocation markers live as long.
	CacheTTL time.Duration
	Logger   *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

type authService struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.AccessTokenRepository
	cache     sessions.Cache
	validate  *validator.Validate
	cfg       AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepository,
	tokenRepo repositories.AccessTokenRepository,
	cache sessions.Cache,
	cfg AuthConfig,
) AuthService {
	if cache == nil {
		cache = sessions.NewNoopCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		cache:     cache,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (string, error) {
	verr := &ValidationError{}
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		verr.Add("email", "The email field is required.")
	} else if s.validate.Var(email, "email") != nil {
		verr.Add("email", "The email field must be a valid email address.")
	}
	if input.Password == "" {
		verr.Add("password", "The password field is required.")
	}
	if verr.HasErrors() {
		return "", verr
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", invalidCredentials()
		}
		return "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return "", invalidCredentials()
	}

	now := s.cfg.Now()
	token := &models.AccessToken{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		Name:      accessTokenName,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store access token: %w", err)
	}

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        token.ID,
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(token.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.cache.Set(ctx, token.ID, user.ID, s.cacheTTL(s.cfg.TokenTTL)); err != nil {
		s.cfg.Logger.WarnContext(ctx, "failed to cache access token", slog.String("error", err.Error()))
	}
	return signed, nil
}

func (s *authService) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	var claims tokenClaims
	// Срок действия проверяется по строке в access_tokens.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.JWTSecret, nil
	}); err != nil {
		return nil, ErrUnauthenticated
	}
	if claims.ID == "" {
		return nil, ErrUnauthenticated
	}
	subject, err := strconv.Atoi(claims.Subject)
	if err != nil || subject <= 0 {
		return nil, ErrUnauthenticated
	}

	userID, err := s.resolveTokenOwner(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if userID != subject {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}
	user.PasswordHash = ""
	return &Principal{User: user, TokenID: claims.ID}, nil
}

// resolveTokenOwner consults the cache first and falls back to the
// access_tokens row, refreshing the cache on a miss.
func (s *authService) resolveTokenOwner(ctx context.Context, tokenID string) (int, error) {
	userID, ok, err := s.cache.Get(ctx, tokenID)
	if errors.Is(err, sessions.ErrRevoked) {
		return 0, ErrUnauthenticated
	}
	if err != nil {
		s.cfg.Logger.WarnContext(ctx, "session cache lookup failed", slog.String("error", err.Error()))
	}
	if ok {
		return userID, nil
	}

	token, err := s.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return 0, ErrUnauthenticated
		}
		return 0, fmt.Errorf("failed to load access token: %w", err)
	}
	now := s.cfg.Now()
	if token.Expired(now) {
		return 0, ErrUnauthenticated
	}

	if err := s.tokenRepo.Touch(ctx, token.ID, now); err != nil {
		s.cfg.Logger.WarnContext(ctx, "failed to touch access token", slog.String("error", err.Error()))
	}
	if err := s.cache.Set(ctx, token.ID, token.UserID, s.cacheTTL(token.ExpiresAt.Sub(now))); err != nil {
		s.cfg.Logger.WarnContext(ctx, "failed to cache access token", slog.String("error", err.Error()))
	}
	return token.UserID, nil
}

// cacheTTL caps how long a cache entry may stand in for the access_tokens row.
func (s *authService) cacheTTL(remaining time.Duration) time.Duration {
	if remaining > s.cfg.CacheTTL {
		return s.cfg.CacheTTL
	}
	return remaining
}

// Logout deletes the row first, then marks the token revoked in the cache.
// A failed revocation is returned so the caller can retry; the retry skips the
// already deleted row and revokes again.
func (s *authService) Logout(ctx context.Context, tokenID string) error {
	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil && !errors.Is(err, repositories.ErrTokenNotFound) {
		return fmt.Errorf("failed to delete access token: %w", err)
	}
	if err := s.cache.Revoke(ctx, tokenID, s.cfg.CacheTTL); err != nil {
		return fmt.Errorf("failed to revoke cached access token: %w", err)
	}
	return nil
}

func (s *authService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	verr := &ValidationError{}
	name := requireName(verr, "name", "name", input.Name)

	email := utils.NormalizeEmail(input.Email)
	switch {
	case email == "":
		verr.Add("email", "The email field is required.")
	case s.validate.Var(email, "email") != nil:
		verr.Add("email", "The email field must be a valid email address.")
	case len(email) > maxNameLength:
		verr.Add("email", "The email field must not be greater than 255 characters.")
	}

	switch {
	case input.Password == "":
		verr.Add("password", "The password field is required.")
	case len(input.Password) < 8:
		verr.Add("password", "The password field must be at least 8 characters.")
	case s.validate.Var(input.Password, "alphanum") != nil:
		verr.Add("password", "The password field must only contain letters and numbers.")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hash, err := utils.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, (&ValidationError{}).Add("email", ErrUserEmailTaken.Error())
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokenRepo.PurgeExpired(ctx, s.cfg.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired tokens: %w", err)
	}
	return n, nil
}

func invalidCredentials() error {
	return (&ValidationError{Message: ErrInvalidCredentials.Error()}).Add("email", ErrInvalidCredentials.Error())
}
