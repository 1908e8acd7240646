package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// AuthConfig carries the token parameters the auth service needs.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// AuthService implements email/password registration and login, access
// token issuance, and refresh token rotation.
type AuthService struct {
	users  user.Repository
	tokens user.TokenRepository
	cfg    AuthConfig
	logger *slog.Logger

	now func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(users user.Repository, tokens user.TokenRepository, cfg AuthConfig, logger *slog.Logger) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}

	return &AuthService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TokenPair is an access token plus the refresh token that renews it.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthResult is the outcome of register, login, and refresh.
type AuthResult struct {
	User   *user.User
	Tokens TokenPair
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a user and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if len(in.Password) < 8 {
		return nil, shared.NewDomainError("auth", "Register", shared.ErrInvalidInput, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
	})
	if err != nil {
		return nil, shared.WrapError("auth", "Register", shared.ErrInvalidInput, "invalid user", err)
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", u.ID))

	return &AuthResult{User: u, Tokens: tokens}, nil
}

// Login verifies credentials and signs the user in. Wrong email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrWrongCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrWrongCredentials
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: u, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new token pair. The presented
// token is consumed; reusing it afterwards fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	stored, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored.Expired(s.now()) {
		_ = s.tokens.DeleteByToken(ctx, refreshToken)
		return nil, shared.ErrRefreshTokenInvalid
	}

	u, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: u, Tokens: tokens}, nil
}

// Logout invalidates one refresh token. Unknown tokens succeed silently.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.DeleteByToken(ctx, refreshToken)
}

// LogoutAll invalidates every refresh token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.tokens.DeleteForUser(ctx, userID)
}

// PurgeExpiredTokens removes expired refresh tokens. Called by the
// scheduler.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx, s.now())
}

func (s *AuthService) issueTokens(ctx context.Context, u *user.User) (TokenPair, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTokenTTL)

	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.tokens.Save(ctx, &user.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     refresh,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// randomToken returns a 256-bit hex token.
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
