package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/policy"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the payload of Register.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult pairs a user with a freshly issued access token.
type AuthResult struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

// AuthService handles registration, login and bearer token verification.
type AuthService struct {
	userRepo      repositories.UserRepository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new AuthService issuing tokens valid for ttl.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: ttl,
	}
}

// Register creates an active USER account and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("Email %s is already registered", email)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      models.RoleUser,
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Email %s is already registered", email)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: token}, nil
}

// Login checks the credentials of an active user and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Unauthenticated("Invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated("Account is blocked")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.Unauthenticated("Invalid credentials")
	}

	// Each login invalidates the tokens issued before it.
	version, err := s.userRepo.BumpTokenVersion(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate token version: %w", err)
	}
	user.TokenVersion = version

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: token}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":       user.ID,
		"email":         user.Email,
		"role":          string(user.Role),
		"token_version": user.TokenVersion,
		"exp":           now.Add(s.tokenDuration).Unix(),
		"iat":           now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies an HS256 token and resolves its subject against the
// stored account. Blocked or deleted users and tokens issued before the latest
// login are rejected; the role always comes from the stored account.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (policy.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return policy.Principal{}, apperrors.Unauthenticated("Invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return policy.Principal{}, apperrors.Unauthenticated("Invalid token")
	}
	userID, _ := claims["user_id"].(string)
	version, hasVersion := claims["token_version"].(float64)
	if userID == "" || !hasVersion {
		return policy.Principal{}, apperrors.Unauthenticated("Invalid token claims")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return policy.Principal{}, apperrors.Unauthenticated("User no longer exists")
		}
		return policy.Principal{}, err
	}
	if !user.IsActive {
		return policy.Principal{}, apperrors.Unauthenticated("Account is blocked")
	}
	if int(version) != user.TokenVersion {
		return policy.Principal{}, apperrors.Unauthenticated("Token has been revoked")
	}
	return policy.Principal{ID: user.ID, Role: user.Role}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
