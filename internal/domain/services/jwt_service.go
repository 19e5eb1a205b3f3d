package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/config"
	"actrec-directory/internal/infrastructure/store"

	"github.com/golang-jwt/jwt/v4"
)

// Principal is the authenticated caller
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// InterfaceJWTService defines the token issuer and verifier
type InterfaceJWTService interface {
	GenerateToken(account *models.Account) (string, time.Time, error)
	Authenticate(bearer string) (*Principal, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// JWTService issues and verifies HS256 tokens
type JWTService struct {
	secretKey   string
	issuer      string
	ttl         time.Duration
	Store       store.Store
	Credentials InterfaceCredentialService
}

// JWTClaims carries the principal; the subject is the account id
type JWTClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTService creates a JWT service
func NewJWTService(cfg *config.Config, s store.Store, credentials InterfaceCredentialService) InterfaceJWTService {
	ttl := cfg.JWTTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{
		secretKey:   cfg.JWTSecretKey,
		issuer:      "actrec-directory",
		ttl:         ttl,
		Store:       s,
		Credentials: credentials,
	}
}

// 1 GenerateToken signs a token for account
func (s *JWTService) GenerateToken(account *models.Account) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := &JWTClaims{
		Email: account.Email,
		Role:  account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// 2 Authenticate verifies a bearer credential. The "Bearer " prefix is optional.
func (s *JWTService) Authenticate(bearer string) (*Principal, error) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(bearer), "Bearer "))
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || !models.ValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: missing subject or role", ErrInvalidToken)
	}

	return &Principal{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// 3 Login checks email and password against the account table
func (s *JWTService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.Store.FindAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if account.PasswordHash == "" || !s.Credentials.Verify(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateToken(account)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    account.ID,
		Email:     account.Email,
		Role:      account.Role,
	}, nil
}
