package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

// JWT-related errors.
var (
	// ErrInvalidToken indicates the token is malformed, has a bad signature,
	// or fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrTokenSigningFailed indicates token signing failed.
	ErrTokenSigningFailed = errors.New("failed to sign token")

	// ErrInvalidSecretLength indicates the JWT secret is too short.
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// MinSecretLength is the minimum number of characters for the signing secret.
const MinSecretLength = 32

// issuer identifies tokens minted by this server.
const issuer = "sftp-connector"

// JWTService issues and validates HMAC-SHA256 signed bearer tokens.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// NewJWTService creates a JWTService. The secret must be at least
// MinSecretLength characters; expiry must be positive.
func NewJWTService(secret string, expiry time.Duration) (*JWTService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrInvalidSecretLength
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("token expiry must be positive, got %v", expiry)
	}
	return &JWTService{secret: []byte(secret), expiry: expiry}, nil
}

// Expiry returns the configured token lifetime.
func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}

// GenerateToken issues a signed token for the given user. The returned expiry
// is the token's absolute expiration time.
func (s *JWTService) GenerateToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrTokenSigningFailed, err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature and standard claims of a token and
// returns its payload.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
