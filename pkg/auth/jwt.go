package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of a session token.
const DefaultTTL = 15 * 24 * time.Hour

var (
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims is the session token payload.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateToken(id, role string) (string, error)
	ValidateToken(token string) (*Claims, error)
	TTL() time.Duration
}

type jwtService struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, ttl time.Duration) JWTService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &jwtService{secret: secret, ttl: ttl, now: time.Now}
}

func (s *jwtService) GenerateToken(id, role string) (string, error) {
	return GenerateToken(id, role, s.secret, s.ttl, s.now())
}

func (s *jwtService) ValidateToken(token string) (*Claims, error) {
	return ValidateToken(token, s.secret)
}

func (s *jwtService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken signs an HS256 token for the identity.
func GenerateToken(id, role, secret string, ttl time.Duration, issuedAt time.Time) (string, error) {
	claims := Claims{
		ID:   id,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry. It holds no state beyond
// the secret passed in.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
