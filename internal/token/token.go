package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/shop_api/internal/apperrors"
)

// DefaultTTL matches the session cookie max-age. Expiry also lives in the
// token payload itself, so a token read outside a cookie still ages out.
const DefaultTTL = 365 * 24 * time.Hour

type Service struct {
	Secret []byte
	TTL    time.Duration
}

func (s *Service) ttl() time.Duration {
	if s.TTL != 0 {
		return s.TTL
	}
	return DefaultTTL
}

func (s *Service) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl()).Unix(),
		"jti": uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.Secret)
}

func (s *Service) Verify(raw string) (uint, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	if !t.Valid {
		return 0, apperrors.ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: cannot parse claims", apperrors.ErrInvalidToken)
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid subject claim", apperrors.ErrInvalidToken)
	}
	return uint(sub), nil
}
