package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"capledger/internal/platform/middleware"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
)

const tokenIssuer = "capledger"

// Claims are the JWT claims carried by access tokens. ShareholderID is empty
// for admin actors.
type Claims struct {
	Role          string `json:"role"`
	ShareholderID string `json:"shareholder_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService signs and validates HS256 access tokens. It satisfies the
// middleware.TokenValidator interface.
type JWTService struct {
	signingKey []byte
	ttl        time.Duration
}

func NewJWTService(signingKey string, ttl time.Duration) *JWTService {
	return &JWTService{signingKey: []byte(signingKey), ttl: ttl}
}

func (s *JWTService) TTL() time.Duration { return s.ttl }

func (s *JWTService) GenerateToken(userID id.UserID, role id.Role, shareholderID id.ShareholderID, now time.Time) (string, error) {
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
		},
	}
	if !shareholderID.IsNil() {
		claims.ShareholderID = shareholderID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	result := &middleware.TokenClaims{UserID: userID, Role: role}
	if claims.ShareholderID != "" {
		sid, err := id.ParseShareholderID(claims.ShareholderID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
		result.ShareholderID = sid
	}
	return result, nil
}
