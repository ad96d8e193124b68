package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jotter-dev/jotter/internal/cache"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// Claims is the validated view of a parsed token.
type Claims struct {
	UserID    uint
	Email     string
	JTI       string
	TokenType string
	ExpiresAt time.Time
}

// TokenService issues HS256 access/refresh pairs and tracks revocations in
// the cache store. The access token shares its refresh token's jti, so
// revoking the refresh token also invalidates access tokens issued with it.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	rotate     bool
	store      *cache.Store
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, rotate bool, store *cache.Store) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		rotate:     rotate,
		store:      store,
	}
}

func (t *TokenService) IssuePair(userID uint, email string) (*TokenPair, error) {
	jti := uuid.NewString()

	accessToken, err := t.sign(userID, email, jti, TokenTypeAccess, t.accessTTL)

	if err != nil {
		return nil, err
	}

	refreshToken, err := t.sign(userID, email, jti, TokenTypeRefresh, t.refreshTTL)

	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}

func (t *TokenService) sign(userID uint, email, jti, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"jti":     jti,
		"typ":     tokenType,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenService) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return nil, ErrInvalidToken
	}

	userIDFloat, ok := mapClaims["user_id"].(float64)

	if !ok {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: uint(userIDFloat)}

	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}

	if jti, ok := mapClaims["jti"].(string); ok {
		claims.JTI = jti
	}

	if tokenType, ok := mapClaims["typ"].(string); ok {
		claims.TokenType = tokenType
	}

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}

// Refresh exchanges a valid refresh token for a new access token. With
// rotation enabled the pair gets a fresh jti and a new refresh token is
// returned alongside. The revocation store is deliberately not consulted
// here; revocation gates only bearer-authenticated requests.
func (t *TokenService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := t.Parse(refreshToken)

	if err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	if t.rotate {
		return t.IssuePair(claims.UserID, claims.Email)
	}

	accessToken, err := t.sign(claims.UserID, claims.Email, claims.JTI, TokenTypeAccess, t.accessTTL)

	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}

// Revoke blacklists a refresh token's jti for its remaining lifetime. An
// already-expired token is a no-op success.
func (t *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := t.Parse(refreshToken)

	if err != nil {
		return err
	}

	if claims.TokenType != TokenTypeRefresh || claims.JTI == "" || claims.ExpiresAt.IsZero() {
		return ErrInvalidToken
	}

	remaining := time.Until(claims.ExpiresAt)

	if remaining <= 0 {
		return nil
	}

	return t.store.RevokeToken(ctx, claims.JTI, remaining)
}

func (t *TokenService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	return t.store.IsTokenRevoked(ctx, jti)
}
