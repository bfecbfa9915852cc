package services

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/models"
)

// TokenIssuer identifies the service that issues all access/refresh tokens.
const TokenIssuer = "Ienerzy"

// AccessClaims is the decoded identity carried by an access token.
type AccessClaims struct {
	UserID     uuid.UUID
	Phone      string
	Role       string
	IsConsumer bool
	ExpiresAt  time.Time
}

// ---------------------------------------------------------------------
// TokenService interface
// ---------------------------------------------------------------------

type TokenService interface {
	GenerateAccessToken(identity models.Identity) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (string, error)

	// ParseAccessToken verifies signature and standard claims. An expired
	// signature surfaces as jwt.ErrTokenExpired so callers can hint
	// "refresh or re-login" instead of a generic rejection.
	ParseAccessToken(tokenString string) (*AccessClaims, error)

	// ParseRefreshToken verifies signature and the type=refresh claim and
	// returns the subject.
	ParseRefreshToken(tokenString string) (uuid.UUID, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type tokenService struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	tokenExpiry   time.Duration
	refreshExpiry time.Duration
}

func NewTokenService(cfg *config.Config) TokenService {
	return &tokenService{
		privateKey:    cfg.RSAPrivateKey,
		publicKey:     cfg.RSAPublicKey,
		tokenExpiry:   cfg.TokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
	}
}

func (t *tokenService) GenerateAccessToken(identity models.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":        TokenIssuer,
		"sub":        identity.ID.String(),
		"phone":      identity.Phone,
		"role":       identity.Role,
		"isConsumer": identity.IsConsumer,
		"exp":        now.Add(t.tokenExpiry).Unix(),
		"iat":        now.Unix(),
		"jti":        uuid.NewString(),
	}
	return t.signClaims(claims)
}

func (t *tokenService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  TokenIssuer,
		"sub":  userID.String(),
		"type": "refresh",
		"exp":  now.Add(t.refreshExpiry).Unix(),
		"iat":  now.Unix(),
		"jti":  uuid.NewString(),
	}
	return t.signClaims(claims)
}

func (t *tokenService) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims, err := t.parse(tokenString)
	if err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("invalid subject claim")
	}

	phone, _ := claims["phone"].(string)
	role, _ := claims["role"].(string)
	isConsumer, _ := claims["isConsumer"].(bool)
	exp, _ := claims["exp"].(float64)

	return &AccessClaims{
		UserID:     userID,
		Phone:      phone,
		Role:       role,
		IsConsumer: isConsumer,
		ExpiresAt:  time.Unix(int64(exp), 0),
	}, nil
}

func (t *tokenService) ParseRefreshToken(tokenString string) (uuid.UUID, error) {
	claims, err := t.parse(tokenString)
	if err != nil {
		return uuid.Nil, err
	}

	if typ, _ := claims["type"].(string); typ != "refresh" {
		return uuid.Nil, errors.New("not a refresh token")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.New("invalid subject claim")
	}
	return userID, nil
}

func (t *tokenService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.publicKey, nil
	})
	if err != nil {
		// jwt/v5 wraps ErrTokenExpired; keep it visible to callers.
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if iss, _ := claims["iss"].(string); iss != TokenIssuer {
		return nil, errors.New("invalid token issuer")
	}

	return claims, nil
}

func (t *tokenService) signClaims(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(t.privateKey)
}
