package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"field-service-server/config"
	"field-service-server/types"
)

const tokenIssuer = "field-service-server"

// JWTService handles staff token operations
type JWTService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		expiry: time.Duration(cfg.ExpiryHours) * time.Hour,
		now:    time.Now,
	}
}

// TokenResponse is an issued access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// GenerateAccessToken signs a token binding a staff user to a tenant
func (js *JWTService) GenerateAccessToken(userID, tenantID uint, role string) (*TokenResponse, error) {
	if tenantID == 0 {
		return nil, errors.New("tenant id is required")
	}
	if role == "" {
		role = types.RoleDispatcher
	}

	now := js.now()
	claims := &types.Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(js.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(js.secret)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: tokenString,
		ExpiresIn:   int64(js.expiry.Seconds()),
		TokenType:   "Bearer",
	}, nil
}

// ValidateAccessToken parses a token and returns its claims
func (js *JWTService) ValidateAccessToken(tokenString string) (*types.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &types.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return js.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(js.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*types.Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TenantID == 0 {
		return nil, errors.New("token is not bound to a tenant")
	}
	return claims, nil
}

// GenerateSecureSecret generates a cryptographically secure JWT secret
func GenerateSecureSecret() (string, error) {
	bytes := make([]byte, 64)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
