package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTypeAccess marks short-lived API tokens.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks long-lived tokens that can only mint access tokens.
	TokenTypeRefresh = "refresh"

	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour
	issuer             = "saveit"
)

// Claims represents the claims in the JWT
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer for secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// GenerateAccessToken generates a short-lived access token for a user.
func (i *Issuer) GenerateAccessToken(userID, email string) (string, error) {
	return i.generate(userID, email, TokenTypeAccess, accessTokenExpiry)
}

// GenerateRefreshToken generates a long-lived refresh token for a user.
func (i *Issuer) GenerateRefreshToken(userID, email string) (string, error) {
	return i.generate(userID, email, TokenTypeRefresh, refreshTokenExpiry)
}

func (i *Issuer) generate(userID, email, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates tokenString and checks it is of wantType.
func (i *Issuer) Parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid JWT")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("invalid JWT: token is not a %s token", wantType)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("invalid JWT: missing user id")
	}
	return claims, nil
}
