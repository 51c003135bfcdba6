// Package session answers "who is signed in" for the budgeting engine.
package session

import (
	"context"
	"time"

	apperrors "saveit/internal/errors"
	"saveit/internal/localcache"
)

// Storage keys for the signed-in user's tokens.
const (
	KeyAccessToken  = "auth.accessToken"
	KeyRefreshToken = "auth.refreshToken"
)

// refreshThreshold is how close to expiry an access token may get before
// GetSession refreshes it.
const refreshThreshold = 5 * time.Minute

// Session identifies the signed-in user.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Provider is the session capability. GetSession returns nil, nil when
// nobody is signed in.
type Provider interface {
	GetSession(ctx context.Context) (*Session, error)
	Refresh(ctx context.Context) (*Session, error)
	SignOut(ctx context.Context) error
}

// TokenProvider keeps the access and refresh tokens in a local Store.
type TokenProvider struct {
	issuer *Issuer
	store  localcache.Store
}

var _ Provider = (*TokenProvider)(nil)

// NewTokenProvider creates a TokenProvider.
func NewTokenProvider(issuer *Issuer, store localcache.Store) *TokenProvider {
	return &TokenProvider{issuer: issuer, store: store}
}

// SignIn issues and stores a token pair for the user.
func (p *TokenProvider) SignIn(_ context.Context, userID, email string) (*Session, error) {
	access, err := p.issuer.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refresh, err := p.issuer.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := p.store.Set(KeyAccessToken, access); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := p.store.Set(KeyRefreshToken, refresh); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return p.sessionFor(access)
}

// GetSession returns the stored session, refreshing it when it is about to
// expire. An unusable token is reported as an authentication error.
func (p *TokenProvider) GetSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	access, ok, err := p.store.Get(KeyAccessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !ok || access == "" {
		return nil, nil
	}

	s, err := p.sessionFor(access)
	if err != nil {
		// An expired access token can still be rescued by the refresh token.
		return p.Refresh(ctx)
	}
	if s.ExpiresAt.Sub(p.issuer.now()) < refreshThreshold {
		return p.Refresh(ctx)
	}
	return s, nil
}

// Refresh mints a new access token from the stored refresh token.
func (p *TokenProvider) Refresh(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refresh, ok, err := p.store.Get(KeyRefreshToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !ok || refresh == "" {
		return nil, apperrors.ErrSessionInvalid
	}

	claims, err := p.issuer.Parse(refresh, TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrAuthentication, err)
	}
	access, err := p.issuer.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := p.store.Set(KeyAccessToken, access); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return p.sessionFor(access)
}

// SignOut forgets both tokens.
func (p *TokenProvider) SignOut(_ context.Context) error {
	if err := p.store.Clear(KeyAccessToken, KeyRefreshToken); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (p *TokenProvider) sessionFor(access string) (*Session, error) {
	claims, err := p.issuer.Parse(access, TokenTypeAccess)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrAuthentication, err)
	}
	s := &Session{UserID: claims.UserID, Email: claims.Email, AccessToken: access}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
