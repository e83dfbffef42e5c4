package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
)

const (
	DefaultIssuer     = "transaction-api"
	DefaultAudience   = "fintech-platform"
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Now           func() time.Time
}

var errNoRefreshKey = domainauth.Configuration("refresh token secret is not configured")

// Codec signs and verifies access and refresh tokens. Each token class has
// its own HMAC key.
type Codec struct {
	cfg           CodecConfig
	accessKey     []byte
	refreshKey    []byte
	accessParser  *jwt.Parser
	refreshParser *jwt.Parser
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" {
		return nil, domainauth.Configuration("access token secret is not configured")
	}
	if strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, domainauth.Configuration("refresh token secret is not configured")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, domainauth.Configuration("access and refresh token secrets must differ")
	}
	return newCodec(cfg), nil
}

// NewVerifier returns a Codec for services that only check access tokens.
// It holds no refresh secret, so IssueRefresh and VerifyRefresh always fail.
func NewVerifier(cfg CodecConfig) (*Codec, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" {
		return nil, domainauth.Configuration("access token secret is not configured")
	}
	cfg.RefreshSecret = ""
	return newCodec(cfg), nil
}

func newCodec(cfg CodecConfig) *Codec {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	c := &Codec{
		cfg:        cfg,
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
	}
	c.accessParser = c.newParser()
	c.refreshParser = c.newParser()
	return c
}

func (c *Codec) newParser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithAudience(c.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.cfg.Now),
	)
}

func (c *Codec) AccessTTL() time.Duration  { return c.cfg.AccessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

func (c *Codec) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := c.cfg.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    c.cfg.Issuer,
		Audience:  jwt.ClaimStrings{c.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (c *Codec) IssueAccess(id domainauth.Identity) (string, time.Time, error) {
	claims := accessClaims{
		Email:            id.Email,
		Role:             string(id.Role),
		Use:              useAccess,
		RegisteredClaims: c.registered(id.SubjectID, c.cfg.AccessTTL),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

func (c *Codec) IssueRefresh(subjectID string) (string, time.Time, error) {
	if len(c.refreshKey) == 0 {
		return "", time.Time{}, errNoRefreshKey
	}
	claims := refreshClaims{
		Use:              useRefresh,
		RegisteredClaims: c.registered(subjectID, c.cfg.RefreshTTL),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

func (c *Codec) VerifyAccess(token string) (domainauth.Identity, error) {
	var claims accessClaims
	_, err := c.accessParser.ParseWithClaims(token, &claims, c.keyFunc(c.accessKey))
	if err := classify(err, claims.Use, useAccess, claims.Subject); err != nil {
		return domainauth.Identity{}, err
	}
	role, err := domainauth.ParseRole(claims.Role)
	if err != nil {
		return domainauth.Identity{}, domainauth.ErrInvalidCredential
	}
	return domainauth.Identity{SubjectID: claims.Subject, Email: claims.Email, Role: role}, nil
}

func (c *Codec) VerifyRefresh(token string) (string, error) {
	if len(c.refreshKey) == 0 {
		return "", domainauth.ErrInvalidCredential
	}
	var claims refreshClaims
	_, err := c.refreshParser.ParseWithClaims(token, &claims, c.keyFunc(c.refreshKey))
	if err := classify(err, claims.Use, useRefresh, claims.Subject); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) keyFunc(key []byte) jwt.Keyfunc {
	return func(*jwt.Token) (any, error) { return key, nil }
}

// classify turns a parser result into ExpiredCredential only when expiry is
// the sole failing check; every other failure is InvalidCredential.
func classify(err error, use, wantUse, subject string) error {
	if err != nil {
		if onlyExpired(err) && use == wantUse && subject != "" {
			return domainauth.ErrExpiredCredential
		}
		return domainauth.ErrInvalidCredential
	}
	if use != wantUse || subject == "" {
		return domainauth.ErrInvalidCredential
	}
	return nil
}

func onlyExpired(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}
	for _, other := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}
