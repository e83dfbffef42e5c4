package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec(t *testing.T, clk *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(CodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Now:           clk.Now,
	})
	require.NoError(t, err)
	return c
}

var alice = domainauth.Identity{SubjectID: "u-1", Email: "alice@example.com", Role: domainauth.RoleUser}

func TestNewCodec_RequiresSecrets(t *testing.T) {
	t.Parallel()

	cases := []CodecConfig{
		{RefreshSecret: "r"},
		{AccessSecret: "a"},
		{AccessSecret: "   ", RefreshSecret: "r"},
		{AccessSecret: "same", RefreshSecret: "same"},
	}
	for _, cfg := range cases {
		_, err := NewCodec(cfg)
		require.Error(t, err)
		assert.Equal(t, domainauth.KindConfiguration, domainauth.KindOf(err))
	}
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	token, exp, err := c.IssueAccess(alice)
	require.NoError(t, err)
	assert.Equal(t, clk.now.Add(DefaultAccessTTL), exp)

	got, err := c.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestCodec_RefreshRoundTrip(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	token, exp, err := c.IssueRefresh("u-1")
	require.NoError(t, err)
	assert.Equal(t, clk.now.Add(DefaultRefreshTTL), exp)

	sub, err := c.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", sub)
}

func TestCodec_RefreshTokensAreUnique(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	a, _, err := c.IssueRefresh("u-1")
	require.NoError(t, err)
	b, _, err := c.IssueRefresh("u-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCodec_ExpiredIsDistinctFromInvalid(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	token, _, err := c.IssueAccess(alice)
	require.NoError(t, err)

	clk.Advance(DefaultAccessTTL + time.Minute)
	_, err = c.VerifyAccess(token)
	require.ErrorIs(t, err, domainauth.ErrExpiredCredential)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
	_, err = c.VerifyAccess(tampered)
	require.ErrorIs(t, err, domainauth.ErrInvalidCredential)
}

func TestCodec_RejectsForeignTokens(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	other, err := NewCodec(CodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "someone-else",
		Now:           clk.Now,
	})
	require.NoError(t, err)

	refresh, _, err := c.IssueRefresh("u-1")
	require.NoError(t, err)
	foreign, _, err := other.IssueAccess(alice)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"refresh as access", refresh},
		{"wrong issuer", foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.VerifyAccess(tt.token)
			assert.ErrorIs(t, err, domainauth.ErrInvalidCredential)
		})
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	claims := accessClaims{
		Email:            alice.Email,
		Role:             string(alice.Role),
		Use:              useAccess,
		RegisteredClaims: c.registered(alice.SubjectID, time.Minute),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = c.VerifyAccess(token)
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredential)
}

func TestCodec_ExpiredWithWrongAudienceIsInvalid(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)
	other, err := NewCodec(CodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Audience:      "elsewhere",
		Now:           clk.Now,
	})
	require.NoError(t, err)

	token, _, err := other.IssueAccess(alice)
	require.NoError(t, err)
	clk.Advance(time.Hour)

	_, err = c.VerifyAccess(token)
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredential)
}

func TestNewVerifier_AccessOnly(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Now().UTC()}
	issuer := newTestCodec(t, clk)
	v, err := NewVerifier(CodecConfig{AccessSecret: "access-secret", Now: clk.Now})
	require.NoError(t, err)

	token, _, err := issuer.IssueAccess(alice)
	require.NoError(t, err)
	got, err := v.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	refresh, _, err := issuer.IssueRefresh(alice.SubjectID)
	require.NoError(t, err)
	_, err = v.VerifyRefresh(refresh)
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredential)
	_, _, err = v.IssueRefresh("u")
	assert.Equal(t, domainauth.KindConfiguration, domainauth.KindOf(err))

	_, err = NewVerifier(CodecConfig{})
	assert.Error(t, err)
}
