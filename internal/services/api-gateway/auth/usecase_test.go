package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cgauth "github.com/NordCoder/Credgate/internal/auth"
	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/domain/user"
	"github.com/NordCoder/Credgate/internal/repository/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	uc    *Usecase
	users *memory.Users
	store *memory.Records
	codec *cgauth.Codec
	clk   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec, err := cgauth.NewCodec(cgauth.CodecConfig{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
		Now:           clk.Now,
	})
	require.NoError(t, err)

	users := memory.NewUsers()
	store := memory.NewRecords()
	uc := NewUseCase(users, store, codec, nil, Config{PasswordCost: 4, Now: clk.Now})
	return &fixture{uc: uc, users: users, store: store, codec: codec, clk: clk}
}

var alice = RegisterInput{
	Email:     "a@x.com",
	Password:  "Passw0rd!",
	FirstName: "Al",
	LastName:  "Ice",
}

func TestRegisterLoginRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.uc.Register(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, reg.User.Role)
	assert.Equal(t, domainauth.TokenTypeBearer, reg.Tokens.TokenType)
	assert.EqualValues(t, 900, reg.Tokens.ExpiresIn)
	assert.Equal(t, 1, f.store.Len())

	id, err := f.codec.VerifyAccess(reg.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id.SubjectID)
	assert.Equal(t, "a@x.com", id.Email)

	login, err := f.uc.Login(ctx, "A@X.com ", "Passw0rd!")
	require.NoError(t, err)
	require.NotNil(t, login.User.LastLogin)
	assert.Equal(t, 2, f.store.Len())

	f.clk.Advance(time.Second)
	pair, err := f.uc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, pair.RefreshToken)
	assert.Equal(t, 2, f.store.Len())

	_, err = f.uc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domainauth.ErrInvalidRefreshToken)

	_, err = f.uc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Register(ctx, alice)
	require.NoError(t, err)

	dup := alice
	dup.Email = " A@x.COM"
	_, err = f.uc.Register(ctx, dup)
	assert.ErrorIs(t, err, domainauth.ErrEmailTaken)
	assert.Equal(t, domainauth.KindConflict, domainauth.KindOf(err))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		mut  func(*RegisterInput)
		msg  string
	}{
		{"bad email reported before bad password", func(in *RegisterInput) { in.Email = "nope"; in.Password = "x" }, "email must be a valid email"},
		{"email without domain dot", func(in *RegisterInput) { in.Email = "a@localhost" }, "email must be a valid email"},
		{"short password", func(in *RegisterInput) { in.Password = "Pa0!" }, "password length must be at least 8 characters long"},
		{"no symbol", func(in *RegisterInput) { in.Password = "Passw0rdd" }, "password must contain a special character (@$!%*?&)"},
		{"no upper", func(in *RegisterInput) { in.Password = "passw0rd!" }, "password must contain an uppercase letter"},
		{"short first name", func(in *RegisterInput) { in.FirstName = "A" }, "firstName length must be at least 2 characters long"},
		{"missing last name", func(in *RegisterInput) { in.LastName = "" }, "lastName is required"},
		{"unknown role", func(in *RegisterInput) { in.Role = "root" }, "role must be one of [user, admin]"},
		{"admin self-signup", func(in *RegisterInput) { in.Role = "admin" }, "self-registration as admin is not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := alice
			tt.mut(&in)
			_, err := f.uc.Register(ctx, in)
			require.Error(t, err)
			assert.Equal(t, domainauth.KindValidation, domainauth.KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
	assert.Zero(t, f.store.Len())
}

func TestRegister_AdminWhenAllowed(t *testing.T) {
	f := newFixture(t)
	f.uc.cfg.AllowAdminSignup = true

	in := alice
	in.Role = "admin"
	res, err := f.uc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, res.User.Role)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.uc.Register(ctx, alice)
	require.NoError(t, err)

	_, err = f.uc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)

	_, unknownErr := f.uc.Login(ctx, "b@x.com", "Passw0rd!")
	assert.ErrorIs(t, unknownErr, domainauth.ErrInvalidCredentials)
	assert.Equal(t, err.Error(), unknownErr.Error())

	_, err = f.uc.Login(ctx, "", "")
	assert.Equal(t, domainauth.KindValidation, domainauth.KindOf(err))

	require.True(t, f.users.SetActive(reg.User.ID, false))
	_, err = f.uc.Login(ctx, "a@x.com", "Passw0rd!")
	assert.ErrorIs(t, err, domainauth.ErrAccountDisabled)
}

func TestLogin_SweepsExpiredRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, alice)
	require.NoError(t, err)

	f.clk.Advance(8 * 24 * time.Hour)
	_, err = f.uc.Login(ctx, "a@x.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Len())
}

func TestRefresh_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Refresh(ctx, "")
		assert.Equal(t, domainauth.KindValidation, domainauth.KindOf(err))
	})

	t.Run("garbage", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, domainauth.ErrInvalidRefreshToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		f := newFixture(t)
		reg, err := f.uc.Register(ctx, alice)
		require.NoError(t, err)
		_, err = f.uc.Refresh(ctx, reg.Tokens.AccessToken)
		assert.ErrorIs(t, err, domainauth.ErrInvalidRefreshToken)
	})

	t.Run("valid signature without record", func(t *testing.T) {
		f := newFixture(t)
		reg, err := f.uc.Register(ctx, alice)
		require.NoError(t, err)
		require.NoError(t, f.store.DeleteBySubject(ctx, reg.User.ID))
		_, err = f.uc.Refresh(ctx, reg.Tokens.RefreshToken)
		assert.ErrorIs(t, err, domainauth.ErrInvalidRefreshToken)
	})

	t.Run("record outlives token", func(t *testing.T) {
		f := newFixture(t)
		reg, err := f.uc.Register(ctx, alice)
		require.NoError(t, err)

		hash := cgauth.HashToken(reg.Tokens.RefreshToken)
		require.NoError(t, f.store.DeleteByToken(ctx, hash))
		require.NoError(t, f.store.Insert(ctx, &domainauth.RefreshRecord{
			TokenHash: hash,
			SubjectID: reg.User.ID,
			ExpiresAt: f.clk.Now().Add(-time.Minute),
			CreatedAt: f.clk.Now(),
		}))

		_, err = f.uc.Refresh(ctx, reg.Tokens.RefreshToken)
		assert.ErrorIs(t, err, domainauth.ErrRefreshTokenExpired)
		assert.Zero(t, f.store.Len())
	})

	t.Run("disabled subject", func(t *testing.T) {
		f := newFixture(t)
		reg, err := f.uc.Register(ctx, alice)
		require.NoError(t, err)
		require.True(t, f.users.SetActive(reg.User.ID, false))

		_, err = f.uc.Refresh(ctx, reg.Tokens.RefreshToken)
		assert.ErrorIs(t, err, domainauth.ErrInvalidRefreshToken)
		assert.Zero(t, f.store.Len())
	})
}

func TestRefresh_ConcurrentReplayHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.uc.Register(ctx, alice)
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Refresh(ctx, reg.Tokens.RefreshToken)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domainauth.ErrInvalidRefreshToken)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.store.Len())
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.uc.Register(ctx, alice)
	require.NoError(t, err)
	login, err := f.uc.Login(ctx, "a@x.com", "Passw0rd!")
	require.NoError(t, err)
	require.Equal(t, 2, f.store.Len())

	require.NoError(t, f.uc.Logout(ctx, LogoutInput{RefreshToken: reg.Tokens.RefreshToken}))
	assert.Equal(t, 1, f.store.Len())
	require.NoError(t, f.uc.Logout(ctx, LogoutInput{RefreshToken: reg.Tokens.RefreshToken}))
	require.NoError(t, f.uc.Logout(ctx, LogoutInput{RefreshToken: "never-issued"}))

	require.NoError(t, f.uc.Logout(ctx, LogoutInput{SubjectID: reg.User.ID}))
	assert.Zero(t, f.store.Len())

	_, err = f.uc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domainauth.ErrInvalidRefreshToken)

	// access tokens are not revoked
	_, err = f.codec.VerifyAccess(login.Tokens.AccessToken)
	assert.NoError(t, err)
}

type failingStore struct {
	*memory.Records
}

var errDown = errors.New("connection refused")

func (failingStore) Insert(context.Context, *domainauth.RefreshRecord) error { return errDown }

func TestRegister_StorageFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	uc := NewUseCase(f.users, failingStore{f.store}, f.codec, nil, Config{PasswordCost: 4, Now: f.clk.Now})

	_, err := uc.Register(context.Background(), alice)
	require.Error(t, err)
	assert.Equal(t, domainauth.KindStorage, domainauth.KindOf(err))
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, "internal server error", domainauth.PublicMessage(err))
}

func TestProfileHidesPasswordHash(t *testing.T) {
	f := newFixture(t)
	reg, err := f.uc.Register(context.Background(), alice)
	require.NoError(t, err)

	stored, err := f.users.FindByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.IsType(t, user.Profile{}, reg.User)
}
