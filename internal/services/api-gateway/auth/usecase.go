package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NordCoder/Credgate/internal/auth"
	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/domain/user"
	"github.com/NordCoder/Credgate/internal/obs"
)

// TokenCodec is the part of *auth.Codec the lifecycle needs.
type TokenCodec interface {
	IssueAccess(id domainauth.Identity) (string, time.Time, error)
	IssueRefresh(subjectID string) (string, time.Time, error)
	VerifyRefresh(token string) (string, error)
	AccessTTL() time.Duration
}

type Config struct {
	PasswordCost     int
	AllowAdminSignup bool
	Now              func() time.Time
}

type Usecase struct {
	users  user.Directory
	store  domainauth.RevocationStore
	codec  TokenCodec
	hasher *auth.Hasher
	log    *zap.Logger
	tracer trace.Tracer
	cfg    Config
}

func NewUseCase(users user.Directory, store domainauth.RevocationStore, codec TokenCodec, log *zap.Logger, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = auth.DefaultPasswordCost
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		users:  users,
		store:  store,
		codec:  codec,
		hasher: auth.NewHasher(cfg.PasswordCost),
		log:    log.With(zap.String("component", "auth.usecase")),
		tracer: otel.Tracer("api-gateway/auth"),
		cfg:    cfg,
	}
}

type AuthResult struct {
	User   user.Profile         `json:"user"`
	Tokens domainauth.TokenPair `json:"tokens"`
}

type LogoutInput struct {
	// SubjectID is set when the caller is authenticated; all of the
	// subject's refresh records are then removed.
	SubjectID    string
	RefreshToken string
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	ctx, end := u.start(ctx, "Register")
	defer func() { end(err) }()

	in.Email = normalizeEmail(in.Email)
	role, err := validateRegistration(in, u.cfg.AllowAdminSignup)
	if err != nil {
		return nil, err
	}

	switch _, err := u.users.FindByEmail(ctx, in.Email); {
	case err == nil:
		return nil, domainauth.ErrEmailTaken
	case !errors.Is(err, user.ErrNotFound):
		return nil, domainauth.Storage("find user", err)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, &domainauth.Error{Kind: domainauth.KindUnknown, Msg: "hash password", Err: err}
	}

	now := u.cfg.Now()
	newUser := &user.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Insert(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, domainauth.ErrEmailTaken
		}
		return nil, domainauth.Storage("insert user", err)
	}

	pair, err := u.issue(ctx, newUser.Identity())
	if err != nil {
		return nil, err
	}

	u.logger(ctx).Info("user registered", zap.String("user_id", newUser.ID), zap.String("email", newUser.Email))
	return &AuthResult{User: newUser.Profile(), Tokens: pair}, nil
}

func (u *Usecase) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	ctx, end := u.start(ctx, "Login")
	defer func() { end(err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domainauth.Validation("email and password are required")
	}

	usr, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			u.logger(ctx).Warn("login failed", zap.String("email", email), zap.String("reason", "unknown email"))
			return nil, domainauth.ErrInvalidCredentials
		}
		return nil, domainauth.Storage("find user", err)
	}
	if !usr.IsActive {
		u.logger(ctx).Warn("login failed", zap.String("user_id", usr.ID), zap.String("reason", "account disabled"))
		return nil, domainauth.ErrAccountDisabled
	}
	if !u.hasher.Compare(usr.PasswordHash, password) {
		u.logger(ctx).Warn("login failed", zap.String("user_id", usr.ID), zap.String("reason", "password mismatch"))
		return nil, domainauth.ErrInvalidCredentials
	}

	now := u.cfg.Now()
	if n, err := u.store.SweepExpired(ctx, usr.ID, now); err != nil {
		return nil, domainauth.Storage("sweep refresh records", err)
	} else if n > 0 {
		u.logger(ctx).Debug("swept expired refresh records", zap.String("user_id", usr.ID), zap.Int64("count", n))
	}

	pair, err := u.issue(ctx, usr.Identity())
	if err != nil {
		return nil, err
	}

	if err := u.users.UpdateLastLogin(ctx, usr.ID, now); err != nil {
		return nil, domainauth.Storage("update last login", err)
	}
	usr.LastLogin = &now

	u.logger(ctx).Info("user logged in", zap.String("user_id", usr.ID))
	return &AuthResult{User: usr.Profile(), Tokens: pair}, nil
}

// Refresh consumes refreshToken and returns a new pair. A token is accepted
// at most once: the record is rotated atomically and a replay finds nothing.
func (u *Usecase) Refresh(ctx context.Context, refreshToken string) (pair *domainauth.TokenPair, err error) {
	ctx, end := u.start(ctx, "Refresh")
	defer func() { end(err) }()

	if refreshToken == "" {
		return nil, domainauth.Validation("refresh token is required")
	}

	subjectID, err := u.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, domainauth.ErrInvalidRefreshToken
	}

	hash := auth.HashToken(refreshToken)
	rec, err := u.store.FindByToken(ctx, hash)
	if err != nil {
		if errors.Is(err, domainauth.ErrRecordNotFound) {
			u.logger(ctx).Warn("refresh rejected", zap.String("user_id", subjectID), zap.String("reason", "no live record"))
			return nil, domainauth.ErrInvalidRefreshToken
		}
		return nil, domainauth.Storage("find refresh record", err)
	}
	if rec.SubjectID != subjectID {
		return nil, domainauth.ErrInvalidRefreshToken
	}

	now := u.cfg.Now()
	if rec.Expired(now) {
		if err := u.store.DeleteByToken(ctx, hash); err != nil {
			return nil, domainauth.Storage("delete refresh record", err)
		}
		return nil, domainauth.ErrRefreshTokenExpired
	}

	usr, err := u.users.FindByID(ctx, subjectID)
	switch {
	case errors.Is(err, user.ErrNotFound) || (err == nil && !usr.IsActive):
		if err := u.store.DeleteByToken(ctx, hash); err != nil {
			return nil, domainauth.Storage("delete refresh record", err)
		}
		u.logger(ctx).Warn("refresh rejected", zap.String("user_id", subjectID), zap.String("reason", "subject missing or disabled"))
		return nil, domainauth.ErrInvalidRefreshToken
	case err != nil:
		return nil, domainauth.Storage("find user", err)
	}

	access, refresh, err := u.mint(usr.Identity())
	if err != nil {
		return nil, err
	}
	next := &domainauth.RefreshRecord{
		TokenHash: auth.HashToken(refresh.token),
		SubjectID: usr.ID,
		ExpiresAt: refresh.expiresAt,
		CreatedAt: now,
	}
	if err := u.store.Rotate(ctx, hash, next); err != nil {
		if errors.Is(err, domainauth.ErrRecordNotFound) {
			u.logger(ctx).Warn("refresh rejected", zap.String("user_id", subjectID), zap.String("reason", "lost rotation race"))
			return nil, domainauth.ErrInvalidRefreshToken
		}
		return nil, domainauth.Storage("rotate refresh record", err)
	}

	u.logger(ctx).Info("tokens refreshed", zap.String("user_id", usr.ID))
	return u.pair(access, refresh.token), nil
}

// Logout is idempotent and never fails for unknown tokens. Already issued
// access tokens stay valid until they expire.
func (u *Usecase) Logout(ctx context.Context, in LogoutInput) (err error) {
	ctx, end := u.start(ctx, "Logout")
	defer func() { end(err) }()

	if in.RefreshToken != "" {
		if err := u.store.DeleteByToken(ctx, auth.HashToken(in.RefreshToken)); err != nil {
			return domainauth.Storage("delete refresh record", err)
		}
	}
	if in.SubjectID != "" {
		if err := u.store.DeleteBySubject(ctx, in.SubjectID); err != nil {
			return domainauth.Storage("delete subject refresh records", err)
		}
	}

	u.logger(ctx).Info("user logged out", zap.String("user_id", in.SubjectID), zap.Bool("with_token", in.RefreshToken != ""))
	return nil
}

type mintedToken struct {
	token     string
	expiresAt time.Time
}

func (u *Usecase) mint(id domainauth.Identity) (string, mintedToken, error) {
	access, _, err := u.codec.IssueAccess(id)
	if err != nil {
		return "", mintedToken{}, &domainauth.Error{Kind: domainauth.KindConfiguration, Msg: "sign access token", Err: err}
	}
	refresh, exp, err := u.codec.IssueRefresh(id.SubjectID)
	if err != nil {
		return "", mintedToken{}, &domainauth.Error{Kind: domainauth.KindConfiguration, Msg: "sign refresh token", Err: err}
	}
	return access, mintedToken{token: refresh, expiresAt: exp}, nil
}

// issue mints a pair and persists the refresh record.
func (u *Usecase) issue(ctx context.Context, id domainauth.Identity) (domainauth.TokenPair, error) {
	access, refresh, err := u.mint(id)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	rec := &domainauth.RefreshRecord{
		TokenHash: auth.HashToken(refresh.token),
		SubjectID: id.SubjectID,
		ExpiresAt: refresh.expiresAt,
		CreatedAt: u.cfg.Now(),
	}
	if err := u.store.Insert(ctx, rec); err != nil {
		return domainauth.TokenPair{}, domainauth.Storage("insert refresh record", err)
	}
	return *u.pair(access, refresh.token), nil
}

func (u *Usecase) pair(access, refresh string) *domainauth.TokenPair {
	return &domainauth.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    domainauth.TokenTypeBearer,
		ExpiresIn:    int64(u.codec.AccessTTL() / time.Second),
	}
}

// start opens a span for op and returns a func that records the outcome in
// the span, the outcome counter and, for unexpected kinds, the error log.
func (u *Usecase) start(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := u.tracer.Start(ctx, "auth."+op)
	begin := time.Now()
	return ctx, func(err error) {
		defer span.End()
		kind := domainauth.KindOf(err)
		outcome := "ok"
		if err != nil {
			outcome = kind.String()
			span.SetAttributes(attribute.String("auth.reason", outcome))
			if !kind.Expected() {
				span.RecordError(err)
				span.SetStatus(codes.Error, outcome)
				u.logger(ctx).Error("auth operation failed", zap.String("op", op), zap.Error(err))
			}
		}
		opTotal.WithLabelValues(op, outcome).Inc()
		opDuration.WithLabelValues(op).Observe(time.Since(begin).Seconds())
	}
}

func (u *Usecase) logger(ctx context.Context) *zap.Logger {
	return obs.WithTrace(ctx, u.log)
}
