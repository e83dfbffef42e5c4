package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Credgate/internal/gate"
)

func newTestServer(t *testing.T) (*fixture, http.Handler) {
	t.Helper()
	f := newFixture(t)
	srv := NewServer(f.uc, Opts{CookieName: "refresh_token", RefreshTTL: f.codec.RefreshTTL()})
	mux := http.NewServeMux()
	srv.Routes(mux, gate.Authenticate(f.codec, nil))
	return f, mux
}

func do(t *testing.T, h http.Handler, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type tokensBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	User    struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		TokenType    string `json:"tokenType"`
		ExpiresIn    int64  `json:"expiresIn"`
	} `json:"tokens"`
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) tokensBody {
	t.Helper()
	var b tokensBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

const registerBody = `{"email":"a@x.com","password":"Passw0rd!","firstName":"Al","lastName":"Ice"}`

func TestServer_RegisterLoginRefreshLogout(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	reg := parse(t, rec)
	assert.Equal(t, "User registered successfully", reg.Message)
	assert.Equal(t, "user", reg.User.Role)
	assert.Equal(t, "Bearer", reg.Tokens.TokenType)
	assert.EqualValues(t, 900, reg.Tokens.ExpiresIn)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "HttpOnly")

	rec = do(t, h, http.MethodPost, "/auth/register", registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	login := parse(t, rec)
	assert.Equal(t, "Login successful", login.Message)

	rec = do(t, h, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+login.Tokens.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := parse(t, rec)
	assert.Equal(t, "Token refreshed successfully", refreshed.Message)
	assert.NotEqual(t, login.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	rec = do(t, h, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+login.Tokens.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_refresh_token", parse(t, rec).Reason)

	rec = do(t, h, http.MethodPost, "/auth/logout", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_token", parse(t, rec).Reason)

	rec = do(t, h, http.MethodPost, "/auth/logout", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+refreshed.Tokens.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", parse(t, rec).Message)

	rec = do(t, h, http.MethodPost, "/auth/refresh", `{"refreshToken":"`+refreshed.Tokens.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_RefreshFromCookie(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	rec = do(t, h, http.MethodPost, "/auth/refresh", "", func(r *http.Request) { r.AddCookie(cookies[0]) })
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Errors(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/auth/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/login", `{"email":"nobody@x.com","password":"Passw0rd!"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := parse(t, rec)
	assert.Equal(t, "invalid_credentials", body.Reason)
	assert.Equal(t, "invalid email or password", body.Error)

	rec = do(t, h, http.MethodPost, "/auth/register", `{"email":"bad","password":"Passw0rd!","firstName":"Al","lastName":"Ice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email must be a valid email", parse(t, rec).Error)

	rec = do(t, h, http.MethodPost, "/auth/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
