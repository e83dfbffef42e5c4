package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/gate"
)

const maxRequestBytes = 1 << 20

type Opts struct {
	Logger       *zap.Logger
	CookieName   string
	CookieDomain string
	CookiePath   string
	CookieSecure bool
	RefreshTTL   time.Duration
}

// Server exposes the token lifecycle over HTTP. The refresh token is
// returned in the body and, when CookieName is set, also as an HttpOnly
// cookie.
type Server struct {
	log          *zap.Logger
	uc           *Usecase
	cookieName   string
	cookieDomain string
	cookiePath   string
	cookieSecure bool
	refreshTTL   time.Duration
}

func NewServer(uc *Usecase, o Opts) *Server {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if o.CookiePath == "" {
		o.CookiePath = "/auth"
	}
	return &Server{
		log:          log,
		uc:           uc,
		cookieName:   o.CookieName,
		cookieDomain: o.CookieDomain,
		cookiePath:   o.CookiePath,
		cookieSecure: o.CookieSecure,
		refreshTTL:   o.RefreshTTL,
	}
}

// Routes mounts the auth endpoints on mux. authn guards logout.
func (s *Server) Routes(mux *http.ServeMux, authn func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/refresh", s.refresh)
	mux.Handle("POST /auth/logout", authn(http.HandlerFunc(s.logout)))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Message string `json:"message"`
	*AuthResult
}

type refreshResponse struct {
	Message string               `json:"message"`
	Tokens  domainauth.TokenPair `json:"tokens"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := decode(r, &req); err != nil {
		gate.WriteError(w, r, s.log, err)
		return
	}

	res, err := s.uc.Register(r.Context(), req)
	if err != nil {
		gate.WriteError(w, r, s.log, err)
		return
	}

	s.setRefreshCookie(w, res.Tokens.RefreshToken)
	gate.WriteJSON(w, http.StatusCreated, authResponse{Message: "User registered successfully", AuthResult: res})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		gate.WriteError(w, r, s.log, err)
		return
	}

	res, err := s.uc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		gate.WriteError(w, r, s.log, err)
		return
	}

	s.setRefreshCookie(w, res.Tokens.RefreshToken)
	gate.WriteJSON(w, http.StatusOK, authResponse{Message: "Login successful", AuthResult: res})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		gate.WriteError(w, r, s.log, err)
		return
	}
	raw := req.RefreshToken
	if raw == "" {
		raw = s.refreshFromCookie(r)
	}

	pair, err := s.uc.Refresh(r.Context(), raw)
	if err != nil {
		s.clearRefreshCookie(w)
		gate.WriteError(w, r, s.log, err)
		return
	}

	s.setRefreshCookie(w, pair.RefreshToken)
	gate.WriteJSON(w, http.StatusOK, refreshResponse{Message: "Token refreshed successfully", Tokens: *pair})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		gate.WriteError(w, r, s.log, err)
		return
	}
	in := LogoutInput{RefreshToken: req.RefreshToken}
	if in.RefreshToken == "" {
		in.RefreshToken = s.refreshFromCookie(r)
	}
	if id, ok := gate.IdentityFromContext(r.Context()); ok {
		in.SubjectID = id.SubjectID
	}

	if err := s.uc.Logout(r.Context(), in); err != nil {
		gate.WriteError(w, r, s.log, err)
		return
	}

	s.clearRefreshCookie(w)
	gate.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

// decode reads an optional JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domainauth.Validation("request body must be valid JSON")
	}
	return nil
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, raw string) {
	if s.cookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    raw,
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.refreshTTL.Seconds()),
		Expires:  time.Now().Add(s.refreshTTL).UTC(),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	if s.cookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func (s *Server) refreshFromCookie(r *http.Request) string {
	if s.cookieName == "" {
		return ""
	}
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
