package admin

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/domain/user"
	"github.com/NordCoder/Credgate/internal/gate"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Server struct {
	log   *zap.Logger
	users user.Lister
}

func NewServer(users user.Lister, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, users: users}
}

// Routes mounts the admin endpoints behind authn and an admin-only role
// check.
func (s *Server) Routes(mux *http.ServeMux, authn func(http.Handler) http.Handler) {
	mux.Handle("GET /admin/users", gate.Chain(http.HandlerFunc(s.listUsers), authn, gate.Authorize(domainauth.RoleAdmin)))
}

type listResponse struct {
	Message string          `json:"message"`
	UserID  string          `json:"userId"`
	Role    domainauth.Role `json:"role"`
	Users   []user.Profile  `json:"users"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	id, _ := gate.IdentityFromContext(r.Context())

	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit <= 0 || limit > maxLimit {
		gate.WriteError(w, r, s.log, domainauth.Validation("limit must be between 1 and %d", maxLimit))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		gate.WriteError(w, r, s.log, domainauth.Validation("offset must be a non-negative integer"))
		return
	}

	users, err := s.users.List(r.Context(), limit, offset)
	if err != nil {
		gate.WriteError(w, r, s.log, domainauth.Storage("list users", err))
		return
	}
	profiles := make([]user.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}

	gate.WriteJSON(w, http.StatusOK, listResponse{
		Message: "Admin endpoint - users list",
		UserID:  id.SubjectID,
		Role:    id.Role,
		Users:   profiles,
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
