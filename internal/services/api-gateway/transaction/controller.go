package transaction

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/gate"
	"github.com/NordCoder/Credgate/internal/obs"
)

const IDPrefix = "txn_"

type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createRequest struct {
	UserID   string      `json:"user_id"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

// Server serves placeholder transaction endpoints. Nothing is persisted;
// the routes exist to exercise the authentication gate.
type Server struct {
	log *zap.Logger
	now func() time.Time
}

func NewServer(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Server) Routes(mux *http.ServeMux, authn func(http.Handler) http.Handler) {
	mux.Handle("POST /transactions", authn(http.HandlerFunc(s.create)))
	mux.Handle("GET /transactions/{id}", authn(http.HandlerFunc(s.get)))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	id, _ := gate.IdentityFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gate.WriteError(w, r, s.log, domainauth.Validation("request body must be valid JSON"))
		return
	}
	amount, err := strconv.ParseFloat(req.Amount.String(), 64)
	if req.UserID == "" || strings.TrimSpace(req.Currency) == "" || err != nil || amount == 0 {
		gate.WriteError(w, r, s.log, domainauth.Validation("Missing required fields: user_id, amount, currency"))
		return
	}

	now := s.now()
	txn := Transaction{
		ID:        IDPrefix + ulid.Make().String(),
		UserID:    req.UserID,
		Amount:    amount,
		Currency:  req.Currency,
		Status:    "pending",
		CreatedAt: now,
		UpdatedAt: now,
	}

	obs.WithTrace(r.Context(), s.log).Info("transaction created",
		zap.String("transaction_id", txn.ID),
		zap.String("user_id", id.SubjectID),
		zap.Float64("amount", txn.Amount),
		zap.String("currency", txn.Currency),
	)
	gate.WriteJSON(w, http.StatusCreated, txn)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, _ := gate.IdentityFromContext(r.Context())
	txnID := r.PathValue("id")

	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	txn := Transaction{
		ID:        txnID,
		UserID:    id.SubjectID,
		Amount:    100.50,
		Currency:  "USD",
		Status:    "completed",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}

	obs.WithTrace(r.Context(), s.log).Info("transaction retrieved",
		zap.String("transaction_id", txnID),
		zap.String("user_id", id.SubjectID),
	)
	gate.WriteJSON(w, http.StatusOK, txn)
}
