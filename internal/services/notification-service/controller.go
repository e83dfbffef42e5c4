package notifier

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/domain/notification"
	"github.com/NordCoder/Credgate/internal/gate"
	"github.com/NordCoder/Credgate/internal/obs"
)

const IDPrefix = "notif_"

type Opts struct {
	Logger *zap.Logger
	// Authn guards /notify and /notifications.
	Authn func(http.Handler) http.Handler
	// Webhook authenticates /webhook/transaction by body signature.
	Webhook func(http.Handler) http.Handler
}

type Server struct {
	log     *zap.Logger
	pub     notification.Publisher
	authn   func(http.Handler) http.Handler
	webhook func(http.Handler) http.Handler
	now     func() time.Time
}

func NewServer(pub notification.Publisher, o Opts) *Server {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:     log,
		pub:     pub,
		authn:   o.Authn,
		webhook: o.Webhook,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.Handle("POST /webhook/transaction", s.webhook(http.HandlerFunc(s.handleWebhook)))
	mux.Handle("POST /notify", s.authn(http.HandlerFunc(s.notify)))
	mux.Handle("GET /notifications/{user_id}",
		gate.Chain(http.HandlerFunc(s.list), s.authn, gate.RequireSelfOrRole("user_id", domainauth.RoleAdmin)))
}

type webhookResponse struct {
	Message   string                 `json:"message"`
	Event     notification.EventType `json:"event"`
	Timestamp time.Time              `json:"timestamp"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	log := obs.WithTrace(r.Context(), s.log)

	var ev notification.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		gate.WriteError(w, r, s.log, domainauth.Validation("request body must be valid JSON"))
		return
	}
	log.Info("webhook received",
		zap.String("event", string(ev.Event)),
		zap.String("transaction_id", ev.Data.ID),
		zap.String("user_id", ev.Data.UserID),
	)

	now := s.now()
	n, ok := notification.FromEvent(ev, IDPrefix+ulid.Make().String(), now)
	if !ok {
		mWebhooks.WithLabelValues("unknown").Inc()
		log.Warn("unknown webhook event", zap.String("event", string(ev.Event)))
	} else {
		mWebhooks.WithLabelValues(string(ev.Event)).Inc()
		if err := s.pub.Publish(r.Context(), n); err != nil {
			mErrors.Inc()
			gate.WriteError(w, r, s.log, domainauth.Storage("publish notification", err))
			return
		}
		mPublished.Inc()
		log.Info("notification queued",
			zap.String("notification_id", n.ID),
			zap.String("user_id", n.UserID),
			zap.String("type", string(n.Type)),
		)
	}

	gate.WriteJSON(w, http.StatusOK, webhookResponse{
		Message:   "Webhook processed successfully",
		Event:     ev.Event,
		Timestamp: now,
	})
}

type notifyRequest struct {
	UserID  string            `json:"user_id"`
	Message string            `json:"message"`
	Type    notification.Type `json:"type"`
}

func (s *Server) notify(w http.ResponseWriter, r *http.Request) {
	caller, _ := gate.IdentityFromContext(r.Context())

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gate.WriteError(w, r, s.log, domainauth.Validation("request body must be valid JSON"))
		return
	}
	if req.UserID == "" || strings.TrimSpace(req.Message) == "" {
		gate.WriteError(w, r, s.log, domainauth.Validation("Missing required fields: user_id, message"))
		return
	}
	if req.Type == "" {
		req.Type = notification.TypeInfo
	}

	n := notification.Notification{
		ID:        IDPrefix + ulid.Make().String(),
		UserID:    req.UserID,
		Message:   req.Message,
		Type:      req.Type,
		Status:    "sent",
		CreatedAt: s.now(),
	}

	obs.WithTrace(r.Context(), s.log).Info("notification sent",
		zap.String("notification_id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)),
		zap.String("sent_by", caller.SubjectID),
	)
	gate.WriteJSON(w, http.StatusCreated, n)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	caller, _ := gate.IdentityFromContext(r.Context())
	userID := r.PathValue("user_id")

	// placeholder inbox
	items := []notification.Notification{
		{
			ID:        "notif_001",
			UserID:    userID,
			Message:   "Transaction completed successfully.",
			Type:      notification.TypeSuccess,
			Status:    "read",
			CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:        "notif_002",
			UserID:    userID,
			Message:   "New login detected from new device.",
			Type:      notification.TypeSecurity,
			Status:    "unread",
			CreatedAt: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		},
	}

	obs.WithTrace(r.Context(), s.log).Info("notifications retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(items)),
		zap.String("requested_by", caller.SubjectID),
	)
	gate.WriteJSON(w, http.StatusOK, items)
}
