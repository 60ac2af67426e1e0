// Package usersapi exposes user registration over HTTP.
package usersapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"signup/cmd/internal/users"

	"github.com/go-playground/validator/v10"
)

// DefaultMaxBodyBytes caps registration request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// Registrar is the registration use case the handler drives.
type Registrar interface {
	Register(ctx context.Context, in users.RegisterInput) error
}

// Handler wires POST /users to a Registrar.
type Handler struct {
	log          *slog.Logger
	svc          Registrar
	maxBodyBytes int64
	validate     *validator.Validate
}

// HandlerOption configures optional handler settings.
type HandlerOption func(*Handler)

// WithMaxBodyBytes overrides DefaultMaxBodyBytes. Non-positive values are ignored.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, svc Registrar, opts ...HandlerOption) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("usersapi: nil registrar")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:          log,
		svc:          svc,
		maxBodyBytes: DefaultMaxBodyBytes,
		validate:     newValidator(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Register wires the registration route onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/users", h.handleCreateUser)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req createUserRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid_request", "email and password are required", fieldDetails(err))
		return
	}

	ctx := r.Context()
	err := h.svc.Register(ctx, users.RegisterInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeRegisterError(ctx, w, err)
		return
	}

	writeText(w, http.StatusCreated, createdBody)
}

func (h *Handler) writeRegisterError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case users.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
	case users.IsConflict(err):
		h.log.WarnContext(ctx, "users.register.conflict", "err", err)
		writeError(w, http.StatusConflict, "conflict", "user already exists")
	case errors.Is(err, users.ErrBusy):
		h.log.WarnContext(ctx, "users.register.busy", "err", err)
		writeError(w, http.StatusServiceUnavailable, "server_busy", "please retry later")
	case errors.Is(err, users.ErrHash):
		h.log.ErrorContext(ctx, "users.register.hash.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "failed to create user")
	case errors.Is(err, users.ErrStore):
		h.log.ErrorContext(ctx, "users.register.save.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "failed to create user")
	default:
		h.log.ErrorContext(ctx, "users.register.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "failed to create user")
	}
}
