package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/middleware"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/usecase"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/validation"
)

// maxAuthBodyBytes leaves room for a rejected oversize document so the user
// still gets the size message instead of a bare 413.
const maxAuthBodyBytes = 2*validation.MaxDocumentSize + 1<<20

type AuthFlow interface {
	Render(ctx context.Context, host usecase.Host, sess *entity.Session) error
	Submit(ctx context.Context, host usecase.Host, sess *entity.Session) error
	Navigate(ctx context.Context, host usecase.Host, sess *entity.Session, target entity.Page) error
	Resend(ctx context.Context, host usecase.Host, sess *entity.Session) error
	Logout(ctx context.Context, host usecase.Host, sess *entity.Session) error
}

type SessionCommitter interface {
	Commit(w http.ResponseWriter, r *http.Request, sess *entity.Session) error
}

type AuthHandler struct {
	flow     AuthFlow
	sessions SessionCommitter
	logger   *zap.Logger
}

func NewAuthHandler(flow AuthFlow, sessions SessionCommitter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		flow:     flow,
		sessions: sessions,
		logger:   logger.Named("AuthHTTPHandler"),
	}
}

type userView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	Page          string         `json:"page"`
	Redirect      string         `json:"redirect,omitempty"`
	Authenticated bool           `json:"authenticated"`
	User          *userView      `json:"user,omitempty"`
	Form          *usecase.Form  `json:"form,omitempty"`
	Flashes       []FlashMessage `json:"flashes"`
	Error         string         `json:"error,omitempty"`
}

func (h *AuthHandler) Render(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, false, func(ctx context.Context, host *formHost, sess *entity.Session) error {
		return h.flow.Render(ctx, host, sess)
	})
}

func (h *AuthHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, true, func(ctx context.Context, host *formHost, sess *entity.Session) error {
		return h.flow.Submit(ctx, host, sess)
	})
}

func (h *AuthHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	target, err := entity.ParsePage(chi.URLParam(r, "page"))
	if err != nil {
		h.logger.Warn("Unknown navigation target", zap.String("page", chi.URLParam(r, "page")))
		writeError(w, http.StatusNotFound, "Unknown page")
		return
	}
	h.run(w, r, false, func(ctx context.Context, host *formHost, sess *entity.Session) error {
		return h.flow.Navigate(ctx, host, sess, target)
	})
}

func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, false, func(ctx context.Context, host *formHost, sess *entity.Session) error {
		return h.flow.Resend(ctx, host, sess)
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, false, func(ctx context.Context, host *formHost, sess *entity.Session) error {
		return h.flow.Logout(ctx, host, sess)
	})
}

// run executes one orchestrator step, commits the session and only then
// writes the response.
func (h *AuthHandler) run(w http.ResponseWriter, r *http.Request, withBody bool, step func(context.Context, *formHost, *entity.Session) error) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		h.logger.Error("No session in request context", zap.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if withBody {
		r.Body = http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)
		if err := parseForm(r); err != nil {
			h.logger.Warn("Failed to parse auth form", zap.Error(err))
			writeError(w, http.StatusBadRequest, "Invalid form submission")
			return
		}
	}

	host := newFormHost(r)
	stepErr := step(r.Context(), host, sess)

	if err := h.sessions.Commit(w, r, sess); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
		return
	}

	resp := AuthResponse{
		Page:          sess.Page.String(),
		Redirect:      host.redirect,
		Authenticated: sess.Authenticated(),
		Form:          host.form,
		Flashes:       host.flashes,
	}
	if sess.Authenticated() {
		resp.User = &userView{
			Name:  sess.Principal.Name,
			Email: sess.Principal.Email,
			Role:  string(sess.Principal.Role),
		}
	}
	if stepErr != nil {
		resp.Error = usecase.UserMessage(stepErr)
	}
	writeJSON(w, StatusForError(stepErr), resp)
}
