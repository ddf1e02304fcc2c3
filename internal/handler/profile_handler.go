package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/middleware"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/repository"
)

const (
	displayTimeLayout = "02 Jan 2006, 03:04 PM MST"
	birthdayLayout    = "02 Jan 2006"
)

type UserReader interface {
	FindByIdentifier(ctx context.Context, identifier string, isEmail bool) (*entity.User, error)
}

type ProfileHandler struct {
	users    UserReader
	sessions SessionCommitter
	location *time.Location
	logger   *zap.Logger
}

func NewProfileHandler(users UserReader, sessions SessionCommitter, location *time.Location, logger *zap.Logger) *ProfileHandler {
	if location == nil {
		location = time.UTC
	}
	return &ProfileHandler{
		users:    users,
		sessions: sessions,
		location: location,
		logger:   logger.Named("ProfileHTTPHandler"),
	}
}

type DocumentView struct {
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	SizeMB      float64 `json:"size_mb"`
	UploadedAt  string  `json:"uploaded_at"`
}

type ProfileResponse struct {
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	NationalID  string        `json:"national_id"`
	Role        string        `json:"role"`
	Birthday    string        `json:"birthday"`
	Gender      string        `json:"gender"`
	LoginTime   string        `json:"login_time"`
	MemberSince string        `json:"member_since"`
	Document    *DocumentView `json:"document,omitempty"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	sess, hasSession := middleware.SessionFromContext(r.Context())
	if !ok || !hasSession {
		h.logger.Warn("Profile requested without an authenticated session")
		writeError(w, http.StatusUnauthorized, "Please log in to continue.")
		return
	}

	user, err := h.users.FindByIdentifier(r.Context(), principal.Email, true)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.logger.Warn("Profile user not found", zap.String("userID", principal.UserID))
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Failed to load profile", zap.String("userID", principal.UserID), zap.Error(err))
		writeError(w, StatusForError(err), "Service temporarily unavailable. Please try again later.")
		return
	}

	if err := h.sessions.Commit(w, r, sess); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
		return
	}
	writeJSON(w, http.StatusOK, h.profile(user, sess.LoginTime))
}

func (h *ProfileHandler) profile(user *entity.User, loginTime time.Time) ProfileResponse {
	resp := ProfileResponse{
		Name:        user.Name,
		Email:       user.Email,
		NationalID:  entity.MaskedNationalID(user.NationalID),
		Role:        capitalize(string(user.Role)),
		Birthday:    formatBirthday(user.Birthday),
		Gender:      user.Gender,
		LoginTime:   h.formatTime(loginTime),
		MemberSince: h.formatTime(user.CreatedAt),
	}
	if user.Document.Filename != "" {
		resp.Document = &DocumentView{
			Filename:    user.Document.Filename,
			ContentType: user.Document.ContentType,
			SizeMB:      user.Document.SizeMB(),
			UploadedAt:  h.formatTime(user.Document.UploadedAt),
		}
	}
	return resp
}

func (h *ProfileHandler) formatTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.In(h.location).Format(displayTimeLayout)
}

func formatBirthday(iso string) string {
	day, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return day.Format(birthdayLayout)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
