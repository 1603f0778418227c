package transport

import (
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	staffLoginPath = "/staff/login/"
	staffHomePath  = "/staff/"
)

// LoginPage describes the staff sign-in form
type LoginPage struct {
	Fields []string `json:"fields"`
	Next   string   `json:"next"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string            `json:"access_token"`
	Staff       *domain.StaffUser `json:"staff"`
	Next        string            `json:"next"`
}

// AuthHandler handles staff sign in and sign out
type AuthHandler struct {
	staff       service.StaffService
	cookieName  string
	tokenExpiry time.Duration
	secure      bool
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	staff service.StaffService,
	cookieName string,
	tokenExpiry time.Duration,
	secure bool,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		staff:       staff,
		cookieName:  cookieName,
		tokenExpiry: tokenExpiry,
		secure:      secure,
		logger:      logger,
	}
}

// RegisterRoutes registers the public staff routes on the /staff router.
// Login attempts are wrapped in limit.
func (h *AuthHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Get("/login", h.LoginForm)
	r.With(limit).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, LoginPage{
		Fields: []string{"email", "password"},
		Next:   safeNext(r.URL.Query().Get("next")),
	})
}

// Login verifies staff credentials and sets the auth cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debug("Login decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.staff.Login(r.Context(), req)
	if err != nil {
		h.logger.Debug("Staff login failed", zap.Error(err))
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/staff",
		MaxAge:   int(h.tokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("Staff logged in", zap.Int64("staff_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		Staff:       user,
		Next:        safeNext(r.URL.Query().Get("next")),
	})
}

// Logout expires the auth cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/staff",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.SeeOther(w, r, staffLoginPath)
}

// safeNext only allows redirects back into the back-office
func safeNext(next string) string {
	if strings.HasPrefix(next, staffHomePath) && !strings.HasPrefix(next, "//") {
		return next
	}
	return staffHomePath
}
