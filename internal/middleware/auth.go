package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	StaffIDKey   contextKey = "staff_id"
	StaffRoleKey contextKey = "staff_role"
	SessionIDKey contextKey = "session_id"
)

// StaffLookup reports whether staffID still belongs to an active staff
// account. A non-nil error means the check itself failed.
type StaffLookup func(ctx context.Context, staffID int64) (bool, error)

// StaffAuthConfig describes where staff tokens are read from, how the
// account behind them is re-checked and where unauthenticated visitors are
// sent.
type StaffAuthConfig struct {
	JWTSecret  string
	CookieName string
	LoginPath  string
	Lookup     StaffLookup
}

// StaffAuthMiddleware validates the staff JWT from the auth cookie or a
// Bearer header, then confirms the account through config.Lookup. Requests
// without a usable token or account are redirected to the login page with
// the requested path in ?next=.
func StaffAuthMiddleware(config StaffAuthConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := extractToken(r, config.CookieName)
			if err != nil {
				logger.Debug("Staff token missing", zap.String("path", r.URL.Path), zap.Error(err))
				redirectToLogin(w, r, config.LoginPath)
				return
			}

			staffID, role, err := parseStaffToken(tokenString, config.JWTSecret)
			if err != nil {
				logger.Debug("Staff token rejected", zap.Error(err))
				redirectToLogin(w, r, config.LoginPath)
				return
			}

			active, err := config.Lookup(r.Context(), staffID)
			if err != nil {
				logger.Error("Staff lookup failed", zap.Int64("staff_id", staffID), zap.Error(err))
				RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !active {
				logger.Info("Staff account no longer active", zap.Int64("staff_id", staffID))
				redirectToLogin(w, r, config.LoginPath)
				return
			}

			ctx := context.WithValue(r.Context(), StaffIDKey, staffID)
			ctx = context.WithValue(ctx, StaffRoleKey, role)

			logger.Debug("Staff authenticated",
				zap.Int64("staff_id", staffID),
				zap.String("role", role),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var (
	errMissingToken  = errors.New("missing staff token")
	errInvalidHeader = errors.New("invalid authorization header format")
	errInvalidClaims = errors.New("invalid token claims")
)

func extractToken(r *http.Request, cookieName string) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", errInvalidHeader
		}
		return parts[1], nil
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", errMissingToken
	}
	return cookie.Value, nil
}

func parseStaffToken(tokenString, secret string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, "", err
	}
	if !token.Valid {
		return 0, "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errInvalidClaims
	}

	// JSON numbers decode as float64
	rawID, ok := claims["staff_id"].(float64)
	if !ok || rawID <= 0 {
		return 0, "", errInvalidClaims
	}

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return 0, "", errInvalidClaims
	}

	return int64(rawID), role, nil
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	target := loginPath
	if r.Method == http.MethodGet {
		target += "?next=" + r.URL.EscapedPath()
	}
	SeeOther(w, r, target)
}

// GetStaffID extracts the staff id from request context
func GetStaffID(ctx context.Context) (int64, bool) {
	staffID, ok := ctx.Value(StaffIDKey).(int64)
	return staffID, ok
}

// GetStaffRole extracts the staff role from request context
func GetStaffRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(StaffRoleKey).(string)
	return role, ok
}
