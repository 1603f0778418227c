package transport

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errInvalidID = errors.New("invalid id")

// respondWithServiceError maps service and repository errors onto the JSON
// error envelope. Unknown errors are logged and reported as 500.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var validationErr *service.ValidationError
	var totalsErr *service.TotalsChangedError

	switch {
	case errors.As(err, &validationErr):
		fields := make([]middleware.ValidationError, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			fields = append(fields, middleware.ValidationError{Field: f.Field, Message: f.Message})
		}
		middleware.RespondWithValidationErrors(w, fields)

	case errors.As(err, &totalsErr):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, service.ErrTotalsChanged.Error(), map[string]interface{}{
			"totals": totalsErr.Current,
		})

	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")

	case errors.Is(err, service.ErrProductProtected):
		middleware.RespondWithError(w, http.StatusConflict, service.ErrProductProtected.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")

	default:
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// idParam reads a positive integer URL parameter
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// sessionID returns the visitor session set by SessionMiddleware
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session unavailable")
	}
	return sid, ok
}
