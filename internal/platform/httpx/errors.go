package httpx

import (
	"errors"
	"net/http"

	"github.com/libroteca/libroteca/internal/shared"
)

// RespondError maps domain errors to the fixed JSON error vocabulary. No
// stack traces or internal details ever reach the client.
func RespondError(w http.ResponseWriter, err error) {
	var verr shared.ValidationError
	switch {
	case errors.As(err, &verr):
		Error(w, http.StatusBadRequest, verr.Code)
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, CodeNotFound)
	case errors.Is(err, shared.ErrForbidden):
		Error(w, http.StatusForbidden, CodeForbidden)
	case errors.Is(err, shared.ErrDuplicate):
		Error(w, http.StatusConflict, "duplicate")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "invalid_credentials")
	default:
		Error(w, http.StatusInternalServerError, CodeInternal)
	}
}
