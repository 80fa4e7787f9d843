package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
)

// writeError is the single place where service errors become HTTP statuses.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ve.Fields)
	case errors.Is(err, common.ErrorPasswordMismatch):
		writeDetail(w, http.StatusBadRequest, "Password do not match")
	case errors.Is(err, common.ErrorNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, common.ErrorAuthenticationFailed):
		writeDetail(w, http.StatusUnauthorized, "Incorrect Password")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		writeDetail(w, http.StatusUnauthorized, "Invalid token.")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
	}
}

func outcome(err error) string {
	var ve *common.ValidationError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &ve), errors.Is(err, common.ErrorPasswordMismatch):
		return metrics.OutcomeInvalid
	case errors.Is(err, common.ErrorNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, common.ErrorAuthenticationFailed), errors.Is(err, common.ErrInvalidToken):
		return metrics.OutcomeUnauthorized
	default:
		return metrics.OutcomeError
	}
}
