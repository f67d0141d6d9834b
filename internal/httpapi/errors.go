package httpapi

import (
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/fintrack/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	toJSON(w, status, errorResponse{Error: msg})
}

// serviceErr maps sentinel errors from the services and stores onto the
// HTTP taxonomy: validation and business-rule failures are 400 with the
// specific message, not-found is 404, auth failures 401, everything else a
// generic 500 with internals logged but not exposed.
func (s *Server) serviceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, "Not found")
	case errors.Is(err, errs.ErrUnauthorized):
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, errs.ErrInsufficientBankBalance):
		writeErr(w, http.StatusBadRequest, "Insufficient bank balance")
	case errors.Is(err, errs.ErrInsufficientCashBalance):
		writeErr(w, http.StatusBadRequest, "Insufficient cash balance")
	case errors.Is(err, errs.ErrInsufficientCreditLimit):
		writeErr(w, http.StatusBadRequest, "Insufficient credit limit")
	case errors.Is(err, errs.ErrLimitBelowUsed):
		writeErr(w, http.StatusBadRequest, "cannot be less than used limit")
	case errors.Is(err, errs.ErrAccountReferenced):
		writeErr(w, http.StatusBadRequest, "account has transactions linked to it and cannot be deleted")
	case errors.Is(err, errs.ErrExists):
		writeErr(w, http.StatusBadRequest, "already exists")
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed",
			"req_id", chimw.GetReqID(r.Context()),
			"method", r.Method, "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusInternalServerError, "failed, please try again")
	}
}
