package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nikhil/modportal/internal/identity"
	"github.com/nikhil/modportal/internal/logger"
	services "github.com/nikhil/modportal/internal/service/auth"
	teamService "github.com/nikhil/modportal/internal/service/team"
	userService "github.com/nikhil/modportal/internal/service/users"
	"github.com/nikhil/modportal/internal/store"
	"github.com/nikhil/modportal/internal/teamtree"
)

// maxBodyBytes caps request bodies; every payload here is a small form.
const maxBodyBytes = 1 << 20

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// respondWithFailure maps a service error to a status. Store failures are
// reported as an opaque "Failed to <action>" and logged with the request.
func respondWithFailure(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, action string) {
	switch {
	case errors.Is(err, store.ErrInvalid):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrMissingCredentials):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, teamtree.ErrCycle):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, teamService.ErrParentNotFound),
		errors.Is(err, teamService.ErrUnknownUser),
		errors.Is(err, userService.ErrUnknownRole),
		errors.Is(err, userService.ErrUnknownTeam):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithContext(r.Context()).Error("Request failed", "path", r.URL.Path, "action", action, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}
