package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

var production bool

// SetProduction switches the translator between the terse production
// envelope and the verbose development one. Called once at startup.
func SetProduction(p bool) {
	production = p
}

// Write renders an error through the centralized translator. Unclassified
// errors become a generic 500.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternal("Internal Server Error", err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if production {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": appErr.Message,
		})
		return
	}

	payload := map[string]interface{}{
		"success":    false,
		"error":      appErr.TypeName(),
		"errMessage": appErr.Error(),
		"stack":      string(debug.Stack()),
	}
	json.NewEncoder(w).Encode(payload)
}
