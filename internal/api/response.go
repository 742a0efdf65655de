package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// writeError renders an error with its taxonomy code and mapped status.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.ErrorCodeInternal
	message := "internal error"

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}

	writeJSON(w, apperrors.HTTPStatus(err), map[string]interface{}{
		"error": map[string]interface{}{
			"code":    string(code),
			"message": message,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeNoData renders the explicit "no data" result used when a day exists
// but holds nothing to report.
func writeNoData(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"no_data": true,
		"detail":  what,
	})
}
