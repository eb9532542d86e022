package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json"

// Failure is the error body every endpoint returns: a success flag that is
// always false plus a human readable message.
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON writes v with the given status. Marshal failures fall back to a
// plain 500 body so the client always gets valid JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// Error writes a failure body and logs the underlying error from the
// request-scoped logger. Server errors (5xx) log at error level, client
// errors (4xx) at warn.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	JSON(w, status, Failure{Success: false, Message: message})
}
