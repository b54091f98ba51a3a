package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/postgres"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgerrcode"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      any               `json:"data"`
	Error     string            `json:"error,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, envelope{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()})
}

// fail writes the error envelope. The raw error text only leaves the process in development.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	code := mapErrorToStatusCode(err)
	env := envelope{Message: publicMessage(code, err), Timestamp: time.Now().UTC()}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		env.Fields = ve.Fields
	}
	if exposeErrors(r.Context()) {
		env.Error = err.Error()
	}

	logFor(code).Err(err).Str("request_id", middleware.GetReqID(r.Context())).Int("status", code).
		Str("path", r.URL.Path).Msg("request failed")
	writeJSON(w, code, env)
}

// logFor logs client errors at warn and server errors at error.
func logFor(code int) *zerolog.Event {
	if code >= http.StatusInternalServerError {
		return log.Error()
	}
	return log.Warn()
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidState), errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrGatewayTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, apperr.ErrGatewayNetwork), errors.Is(err, apperr.ErrGatewayToken):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return pgStatus(postgres.Code(err))
}

// pgStatus classifies driver errors that reached the boundary without a business meaning.
func pgStatus(code string) int {
	switch {
	case code == "":
		return http.StatusInternalServerError
	case code == pgerrcode.UniqueViolation:
		return http.StatusConflict
	case code == pgerrcode.ForeignKeyViolation, code == pgerrcode.NotNullViolation,
		code == pgerrcode.InvalidTextRepresentation, code == pgerrcode.CheckViolation:
		return http.StatusBadRequest
	case code == pgerrcode.InsufficientPrivilege:
		return http.StatusForbidden
	case pgerrcode.IsConnectionException(code):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func publicMessage(code int, err error) string {
	switch code {
	case http.StatusBadRequest:
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			return "validation failed"
		}
		return "invalid request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		// business outcomes carry readable text without internals
		if errors.Is(err, apperr.ErrInsufficientStock) || errors.Is(err, apperr.ErrInvalidState) {
			return businessText(err)
		}
		return "resource conflict"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return "payment gateway unavailable"
	}
	return "internal server error"
}

func businessText(err error) string {
	msg := err.Error()
	for _, s := range []error{apperr.ErrInsufficientStock, apperr.ErrInvalidState} {
		msg = strings.TrimSuffix(msg, ": "+s.Error())
	}
	return msg
}

type exposeKey struct{}

// ExposeErrors makes fail include raw error text. Only mounted in development.
func ExposeErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), exposeKey{}, true)))
	})
}

func exposeErrors(ctx context.Context) bool {
	v, _ := ctx.Value(exposeKey{}).(bool)
	return v
}
