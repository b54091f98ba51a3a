package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/validation"
	"github.com/go-chi/chi/v5"
)

const maxBody = 1 << 20

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("body", "request body is empty")
		}
		return apperr.Invalid("body", "invalid JSON")
	}
	return nil
}

// decodeValid reads a JSON body into v and runs the validation stage on it. Used where
// no service sits between the handler and the store.
func decodeValid(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return validation.Struct(v)
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(name, "must be a positive integer")
	}
	return id, nil
}
