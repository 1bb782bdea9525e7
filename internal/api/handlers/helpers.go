package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/validator"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *errors.AppError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.BadRequest("Request body is required")
		}
		return errors.BadRequest("Invalid request body")
	}
	return nil
}

// parseTimeQuery reads an RFC 3339 timestamp or a YYYY-MM-DD date from the
// query string. A date used as an upper bound covers the whole day.
func parseTimeQuery(r *http.Request, name string, endOfDay bool) (*time.Time, *errors.AppError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.ValidationError("Invalid query parameter", []validator.ValidationError{{
			Field: name, Tag: "datetime", Value: raw, Message: name + " must be an RFC 3339 timestamp or YYYY-MM-DD date",
		}})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
