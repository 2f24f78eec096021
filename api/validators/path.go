package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
)

// PathParam returns a trimmed, non-empty chi URL parameter.
func PathParam(r *http.Request, key string, maxLen int) (string, error) {
	value := SanitizeString(chi.URLParam(r, key), 0)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": key})
	}
	if maxLen > 0 && len(value) > maxLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter too long").WithDetails(map[string]any{"field": key, "max": maxLen})
	}
	return value, nil
}

// QueryString returns a sanitized, lower-cased query value.
func QueryString(r *http.Request, key string, maxLen int) string {
	return strings.ToLower(SanitizeString(r.URL.Query().Get(key), maxLen))
}

// QueryInt parses an optional integer query value. Missing values are zero.
func QueryInt(r *http.Request, key string) (int, error) {
	raw := SanitizeString(r.URL.Query().Get(key), 16)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "query parameter must be an integer").WithDetails(map[string]any{"field": key})
	}
	return v, nil
}
