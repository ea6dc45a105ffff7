package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/questionlab/qscore/internal/domain/apikeys"
)

type contextKey string

const (
	// APIKeyHeader carries the caller's key.
	APIKeyHeader = "x-api-key"

	apiKeyCtxKey contextKey = "api_key"
	recordCtxKey contextKey = "api_key_record"
)

// Authenticator resolves an API key to its registration record.
// Satisfied by the keys application service.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*apikeys.Record, error)
}

// APIKeyAuth validates the x-api-key header against the key registry.
// Missing or unknown keys get a 401 before any orchestration happens.
func APIKeyAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if key == "" {
				WriteError(w, http.StatusUnauthorized, "missing x-api-key header")
				return
			}

			rec, err := auth.Authenticate(r.Context(), key)
			if err != nil {
				if errors.Is(err, apikeys.ErrNotFound) {
					WriteError(w, http.StatusUnauthorized, "invalid api key")
					return
				}
				WriteError(w, http.StatusInternalServerError, "key lookup failed")
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyCtxKey, key)
			ctx = context.WithValue(ctx, recordCtxKey, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKeyFromContext extracts the authenticated key from context
func APIKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(apiKeyCtxKey).(string); ok {
		return key
	}
	return ""
}

// RecordFromContext extracts the key's registration record from context
func RecordFromContext(ctx context.Context) *apikeys.Record {
	if rec, ok := ctx.Value(recordCtxKey).(*apikeys.Record); ok {
		return rec
	}
	return nil
}

// WriteError writes the JSON error envelope shared by every failure path.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
