package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/questionlab/qscore/internal/domain/apikeys"
)

type stubAuthenticator struct {
	rec *apikeys.Record
	err error
}

func (s stubAuthenticator) Authenticate(ctx context.Context, key string) (*apikeys.Record, error) {
	return s.rec, s.err
}

func authHandler(auth Authenticator) (http.Handler, *string) {
	var seenKey string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKey = APIKeyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return APIKeyAuth(auth)(next), &seenKey
}

func TestAPIKeyAuthMissingHeader(t *testing.T) {
	handler, _ := authHandler(stubAuthenticator{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "missing x-api-key header" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestAPIKeyAuthUnknownKey(t *testing.T) {
	handler, _ := authHandler(stubAuthenticator{err: apikeys.ErrNotFound})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(APIKeyHeader, "qs_nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuthLookupFailure(t *testing.T) {
	handler, _ := authHandler(stubAuthenticator{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(APIKeyHeader, "qs_k")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestAPIKeyAuthPassesKeyThroughContext(t *testing.T) {
	handler, seen := authHandler(stubAuthenticator{rec: &apikeys.Record{APIKey: "qs_k", Institute: "Acme"}})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(APIKeyHeader, "qs_k")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *seen != "qs_k" {
		t.Errorf("context key = %q, want qs_k", *seen)
	}
}
