package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Construction defaults
// =============================================================================

func TestNewAuthError_AccountLocked(t *testing.T) {
	err := NewAuthError(AuthAccountLocked)

	if err.Severity() != SeverityCritical {
		t.Errorf("expected CRITICAL, got %s", err.Severity())
	}
	if err.Retryable() {
		t.Error("ACCOUNT_LOCKED should not be retryable")
	}
	if err.Kind() != KindAuth {
		t.Errorf("expected AuthError kind, got %s", err.Kind())
	}
}

func TestNewNetworkError_Timeout(t *testing.T) {
	err := NewNetworkError(NetworkTimeout)

	if !strings.Contains(err.Message(), "timed out") {
		t.Errorf("expected default message to mention timed out, got %q", err.Message())
	}
	if !err.Retryable() {
		t.Error("TIMEOUT should be retryable by default")
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("expected MEDIUM, got %s", err.Severity())
	}
}

func TestDefaults_NeverEmpty(t *testing.T) {
	var all []Error
	for _, c := range AuthCodes {
		all = append(all, NewAuthError(c))
	}
	for _, c := range ValidationCodes {
		all = append(all, NewValidationError(c))
	}
	for _, c := range NetworkCodes {
		all = append(all, NewNetworkError(c))
	}
	for _, c := range CacheCodes {
		all = append(all, NewCacheError(c))
	}
	for _, c := range DatabaseCodes {
		all = append(all, NewDatabaseError(c))
	}
	for _, c := range OfflineQueueCodes {
		all = append(all, NewOfflineQueueError(c))
	}

	for _, err := range all {
		if err.Code() == "" {
			t.Errorf("%s: empty code", err.Kind())
		}
		if err.Severity().Rank() == 0 {
			t.Errorf("%s/%s: undefined severity %q", err.Kind(), err.Code(), err.Severity())
		}
		generic := strings.HasSuffix(err.Message(), "error occurred") && err.Code() != string(NetworkGeneric)
		if err.Message() == "" || generic {
			t.Errorf("%s/%s: missing default message, got %q", err.Kind(), err.Code(), err.Message())
		}
		if err.ID() == "" {
			t.Errorf("%s/%s: missing id", err.Kind(), err.Code())
		}
	}
}

func TestNonRetryableCodes(t *testing.T) {
	tests := []struct {
		name string
		err  Error
	}{
		{"invalid_credentials", NewAuthError(AuthInvalidCredentials)},
		{"unauthorized", NewAuthError(AuthUnauthorized)},
		{"forbidden", NewAuthError(AuthForbidden)},
		{"bad_request", NewNetworkError(NetworkBadRequest)},
		{"not_found", NewNetworkError(NetworkNotFound)},
		{"conflict", NewNetworkError(NetworkConflict)},
		{"cors", NewNetworkError(NetworkCORSError)},
		{"validation", NewValidationError(ValidationRequiredField)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Retryable() {
				t.Errorf("%s should not be retryable", tt.err.Code())
			}
		})
	}
}

func TestSeverityDefaults(t *testing.T) {
	tests := []struct {
		name string
		err  Error
		want Severity
	}{
		{"session_expired", NewAuthError(AuthSessionExpired), SeverityHigh},
		{"token_expired", NewAuthError(AuthTokenExpired), SeverityHigh},
		{"unauthorized", NewAuthError(AuthUnauthorized), SeverityHigh},
		{"account_disabled", NewAuthError(AuthAccountDisabled), SeverityCritical},
		{"auth_unlisted", NewAuthError(AuthSigninFailed), SeverityMedium},
		{"cache_unlisted", NewCacheError(CacheMiss), SeverityLow},
		{"db_migration", NewDatabaseError(DatabaseMigrationFailed), SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Severity(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestOverrides(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewNetworkError(NetworkConflict,
		WithMessage("custom"),
		WithSeverity(SeverityCritical),
		WithRetryable(true),
		WithCause(cause),
	)

	if err.Message() != "custom" {
		t.Errorf("expected custom message, got %q", err.Message())
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("expected CRITICAL, got %s", err.Severity())
	}
	if !err.Retryable() {
		t.Error("explicit retryable should win over the code table")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through errors.Is")
	}
	if err.Error() != "custom: dial tcp: connection refused" {
		t.Errorf("unexpected Error(): %q", err.Error())
	}
}

func TestEmptyCodeFallsBack(t *testing.T) {
	if got := NewNetworkError("").Code(); got != "NETWORK_ERROR" {
		t.Errorf("expected NETWORK_ERROR, got %s", got)
	}
	if got := NewAuthError("").Code(); got != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %s", got)
	}
}

func TestUnknownCodeFallbackMessage(t *testing.T) {
	err := NewDatabaseError(DatabaseCode("SOMETHING_NEW"))
	if err.Message() != "Database error occurred" {
		t.Errorf("expected generic fallback, got %q", err.Message())
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("expected MEDIUM for unlisted code, got %s", err.Severity())
	}
	if !err.Retryable() {
		t.Error("unlisted code should be retryable")
	}
}

// =============================================================================
// Immutability
// =============================================================================

func TestWithContext_DoesNotMutate(t *testing.T) {
	orig := NewCacheError(CacheWriteFailed,
		WithCacheKey("dashboard:summary"),
		WithContext(Fields{"a": 1, "b": 2}),
	)

	next := orig.WithContext(Fields{"b": 3, "c": 4})

	oc := orig.Context()
	if len(oc) != 2 || oc["b"] != 2 {
		t.Errorf("original context mutated: %v", oc)
	}

	nc := next.Context()
	if nc["a"] != 1 || nc["b"] != 3 || nc["c"] != 4 {
		t.Errorf("expected merged context with new keys winning, got %v", nc)
	}
	if next.ID() != orig.ID() || !next.Timestamp().Equal(orig.Timestamp()) {
		t.Error("WithContext should keep identity and timestamp")
	}
	if ce, ok := next.(*CacheError); !ok || ce.Key() != "dashboard:summary" {
		t.Error("WithContext should keep the variant and its fields")
	}
}

func TestContext_ReturnsCopy(t *testing.T) {
	err := NewAuthError(AuthSessionExpired, WithContext(Fields{"k": "v"}))
	c := err.Context()
	c["k"] = "changed"
	if err.Context()["k"] != "v" {
		t.Error("Context() must not expose internal map")
	}
}

func TestTimestamp_NonDecreasing(t *testing.T) {
	prev := NewNetworkError(NetworkTimeout).Timestamp()
	for i := 0; i < 100; i++ {
		ts := NewNetworkError(NetworkTimeout).Timestamp()
		if ts.Before(prev) {
			t.Fatalf("timestamp went backwards: %v < %v", ts, prev)
		}
		prev = ts
	}
}

// =============================================================================
// Wire format
// =============================================================================

func TestMarshalJSON(t *testing.T) {
	err := NewNetworkError(NetworkServerError,
		WithURL("/api/reports"),
		WithMethod("POST"),
		WithStatusCode(500),
		WithContext(Fields{"branch": "HQ"}),
	)

	data, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatalf("marshal failed: %v", mErr)
	}

	var got map[string]any
	if uErr := json.Unmarshal(data, &got); uErr != nil {
		t.Fatalf("unmarshal failed: %v", uErr)
	}

	for _, key := range []string{"name", "id", "code", "message", "timestamp", "context", "retryable", "severity"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing %q in wire record", key)
		}
	}
	if got["name"] != "NetworkError" {
		t.Errorf("expected name NetworkError, got %v", got["name"])
	}
	if got["url"] != "/api/reports" || got["method"] != "POST" || got["statusCode"] != float64(500) {
		t.Errorf("network fields missing: %v", got)
	}
	if _, pErr := time.Parse(time.RFC3339Nano, got["timestamp"].(string)); pErr != nil {
		t.Errorf("timestamp is not ISO-8601: %v", pErr)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func TestAs(t *testing.T) {
	inner := NewDatabaseError(DatabaseDeadlock)
	wrapped := errors.Join(errors.New("outer"), inner)

	got, ok := As(wrapped)
	if !ok || got.ID() != inner.ID() {
		t.Fatal("expected As to find the wrapped database error")
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("plain errors are not typed")
	}
	if !IsRetryable(errors.New("plain")) {
		t.Error("untyped errors default to retryable")
	}
}

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status   int
		wantKind Kind
		wantCode string
	}{
		{http.StatusBadRequest, KindNetwork, "BAD_REQUEST"},
		{http.StatusUnauthorized, KindAuth, "UNAUTHORIZED"},
		{http.StatusForbidden, KindAuth, "FORBIDDEN"},
		{http.StatusNotFound, KindNetwork, "NOT_FOUND"},
		{http.StatusConflict, KindNetwork, "CONFLICT"},
		{http.StatusTooManyRequests, KindNetwork, "TOO_MANY_REQUESTS"},
		{http.StatusInternalServerError, KindNetwork, "SERVER_ERROR"},
		{http.StatusBadGateway, KindNetwork, "SERVER_ERROR"},
		{http.StatusServiceUnavailable, KindNetwork, "SERVICE_UNAVAILABLE"},
		{http.StatusGatewayTimeout, KindNetwork, "GATEWAY_TIMEOUT"},
		{418, KindNetwork, "NETWORK_ERROR"},
	}

	for _, tt := range tests {
		err := FromHTTPStatus(tt.status, "/api/branches", "GET")
		if err.Kind() != tt.wantKind || err.Code() != tt.wantCode {
			t.Errorf("status %d: expected %s/%s, got %s/%s",
				tt.status, tt.wantKind, tt.wantCode, err.Kind(), err.Code())
		}
	}

	ne := FromHTTPStatus(503, "/api/reports", "GET").(*NetworkError)
	if ne.StatusCode() != 503 || ne.URL() != "/api/reports" {
		t.Errorf("expected request details on network error, got %+v", ne.Record())
	}
}

func TestScope_RetryCount(t *testing.T) {
	if n := (Scope{}).RetryCount(); n != 0 {
		t.Errorf("expected 0 default, got %d", n)
	}
	s := Scope{}.With("retryCount", 2)
	if n := s.RetryCount(); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
	if n := (Scope{Data: Fields{"retryCount": float64(3)}}).RetryCount(); n != 3 {
		t.Errorf("expected 3 from JSON number, got %d", n)
	}
}
