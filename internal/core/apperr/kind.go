package apperr

import "strconv"

// Kind is the top-level tag of an error.
type Kind string

const (
	KindAuth         Kind = "AuthError"
	KindValidation   Kind = "ValidationError"
	KindNetwork      Kind = "NetworkError"
	KindCache        Kind = "CacheError"
	KindDatabase     Kind = "DatabaseError"
	KindOfflineQueue Kind = "OfflineQueueError"
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindAuth,
	KindValidation,
	KindNetwork,
	KindCache,
	KindDatabase,
	KindOfflineQueue,
}

func (k Kind) String() string {
	return string(k)
}

// Label returns the short name used in fallback messages ("Network").
func (k Kind) Label() string {
	switch k {
	case KindAuth:
		return "Auth"
	case KindValidation:
		return "Validation"
	case KindNetwork:
		return "Network"
	case KindCache:
		return "Cache"
	case KindDatabase:
		return "Database"
	case KindOfflineQueue:
		return "OfflineQueue"
	default:
		return "Unknown"
	}
}

// Severity is the reporting priority of an error.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Severities lists the four severities from lowest to highest.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s Severity) String() string {
	return string(s)
}

// Rank orders severities; unknown values rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// ParseSeverity accepts the upper-case names, falling back to MEDIUM.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s)
	default:
		return SeverityMedium
	}
}

// Fields is an open key/value bag attached to errors and scopes.
type Fields map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge returns a new map holding f overlaid with other; keys in other win.
func (f Fields) Merge(other Fields) Fields {
	out := f.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Scope describes the call site handing an error to the dispatcher.
type Scope struct {
	Component string
	Action    string
	UserID    string
	SessionID string
	Data      Fields
}

// RetryCount reads Data["retryCount"], defaulting to 0.
func (s Scope) RetryCount() int {
	switch v := s.Data["retryCount"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return 0
}

// With returns a copy of the scope with key set in Data.
func (s Scope) With(key string, value any) Scope {
	s.Data = s.Data.Merge(Fields{key: value})
	return s
}

// Fields flattens the scope for logging and persistence.
func (s Scope) Fields() Fields {
	out := s.Data.Clone()
	if s.Component != "" {
		out["component"] = s.Component
	}
	if s.Action != "" {
		out["action"] = s.Action
	}
	if s.UserID != "" {
		out["userId"] = s.UserID
	}
	if s.SessionID != "" {
		out["sessionId"] = s.SessionID
	}
	return out
}
