// Package report contains the sinks errors are sent to after handling.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// Reporter delivers errors to a sink.
type Reporter interface {
	Report(ctx context.Context, err apperr.Error, scope apperr.Scope) error
	ReportBatch(ctx context.Context, errs []apperr.Error, scope apperr.Scope) error
}

// Named is implemented by reporters that want a stable label in logs and
// metrics.
type Named interface {
	Name() string
}

// NameOf returns r's label, or "reporter" for anonymous reporters.
func NameOf(r Reporter) string {
	if n, ok := r.(Named); ok {
		return n.Name()
	}
	return "reporter"
}

// reportEach is the sequential ReportBatch used by most sinks.
func reportEach(ctx context.Context, r Reporter, errs []apperr.Error, scope apperr.Scope) error {
	var all []error
	for _, e := range errs {
		if err := r.Report(ctx, e, scope); err != nil {
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}

// Notification is a user-facing toast.
type Notification struct {
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Duration time.Duration   `json:"duration"`
	Severity apperr.Severity `json:"severity"`
}

// NotificationSink displays notifications to the user.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationDuration maps severity to how long a toast stays visible.
func NotificationDuration(s apperr.Severity) time.Duration {
	switch s {
	case apperr.SeverityLow:
		return 3 * time.Second
	case apperr.SeverityHigh:
		return 6 * time.Second
	case apperr.SeverityCritical:
		return 8 * time.Second
	default:
		return 4 * time.Second
	}
}

// NotificationTitle is the toast heading for a kind.
func NotificationTitle(k apperr.Kind) string {
	switch k {
	case apperr.KindAuth:
		return "Authentication Error"
	case apperr.KindValidation:
		return "Validation Error"
	case apperr.KindNetwork:
		return "Connection Error"
	case apperr.KindCache:
		return "Storage Error"
	case apperr.KindDatabase:
		return "Data Error"
	case apperr.KindOfflineQueue:
		return "Sync Error"
	default:
		return "Error"
	}
}

const (
	cacheUserMessage    = "A temporary storage issue occurred. Your data is safe."
	databaseUserMessage = "A data service issue occurred. Please try again later."
)

var authUserMessages = map[apperr.AuthCode]string{
	apperr.AuthInvalidCredentials: "The email or password you entered is incorrect.",
	apperr.AuthSessionExpired:     "Your session has expired. Please sign in again.",
	apperr.AuthTokenExpired:       "Your session has expired. Please sign in again.",
	apperr.AuthTokenInvalid:       "Your session is no longer valid. Please sign in again.",
	apperr.AuthUnauthorized:       "You need to sign in to continue.",
	apperr.AuthForbidden:          "You don't have permission to do that.",
	apperr.AuthAccountLocked:      "Your account has been locked. Contact an administrator.",
	apperr.AuthAccountDisabled:    "Your account has been disabled. Contact an administrator.",
	apperr.AuthRateLimited:        "Too many attempts. Please wait a moment and try again.",
	apperr.AuthMFARequired:        "Additional verification is required to sign in.",
	apperr.AuthPasswordExpired:    "Your password has expired. Please choose a new one.",
}

var networkUserMessages = map[apperr.NetworkCode]string{
	apperr.NetworkOffline:            "You appear to be offline. Changes will sync when you reconnect.",
	apperr.NetworkTimeout:            "The request timed out. Please try again.",
	apperr.NetworkConnectionFailed:   "Unable to reach the server. Check your connection.",
	apperr.NetworkServerError:        "The server ran into a problem. Please try again later.",
	apperr.NetworkServiceUnavailable: "The service is temporarily unavailable.",
	apperr.NetworkGatewayTimeout:     "The server took too long to respond.",
	apperr.NetworkTooManyRequests:    "Too many requests. Please slow down.",
	apperr.NetworkNotFound:           "The requested resource was not found.",
	apperr.NetworkConflict:           "This record was changed by someone else. Refresh and try again.",
	apperr.NetworkBadRequest:         "The request could not be processed.",
}

var queueUserMessages = map[apperr.OfflineQueueCode]string{
	apperr.QueueFull:               "Too many changes are waiting to sync. Reconnect to continue.",
	apperr.QueueSyncFailed:         "Some offline changes could not be synced.",
	apperr.QueueRequestExpired:     "An offline change expired before it could be synced.",
	apperr.QueueMaxRetriesExceeded: "An offline change could not be synced and was discarded.",
}

// UserMessage resolves the text shown to users. Cache and database
// failures always get generic text.
func UserMessage(err apperr.Error) string {
	switch e := err.(type) {
	case *apperr.AuthError:
		if msg, ok := authUserMessages[e.AuthCode()]; ok {
			return msg
		}
	case *apperr.NetworkError:
		if msg, ok := networkUserMessages[e.NetworkCode()]; ok {
			return msg
		}
	case *apperr.ValidationError:
		return e.Message()
	case *apperr.CacheError:
		return cacheUserMessage
	case *apperr.DatabaseError:
		return databaseUserMessage
	case *apperr.OfflineQueueError:
		if msg, ok := queueUserMessages[e.QueueCode()]; ok {
			return msg
		}
	}
	return err.Message()
}
