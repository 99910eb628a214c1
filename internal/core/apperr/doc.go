// Package apperr defines the typed error taxonomy used across the reporting
// dashboard backend.
//
// Every error belongs to exactly one Kind (Auth, Validation, Network, Cache,
// Database, OfflineQueue) and carries a kind-specific code. Severity,
// retryability and the human-readable message are derived from per-code
// lookup tables unless the caller overrides them.
//
// # Construction
//
//	err := apperr.NewNetworkError(apperr.NetworkTimeout,
//	    apperr.WithURL("/api/reports"),
//	    apperr.WithMethod("GET"),
//	)
//
// # Matching
//
// Error is a sealed interface; the concrete variants are the only
// implementations, so a type switch over them is exhaustive:
//
//	switch e := err.(type) {
//	case *apperr.AuthError:
//	case *apperr.NetworkError:
//	...
//	}
//
// # Wire format
//
// All variants marshal to the Record shape consumed by reporters and the
// remote log sink.
package apperr
