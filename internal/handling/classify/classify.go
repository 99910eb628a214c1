// Package classify maps errors from drivers and transports onto the apperr
// taxonomy.
package classify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/resilience/internal/core/apperr"
)

// Classify returns err as an apperr.Error. Typed errors pass through;
// unrecognised errors become a generic NETWORK_ERROR carrying the original
// as cause. Returns nil for a nil err.
func Classify(err error) apperr.Error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}

	opts := []apperr.Option{
		apperr.WithCause(err),
		apperr.WithContext(apperr.Fields{"originalErrorName": typeName(err)}),
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.NewNetworkError(apperr.NetworkTimeout, opts...)
	case errors.Is(err, context.Canceled):
		return apperr.NewNetworkError(apperr.NetworkGeneric, append(opts,
			apperr.WithMessage("Request was cancelled"),
			apperr.WithRetryable(false),
		)...)
	}

	if e := fromDatabase(err, opts); e != nil {
		return e
	}
	if e := fromRedis(err, opts); e != nil {
		return e
	}
	if e := fromGRPC(err, opts); e != nil {
		return e
	}
	if e := fromNet(err, opts); e != nil {
		return e
	}

	return Generic(err)
}

// Generic wraps err as a retryable NETWORK_ERROR carrying the original as
// cause and its type name as originalErrorName. Typed errors pass through.
func Generic(err error) apperr.Error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}
	return apperr.NewNetworkError(apperr.NetworkGeneric,
		apperr.WithCause(err),
		apperr.WithContext(apperr.Fields{"originalErrorName": typeName(err)}),
		apperr.WithMessage(err.Error()),
	)
}

func typeName(err error) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

// -----------------------------------------------------------------------------
// Database
// -----------------------------------------------------------------------------

func fromDatabase(err error, opts []apperr.Option) apperr.Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		opts = append(opts,
			apperr.WithTable(pgErr.TableName),
			apperr.WithContext(apperr.Fields{"sqlState": pgErr.Code, "constraint": pgErr.ConstraintName}),
		)
		return apperr.NewDatabaseError(SQLStateCode(pgErr.Code), opts...)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		opts = append(opts,
			apperr.WithTable(pqErr.Table),
			apperr.WithContext(apperr.Fields{"sqlState": string(pqErr.Code), "constraint": pqErr.Constraint}),
		)
		return apperr.NewDatabaseError(SQLStateCode(string(pqErr.Code)), opts...)
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NewDatabaseError(apperr.DatabaseNotFound, opts...)
	case errors.Is(err, sql.ErrConnDone):
		return apperr.NewDatabaseError(apperr.DatabaseConnectionFailed, opts...)
	case errors.Is(err, sql.ErrTxDone):
		return apperr.NewDatabaseError(apperr.DatabaseTransactionFailed, opts...)
	}
	return nil
}

// SQLStateCode maps a Postgres SQLSTATE to a database code.
func SQLStateCode(state string) apperr.DatabaseCode {
	switch state {
	case "23505":
		return apperr.DatabaseDuplicateEntry
	case "40P01":
		return apperr.DatabaseDeadlock
	case "57014":
		return apperr.DatabaseTimeout
	case "53300":
		return apperr.DatabaseConnectionFailed
	}
	if len(state) < 2 {
		return apperr.DatabaseQueryFailed
	}
	switch state[:2] {
	case "08":
		return apperr.DatabaseConnectionFailed
	case "23":
		return apperr.DatabaseConstraintViolation
	case "25", "40":
		return apperr.DatabaseTransactionFailed
	default:
		return apperr.DatabaseQueryFailed
	}
}

// -----------------------------------------------------------------------------
// Cache
// -----------------------------------------------------------------------------

func fromRedis(err error, opts []apperr.Option) apperr.Error {
	if errors.Is(err, redis.Nil) {
		return apperr.NewCacheError(apperr.CacheMiss, append(opts, apperr.WithCacheOperation(apperr.CacheOpGet))...)
	}
	if errors.Is(err, redis.ErrClosed) {
		return apperr.NewCacheError(apperr.CacheUnavailable, opts...)
	}

	var rErr redis.Error
	if errors.As(err, &rErr) {
		msg := rErr.Error()
		switch {
		case strings.HasPrefix(msg, "OOM"):
			return apperr.NewCacheError(apperr.CacheFull, opts...)
		case strings.HasPrefix(msg, "WRONGTYPE"):
			return apperr.NewCacheError(apperr.CacheCorrupted, opts...)
		case strings.HasPrefix(msg, "READONLY"):
			return apperr.NewCacheError(apperr.CacheWriteFailed, opts...)
		default:
			return apperr.NewCacheError(apperr.CacheUnavailable, opts...)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// gRPC
// -----------------------------------------------------------------------------

func fromGRPC(err error, opts []apperr.Option) apperr.Error {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	opts = append(opts, apperr.WithContext(apperr.Fields{"grpcCode": st.Code().String()}))

	switch st.Code() {
	case codes.OK:
		return nil
	case codes.Unauthenticated:
		return apperr.NewAuthError(apperr.AuthUnauthorized, opts...)
	case codes.PermissionDenied:
		return apperr.NewAuthError(apperr.AuthForbidden, opts...)
	}

	return apperr.NewNetworkError(GRPCNetworkCode(st.Code()), opts...)
}

// GRPCNetworkCode maps a gRPC status code to a network code.
func GRPCNetworkCode(c codes.Code) apperr.NetworkCode {
	switch c {
	case codes.DeadlineExceeded:
		return apperr.NetworkTimeout
	case codes.Unavailable:
		return apperr.NetworkServiceUnavailable
	case codes.ResourceExhausted:
		return apperr.NetworkTooManyRequests
	case codes.NotFound:
		return apperr.NetworkNotFound
	case codes.AlreadyExists, codes.Aborted:
		return apperr.NetworkConflict
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return apperr.NetworkBadRequest
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unimplemented:
		return apperr.NetworkServerError
	default:
		return apperr.NetworkGeneric
	}
}

// -----------------------------------------------------------------------------
// Network
// -----------------------------------------------------------------------------

func fromNet(err error, opts []apperr.Option) apperr.Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.NewNetworkError(apperr.NetworkTimeout, opts...)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return apperr.NewNetworkError(apperr.NetworkConnectionFailed, opts...)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return apperr.NewNetworkError(apperr.NetworkConnectionFailed, opts...)
	}
	return nil
}
