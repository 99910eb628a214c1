package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Error is implemented only by the six variants in this package.
type Error interface {
	error

	// ID is a UUID assigned at construction for cross-sink correlation.
	ID() string
	Kind() Kind
	Code() string
	Message() string
	Timestamp() time.Time

	// Context returns a copy of the context bag.
	Context() Fields
	Retryable() bool
	Severity() Severity
	Stack() []string
	Unwrap() error

	// WithContext returns a new error with ctx merged over the current
	// context. The receiver is left unchanged.
	WithContext(ctx Fields) Error

	// Record returns the wire representation.
	Record() Record

	sealed()
}

// Record is the JSON wire format consumed by reporters and the remote sink.
type Record struct {
	Name      Kind     `json:"name"`
	ID        string   `json:"id"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Context   Fields   `json:"context,omitempty"`
	Retryable bool     `json:"retryable"`
	Severity  Severity `json:"severity"`
	Stack     []string `json:"stack,omitempty"`
	Cause     string   `json:"cause,omitempty"`

	UserID     string `json:"userId,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	Field      string `json:"field,omitempty"`
	Value      any    `json:"value,omitempty"`
	URL        string `json:"url,omitempty"`
	Method     string `json:"method,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Key        string `json:"key,omitempty"`
	Operation  string `json:"operation,omitempty"`
	Query      string `json:"query,omitempty"`
	Table      string `json:"table,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	QueueSize  int    `json:"queueSize,omitempty"`
}

// As finds the first apperr.Error in err's chain.
func As(err error) (Error, bool) {
	if err == nil {
		return nil, false
	}
	var target Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsRetryable reports whether err may be retried. Untyped errors are
// considered retryable.
func IsRetryable(err error) bool {
	if e, ok := As(err); ok {
		return e.Retryable()
	}
	return err != nil
}

// base holds the fields shared by every variant.
type base struct {
	id        string
	kind      Kind
	code      string
	message   string
	timestamp time.Time
	context   Fields
	retryable bool
	severity  Severity
	cause     error
	stack     []string
}

func (b *base) sealed() {}

func (b *base) Error() string {
	if b.cause != nil {
		return fmt.Sprintf("%s: %v", b.message, b.cause)
	}
	return b.message
}

func (b *base) ID() string           { return b.id }
func (b *base) Kind() Kind           { return b.kind }
func (b *base) Code() string         { return b.code }
func (b *base) Message() string      { return b.message }
func (b *base) Timestamp() time.Time { return b.timestamp }
func (b *base) Context() Fields      { return b.context.Clone() }
func (b *base) Retryable() bool      { return b.retryable }
func (b *base) Severity() Severity   { return b.severity }
func (b *base) Unwrap() error        { return b.cause }

func (b *base) Stack() []string {
	out := make([]string, len(b.stack))
	copy(out, b.stack)
	return out
}

func (b base) withContext(ctx Fields) base {
	b.context = b.context.Merge(ctx)
	return b
}

func (b *base) record() Record {
	r := Record{
		Name:      b.kind,
		ID:        b.id,
		Code:      b.code,
		Message:   b.message,
		Timestamp: b.timestamp.UTC().Format(time.RFC3339Nano),
		Context:   b.context.Clone(),
		Retryable: b.retryable,
		Severity:  b.severity,
		Stack:     b.Stack(),
	}
	if b.cause != nil {
		r.Cause = b.cause.Error()
	}
	return r
}

// codeDefaults is what each kind's lookup tables provide to newBase.
type codeDefaults struct {
	message   string
	severity  Severity
	retryable bool
}

func newBase(kind Kind, code string, defaults codeDefaults, o *options) base {
	b := base{
		id:        uuid.NewString(),
		kind:      kind,
		code:      code,
		message:   o.message,
		timestamp: time.Now(),
		context:   o.context.Clone(),
		retryable: defaults.retryable,
		severity:  defaults.severity,
		cause:     o.cause,
		stack:     callers(4),
	}
	if b.message == "" {
		b.message = defaults.message
	}
	if b.message == "" {
		b.message = kind.Label() + " error occurred"
	}
	if o.severity != nil {
		b.severity = *o.severity
	}
	if o.retryable != nil {
		b.retryable = *o.retryable
	}
	return b
}

// callers formats the construction call stack, skipping the apperr frames.
func callers(skip int) []string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var out []string
	for {
		f, more := frames.Next()
		if !strings.Contains(f.Function, "/internal/core/apperr.") {
			out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		}
		if !more {
			break
		}
	}
	return out
}

func marshalRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// Option configures error construction.
type Option func(*options)

type options struct {
	message   string
	severity  *Severity
	retryable *bool
	context   Fields
	cause     error

	userID     string
	sessionID  string
	field      string
	value      any
	url        string
	method     string
	statusCode int
	key        string
	operation  CacheOperation
	query      string
	table      string
	requestID  string
	queueSize  int
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMessage overrides the per-code default message.
func WithMessage(msg string) Option {
	return func(o *options) { o.message = msg }
}

// WithMessagef overrides the default message with a formatted one.
func WithMessagef(format string, args ...any) Option {
	return func(o *options) { o.message = fmt.Sprintf(format, args...) }
}

// WithSeverity overrides the per-code default severity.
func WithSeverity(s Severity) Option {
	return func(o *options) { o.severity = &s }
}

// WithRetryable overrides the per-code retry policy.
func WithRetryable(retryable bool) Option {
	return func(o *options) { o.retryable = &retryable }
}

// WithContext merges fields into the initial context bag.
func WithContext(ctx Fields) Option {
	return func(o *options) { o.context = o.context.Merge(ctx) }
}

// WithCause records the underlying error.
func WithCause(cause error) Option {
	return func(o *options) { o.cause = cause }
}

// WithUserID sets the user on auth errors.
func WithUserID(id string) Option {
	return func(o *options) { o.userID = id }
}

// WithSessionID sets the session on auth errors.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// WithField names the offending input on validation errors.
func WithField(field string) Option {
	return func(o *options) { o.field = field }
}

// WithValue records the rejected input on validation errors.
func WithValue(v any) Option {
	return func(o *options) { o.value = v }
}

// WithURL sets the request URL on network errors.
func WithURL(url string) Option {
	return func(o *options) { o.url = url }
}

// WithMethod sets the HTTP method on network errors.
func WithMethod(method string) Option {
	return func(o *options) { o.method = method }
}

// WithStatusCode sets the HTTP status on network errors.
func WithStatusCode(code int) Option {
	return func(o *options) { o.statusCode = code }
}

// WithCacheKey sets the key on cache errors.
func WithCacheKey(key string) Option {
	return func(o *options) { o.key = key }
}

// WithCacheOperation sets the operation on cache errors.
func WithCacheOperation(op CacheOperation) Option {
	return func(o *options) { o.operation = op }
}

// WithQuery sets the statement on database errors.
func WithQuery(query string) Option {
	return func(o *options) { o.query = query }
}

// WithTable sets the table on database errors.
func WithTable(table string) Option {
	return func(o *options) { o.table = table }
}

// WithRequestID sets the queued request on offline queue errors.
func WithRequestID(id string) Option {
	return func(o *options) { o.requestID = id }
}

// WithQueueSize sets the queue length on offline queue errors.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}
