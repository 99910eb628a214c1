package apperr

// CacheCode classifies failures of the report/dashboard cache layer.
type CacheCode string

const (
	CacheMiss               CacheCode = "CACHE_MISS"
	CacheReadFailed         CacheCode = "CACHE_READ_FAILED"
	CacheWriteFailed        CacheCode = "CACHE_WRITE_FAILED"
	CacheDeleteFailed       CacheCode = "CACHE_DELETE_FAILED"
	CacheInvalidationFailed CacheCode = "CACHE_INVALIDATION_FAILED"
	CacheExpired            CacheCode = "CACHE_EXPIRED"
	CacheFull               CacheCode = "CACHE_FULL"
	CacheCorrupted          CacheCode = "CACHE_CORRUPTED"
	CacheUnavailable        CacheCode = "CACHE_UNAVAILABLE"
)

// CacheCodes lists the closed set of cache codes.
var CacheCodes = []CacheCode{
	CacheMiss, CacheReadFailed, CacheWriteFailed, CacheDeleteFailed,
	CacheInvalidationFailed, CacheExpired, CacheFull, CacheCorrupted, CacheUnavailable,
}

// CacheOperation is the cache call that failed.
type CacheOperation string

const (
	CacheOpGet        CacheOperation = "get"
	CacheOpSet        CacheOperation = "set"
	CacheOpDelete     CacheOperation = "delete"
	CacheOpInvalidate CacheOperation = "invalidate"
)

var cacheMessages = map[CacheCode]string{
	CacheMiss:               "Cache entry not found",
	CacheReadFailed:         "Failed to read from cache",
	CacheWriteFailed:        "Failed to write to cache",
	CacheDeleteFailed:       "Failed to delete cache entry",
	CacheInvalidationFailed: "Failed to invalidate cache",
	CacheExpired:            "Cache entry has expired",
	CacheFull:               "Cache storage is full",
	CacheCorrupted:          "Cache data is corrupted",
	CacheUnavailable:        "Cache is unavailable",
}

// Cache failures default to LOW; only these are raised.
var cacheSeverity = map[CacheCode]Severity{
	CacheCorrupted:   SeverityMedium,
	CacheUnavailable: SeverityMedium,
}

var cacheNonRetryable = map[CacheCode]bool{
	CacheCorrupted: true,
}

// Valid reports whether c belongs to the cache code set.
func (c CacheCode) Valid() bool {
	_, ok := cacheMessages[c]
	return ok
}

func (c CacheCode) DefaultMessage() string {
	return cacheMessages[c]
}

func (c CacheCode) DefaultSeverity() Severity {
	if s, ok := cacheSeverity[c]; ok {
		return s
	}
	return SeverityLow
}

func (c CacheCode) DefaultRetryable() bool {
	return !cacheNonRetryable[c]
}

// CacheError reports a failed cache call.
type CacheError struct {
	base
	key       string
	operation CacheOperation
}

// NewCacheError builds a cache error. An empty code becomes CACHE_UNAVAILABLE.
func NewCacheError(code CacheCode, opts ...Option) *CacheError {
	if code == "" {
		code = CacheUnavailable
	}
	o := buildOptions(opts)
	return &CacheError{
		base: newBase(KindCache, string(code), codeDefaults{
			message:   code.DefaultMessage(),
			severity:  code.DefaultSeverity(),
			retryable: code.DefaultRetryable(),
		}, o),
		key:       o.key,
		operation: o.operation,
	}
}

func (e *CacheError) CacheCode() CacheCode      { return CacheCode(e.code) }
func (e *CacheError) Key() string               { return e.key }
func (e *CacheError) Operation() CacheOperation { return e.operation }

func (e *CacheError) WithContext(ctx Fields) Error {
	cp := *e
	cp.base = e.base.withContext(ctx)
	return &cp
}

func (e *CacheError) Record() Record {
	r := e.record()
	r.Key = e.key
	r.Operation = string(e.operation)
	return r
}

func (e *CacheError) MarshalJSON() ([]byte, error) {
	return marshalRecord(e.Record())
}
