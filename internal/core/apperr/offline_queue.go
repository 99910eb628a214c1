package apperr

// OfflineQueueCode classifies failures of the offline request queue.
type OfflineQueueCode string

const (
	QueueFull               OfflineQueueCode = "QUEUE_FULL"
	QueueEnqueueFailed      OfflineQueueCode = "ENQUEUE_FAILED"
	QueueSyncFailed         OfflineQueueCode = "SYNC_FAILED"
	QueueStorageFailed      OfflineQueueCode = "STORAGE_FAILED"
	QueueRequestExpired     OfflineQueueCode = "REQUEST_EXPIRED"
	QueueInvalidRequest     OfflineQueueCode = "INVALID_REQUEST"
	QueueMaxRetriesExceeded OfflineQueueCode = "MAX_RETRIES_EXCEEDED"
)

// OfflineQueueCodes lists the closed set of offline queue codes.
var OfflineQueueCodes = []OfflineQueueCode{
	QueueFull, QueueEnqueueFailed, QueueSyncFailed, QueueStorageFailed,
	QueueRequestExpired, QueueInvalidRequest, QueueMaxRetriesExceeded,
}

var queueMessages = map[OfflineQueueCode]string{
	QueueFull:               "Offline queue is full",
	QueueEnqueueFailed:      "Failed to queue request for later",
	QueueSyncFailed:         "Failed to sync queued requests",
	QueueStorageFailed:      "Failed to persist the offline queue",
	QueueRequestExpired:     "Queued request has expired",
	QueueInvalidRequest:     "Queued request is invalid",
	QueueMaxRetriesExceeded: "Queued request exceeded its retry limit",
}

var queueSeverity = map[OfflineQueueCode]Severity{
	QueueFull:           SeverityHigh,
	QueueStorageFailed:  SeverityHigh,
	QueueRequestExpired: SeverityLow,
}

var queueNonRetryable = map[OfflineQueueCode]bool{
	QueueRequestExpired:     true,
	QueueInvalidRequest:     true,
	QueueMaxRetriesExceeded: true,
}

// Valid reports whether c belongs to the offline queue code set.
func (c OfflineQueueCode) Valid() bool {
	_, ok := queueMessages[c]
	return ok
}

func (c OfflineQueueCode) DefaultMessage() string {
	return queueMessages[c]
}

func (c OfflineQueueCode) DefaultSeverity() Severity {
	if s, ok := queueSeverity[c]; ok {
		return s
	}
	return SeverityMedium
}

func (c OfflineQueueCode) DefaultRetryable() bool {
	return !queueNonRetryable[c]
}

// OfflineQueueError reports a failure while buffering or replaying requests.
type OfflineQueueError struct {
	base
	requestID string
	queueSize int
}

// NewOfflineQueueError builds an offline queue error. An empty code becomes SYNC_FAILED.
func NewOfflineQueueError(code OfflineQueueCode, opts ...Option) *OfflineQueueError {
	if code == "" {
		code = QueueSyncFailed
	}
	o := buildOptions(opts)
	return &OfflineQueueError{
		base: newBase(KindOfflineQueue, string(code), codeDefaults{
			message:   code.DefaultMessage(),
			severity:  code.DefaultSeverity(),
			retryable: code.DefaultRetryable(),
		}, o),
		requestID: o.requestID,
		queueSize: o.queueSize,
	}
}

func (e *OfflineQueueError) QueueCode() OfflineQueueCode { return OfflineQueueCode(e.code) }
func (e *OfflineQueueError) RequestID() string           { return e.requestID }
func (e *OfflineQueueError) QueueSize() int              { return e.queueSize }

func (e *OfflineQueueError) WithContext(ctx Fields) Error {
	cp := *e
	cp.base = e.base.withContext(ctx)
	return &cp
}

func (e *OfflineQueueError) Record() Record {
	r := e.record()
	r.RequestID = e.requestID
	r.QueueSize = e.queueSize
	return r
}

func (e *OfflineQueueError) MarshalJSON() ([]byte, error) {
	return marshalRecord(e.Record())
}
