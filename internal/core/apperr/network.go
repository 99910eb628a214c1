package apperr

// NetworkCode classifies transport and HTTP failures.
type NetworkCode string

const (
	NetworkConnectionFailed   NetworkCode = "CONNECTION_FAILED"
	NetworkTimeout            NetworkCode = "TIMEOUT"
	NetworkOffline            NetworkCode = "OFFLINE"
	NetworkServerError        NetworkCode = "SERVER_ERROR"
	NetworkBadRequest         NetworkCode = "BAD_REQUEST"
	NetworkNotFound           NetworkCode = "NOT_FOUND"
	NetworkConflict           NetworkCode = "CONFLICT"
	NetworkTooManyRequests    NetworkCode = "TOO_MANY_REQUESTS"
	NetworkServiceUnavailable NetworkCode = "SERVICE_UNAVAILABLE"
	NetworkGatewayTimeout     NetworkCode = "GATEWAY_TIMEOUT"
	NetworkGeneric            NetworkCode = "NETWORK_ERROR"
	NetworkCORSError          NetworkCode = "CORS_ERROR"
)

// NetworkCodes lists the closed set of network codes.
var NetworkCodes = []NetworkCode{
	NetworkConnectionFailed, NetworkTimeout, NetworkOffline, NetworkServerError,
	NetworkBadRequest, NetworkNotFound, NetworkConflict, NetworkTooManyRequests,
	NetworkServiceUnavailable, NetworkGatewayTimeout, NetworkGeneric, NetworkCORSError,
}

var networkMessages = map[NetworkCode]string{
	NetworkConnectionFailed:   "Failed to connect to the server",
	NetworkTimeout:            "Request timed out",
	NetworkOffline:            "You appear to be offline",
	NetworkServerError:        "The server encountered an error",
	NetworkBadRequest:         "The request was invalid",
	NetworkNotFound:           "The requested resource was not found",
	NetworkConflict:           "The request conflicts with the current state",
	NetworkTooManyRequests:    "Too many requests, please slow down",
	NetworkServiceUnavailable: "Service is temporarily unavailable",
	NetworkGatewayTimeout:     "Gateway timed out waiting for the server",
	NetworkGeneric:            "A network error occurred",
	NetworkCORSError:          "Cross-origin request was blocked",
}

var networkSeverity = map[NetworkCode]Severity{
	NetworkServerError:        SeverityHigh,
	NetworkServiceUnavailable: SeverityHigh,
	NetworkCORSError:          SeverityHigh,
	NetworkNotFound:           SeverityLow,
}

var networkNonRetryable = map[NetworkCode]bool{
	NetworkBadRequest: true,
	NetworkNotFound:   true,
	NetworkConflict:   true,
	NetworkCORSError:  true,
}

// Valid reports whether c belongs to the network code set.
func (c NetworkCode) Valid() bool {
	_, ok := networkMessages[c]
	return ok
}

func (c NetworkCode) DefaultMessage() string {
	return networkMessages[c]
}

func (c NetworkCode) DefaultSeverity() Severity {
	if s, ok := networkSeverity[c]; ok {
		return s
	}
	return SeverityMedium
}

func (c NetworkCode) DefaultRetryable() bool {
	return !networkNonRetryable[c]
}

// NetworkError wraps a failed request to an API route or upstream service.
type NetworkError struct {
	base
	url        string
	method     string
	statusCode int
}

// NewNetworkError builds a network error. An empty code becomes NETWORK_ERROR.
func NewNetworkError(code NetworkCode, opts ...Option) *NetworkError {
	if code == "" {
		code = NetworkGeneric
	}
	o := buildOptions(opts)
	return &NetworkError{
		base: newBase(KindNetwork, string(code), codeDefaults{
			message:   code.DefaultMessage(),
			severity:  code.DefaultSeverity(),
			retryable: code.DefaultRetryable(),
		}, o),
		url:        o.url,
		method:     o.method,
		statusCode: o.statusCode,
	}
}

func (e *NetworkError) NetworkCode() NetworkCode { return NetworkCode(e.code) }
func (e *NetworkError) URL() string              { return e.url }
func (e *NetworkError) Method() string           { return e.method }
func (e *NetworkError) StatusCode() int          { return e.statusCode }

func (e *NetworkError) WithContext(ctx Fields) Error {
	cp := *e
	cp.base = e.base.withContext(ctx)
	return &cp
}

func (e *NetworkError) Record() Record {
	r := e.record()
	r.URL = e.url
	r.Method = e.method
	r.StatusCode = e.statusCode
	return r
}

func (e *NetworkError) MarshalJSON() ([]byte, error) {
	return marshalRecord(e.Record())
}
