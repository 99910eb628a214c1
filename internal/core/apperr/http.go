package apperr

import "net/http"

// FromHTTPStatus classifies a non-2xx response from an API route.
// 401 and 403 become auth errors; everything else is a network error.
func FromHTTPStatus(status int, url, method string, opts ...Option) Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		code := AuthUnauthorized
		if status == http.StatusForbidden {
			code = AuthForbidden
		}
		req := Fields{"url": url, "method": method, "statusCode": status}
		return NewAuthError(code, append([]Option{WithContext(req)}, opts...)...)
	}

	code := NetworkGeneric
	switch {
	case status == http.StatusBadRequest:
		code = NetworkBadRequest
	case status == http.StatusNotFound:
		code = NetworkNotFound
	case status == http.StatusConflict:
		code = NetworkConflict
	case status == http.StatusRequestTimeout:
		code = NetworkTimeout
	case status == http.StatusTooManyRequests:
		code = NetworkTooManyRequests
	case status == http.StatusServiceUnavailable:
		code = NetworkServiceUnavailable
	case status == http.StatusGatewayTimeout:
		code = NetworkGatewayTimeout
	case status >= 500:
		code = NetworkServerError
	}

	opts = append([]Option{WithURL(url), WithMethod(method), WithStatusCode(status)}, opts...)
	return NewNetworkError(code, opts...)
}
