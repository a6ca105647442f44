package transport

import "net/http"

// RequestOption mutates an outgoing *http.Request before it is sent.
type RequestOption func(*http.Request)

func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

func WithoutHeader(key string) RequestOption {
	return func(req *http.Request) {
		req.Header.Del(key)
	}
}

func WithContentType(contentType string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set("Content-Type", contentType)
	}
}

// WithHeaders applies a whole header set at once, as produced by
// sebcrypto.RequestHeaders.
func WithHeaders(headers map[string]string) RequestOption {
	return func(req *http.Request) {
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}
}
