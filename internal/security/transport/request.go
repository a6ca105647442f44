package transport

import (
	"bytes"
	"net/http"
)

func newRequest(method, url string, body []byte) (*http.Request, error) {
	if body == nil {
		return http.NewRequest(method, url, nil)
	}
	return http.NewRequest(method, url, bytes.NewReader(body))
}
