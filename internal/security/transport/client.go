package transport

import (
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/tjfoc/gmsm/gmtls"

	"github.com/openlock/agent/internal/config"
)

// Mode selects which transport carries traffic to the LMS.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeGMTLS    Mode = "gmtls"
)

// Client wraps an *http.Client so every request can go through the
// same RequestOption pipeline the SEB header injector uses, whether
// the underlying transport is plain TLS or GM-TLS.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a Client per the agent configuration's transport mode.
// A cookie jar is always attached since the LMS session depends on
// standard cookie-based auth regardless of transport.
func NewClient(netCfg config.NetworkConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("transport: create cookie jar: %w", err)
	}

	httpTransport := &http.Transport{
		MaxIdleConns:    16,
		IdleConnTimeout: 90 * time.Second,
	}

	if Mode(netCfg.TransportMode) == ModeGMTLS {
		gmCfg, err := buildGMTLSConfig(TLSConfigOptions{CAPath: netCfg.GMTLSCAPath})
		if err != nil {
			return nil, err
		}
		httpTransport.DialTLS = func(network, addr string) (net.Conn, error) {
			return gmtls.Dial(network, addr, gmCfg)
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Jar:       jar,
			Transport: httpTransport,
		},
	}, nil
}

// Do builds the request, applies every RequestOption in order (this is
// where SEB header injection attaches its per-request hashes), and
// sends it.
func (c *Client) Do(method, url string, body []byte, opts ...RequestOption) (*http.Response, error) {
	req, err := newRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(req)
	}
	return c.httpClient.Do(req)
}
