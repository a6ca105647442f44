// Package transport builds the HTTP client OpenLock uses to talk to
// the LMS, optionally over a GM-TLS transport pinned to a specific CA.
package transport

import (
	"fmt"
	"os"

	"github.com/tjfoc/gmsm/gmtls"
	"github.com/tjfoc/gmsm/x509"
)

// TLSConfigOptions configures the GM-TLS transport mode.
type TLSConfigOptions struct {
	CAPath     string // pinned CA certificate verifying the LMS
	ServerName string // overrides the certificate CN check when connecting by IP
}

// buildGMTLSConfig loads the pinned CA and builds a GM-TLS config that
// trusts only it, rather than the system root store.
func buildGMTLSConfig(opts TLSConfigOptions) (*gmtls.Config, error) {
	caCert, err := os.ReadFile(opts.CAPath)
	if err != nil {
		return nil, fmt.Errorf("transport: read CA cert: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("transport: failed to parse CA cert")
	}

	return &gmtls.Config{
		RootCAs:    caCertPool,
		MinVersion: gmtls.VersionTLS12,
		ServerName: opts.ServerName,
	}, nil
}
