package scaler

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// NewTLSClientConfig builds the client-side TLS configuration for TLS
// mode. An empty caPath falls back to the system roots.
func NewTLSClientConfig(caPath, serverName string) (*tls.Config, error) {
	roots, err := loadRoots(caPath)
	if err != nil {
		return nil, err
	}

	return &tls.Config{RootCAs: roots, ServerName: serverName}, nil
}

func loadRoots(caPath string) (*x509.CertPool, error) {
	if caPath == "" {
		return nil, nil
	}

	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", caPath, err)
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no root certs found in %s", caPath)
	}
	return roots, nil
}
