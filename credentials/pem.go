package credentials

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"
)

// parseKeyPair parses a PEM-encoded certificate/key pair and extracts the
// leaf expiry so providers can report credential state.
func parseKeyPair(certPEM, keyPEM []byte) (tls.Certificate, time.Time, error) {
	if len(certPEM) == 0 || len(keyPEM) == 0 {
		return tls.Certificate{}, time.Time{}, fmt.Errorf("credentials: certificate and key material are required")
	}
	certificate, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, time.Time{}, fmt.Errorf("credentials: parse key pair: %w", err)
	}

	expiry := time.Time{}
	if len(certificate.Certificate) > 0 {
		leaf, parseErr := x509.ParseCertificate(certificate.Certificate[0])
		if parseErr == nil {
			certificate.Leaf = leaf
			expiry = leaf.NotAfter.UTC()
		}
	}
	return certificate, expiry, nil
}

// parsePool builds a trust pool from PEM-encoded CA material. Empty input
// yields a nil pool, which defers to the system roots.
func parsePool(caPEM []byte) (*x509.CertPool, error) {
	if len(caPEM) == 0 {
		return nil, nil
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("credentials: trust material contains no usable certificates")
	}
	return pool, nil
}
