package cassandra

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

// TLSSettings holds the certificate file paths for connecting over TLS.
// CAFile enables TLS; CertFile and KeyFile additionally enable mutual TLS.
type TLSSettings struct {
	CAFile   string
	CertFile string
	KeyFile  string
}

// GetTLSConfig creates a TLS config for connecting to the cluster,
// optionally over mTLS.
//
// Example usage:
//
// tls, err := GetTLSConfig(settings)
//
//	if err != nil {
//			return err
//	}
func GetTLSConfig(settings TLSSettings) (*tls.Config, error) {
	caCert, err := os.ReadFile(settings.CAFile)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to load CAfile")
	}

	caCertPool := x509.NewCertPool()
	caCertPool.AppendCertsFromPEM(caCert)

	config := &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}

	if settings.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(settings.CertFile, settings.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to load certfile/keyfile")
		}
		config.Certificates = []tls.Certificate{cert}
	}

	return config, nil
}
