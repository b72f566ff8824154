package tls

import (
	"crypto/tls"
	"fmt"

	"mercator-hq/importcheck/pkg/config"
)

// ServerConfig builds the crypto/tls configuration for the HTTP server.
// Certificates are served from r so renewals take effect without a restart.
func ServerConfig(cfg config.TLSConfig, r *CertificateReloader) (*tls.Config, error) {
	version, err := ParseVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion:     version,
		GetCertificate: r.GetCertificateFunc(),
	}, nil
}

// ParseVersion maps "1.2" and "1.3" to tls version constants. Empty means 1.2.
func ParseVersion(v string) (uint16, error) {
	switch v {
	case "1.2", "":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q (want 1.2 or 1.3)", v)
	}
}
