package tls

import (
	"context"
	"crypto/x509"
	"io"
	"log/slog"
	"testing"
	"time"

	"mercator-hq/importcheck/pkg/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func subject(t *testing.T, r *CertificateReloader) string {
	t.Helper()
	x, err := x509.ParseCertificate(r.Certificate().Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	return x.Subject.CommonName
}

func TestNewCertificateReloader(t *testing.T) {
	now := time.Now()
	dir := t.TempDir()

	certFile, keyFile := writeCert(t, dir, "first", now.Add(-time.Hour), now.Add(24*time.Hour))
	r, err := NewCertificateReloader(certFile, keyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewCertificateReloader() error = %v", err)
	}
	if got := subject(t, r); got != "first" {
		t.Errorf("subject = %q, want first", got)
	}
	if err := r.Check(context.Background()); err != nil {
		t.Errorf("Check() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() without Start error = %v", err)
	}

	expiredCert, expiredKey := writeCert(t, t.TempDir(), "old", now.Add(-48*time.Hour), now.Add(-time.Hour))
	if _, err := NewCertificateReloader(expiredCert, expiredKey, WithLogger(quietLogger())); err == nil {
		t.Error("expired certificate should be rejected")
	}

	if _, err := NewCertificateReloader(dir+"/missing.crt", keyFile); err == nil {
		t.Error("missing certificate should be rejected")
	}
}

func TestCertificateReloaderFollowsRenewal(t *testing.T) {
	now := time.Now()
	dir := t.TempDir()

	certFile, keyFile := writeCert(t, dir, "first", now.Add(-time.Hour), now.Add(24*time.Hour))
	r, err := NewCertificateReloader(certFile, keyFile,
		WithLogger(quietLogger()),
		WithReloadDelay(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Close()

	writeCert(t, dir, "second", now.Add(-time.Hour), now.Add(48*time.Hour))

	deadline := time.Now().Add(5 * time.Second)
	for subject(t, r) != "second" {
		if time.Now().After(deadline) {
			t.Fatal("certificate was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}

	// An expired renewal is ignored.
	writeCert(t, dir, "expired", now.Add(-48*time.Hour), now.Add(-time.Hour))
	time.Sleep(200 * time.Millisecond)
	if got := subject(t, r); got != "second" {
		t.Errorf("subject = %q after an expired renewal, want second", got)
	}
}

func TestServerConfig(t *testing.T) {
	now := time.Now()
	certFile, keyFile := writeCert(t, t.TempDir(), "srv", now.Add(-time.Hour), now.Add(24*time.Hour))
	r, err := NewCertificateReloader(certFile, keyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := ServerConfig(config.TLSConfig{Enabled: true, MinVersion: "1.3"}, r)
	if err != nil {
		t.Fatalf("ServerConfig() error = %v", err)
	}
	if cfg.MinVersion != 0x0304 {
		t.Errorf("MinVersion = %x, want TLS 1.3", cfg.MinVersion)
	}
	cert, err := cfg.GetCertificate(nil)
	if err != nil || cert != r.Certificate() {
		t.Errorf("GetCertificate() = %v, %v", cert, err)
	}

	if _, err := ServerConfig(config.TLSConfig{MinVersion: "1.0"}, r); err == nil {
		t.Error("TLS 1.0 should be rejected")
	}
}
