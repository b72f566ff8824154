package tls

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay collapses the burst of events a certificate renewal
// produces into one reload.
const DefaultReloadDelay = 500 * time.Millisecond

// CertificateReloader serves a certificate pair and reloads it when either
// file changes. The parent directories are watched rather than the files so
// renewals that replace files by rename are seen.
type CertificateReloader struct {
	certFile string
	keyFile  string
	delay    time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	cert *tls.Certificate

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// ReloaderOption configures a CertificateReloader.
type ReloaderOption func(*CertificateReloader)

// WithReloadDelay sets how long to wait after the last file event.
func WithReloadDelay(d time.Duration) ReloaderOption {
	return func(r *CertificateReloader) { r.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ReloaderOption {
	return func(r *CertificateReloader) { r.logger = l }
}

// NewCertificateReloader loads the pair once. Call Start to follow changes.
func NewCertificateReloader(certFile, keyFile string, opts ...ReloaderOption) (*CertificateReloader, error) {
	r := &CertificateReloader{
		certFile: certFile,
		keyFile:  keyFile,
		delay:    DefaultReloadDelay,
		logger:   slog.Default(),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "tls")

	if err := r.reload(); err != nil {
		return nil, err
	}
	r.logCertificate("certificate loaded")
	return r, nil
}

// Start watches the certificate files until ctx is done or Close is called.
func (r *CertificateReloader) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create certificate watcher: %w", err)
	}

	dirs := map[string]bool{
		filepath.Dir(r.certFile): true,
		filepath.Dir(r.keyFile):  true,
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	r.watcher = w

	go r.loop(ctx)
	return nil
}

func (r *CertificateReloader) loop(ctx context.Context) {
	defer close(r.done)

	timer := time.NewTimer(r.delay)
	timer.Stop()
	defer timer.Stop()

	cert, _ := filepath.Abs(r.certFile)
	key, _ := filepath.Abs(r.keyFile)

	for {
		select {
		case <-ctx.Done():
			r.watcher.Close()
			return

		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			name, _ := filepath.Abs(ev.Name)
			if name != cert && name != key {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(r.delay)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("certificate watcher error", "error", err)

		case <-timer.C:
			if err := r.reload(); err != nil {
				// Keep serving the previous certificate.
				r.logger.Error("failed to reload certificate",
					"error", err,
					"cert_file", r.certFile,
					"key_file", r.keyFile,
				)
				continue
			}
			r.logCertificate("certificate reloaded")
		}
	}
}

// Close stops watching. It is safe to call without Start.
func (r *CertificateReloader) Close() error {
	if r.watcher == nil {
		return nil
	}
	err := r.watcher.Close()
	<-r.done
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}

func (r *CertificateReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	if err := ValidateCertificate(&cert, r.now()); err != nil {
		return err
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()
	return nil
}

// Certificate returns the current certificate.
func (r *CertificateReloader) Certificate() *tls.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert
}

// GetCertificateFunc adapts the reloader to tls.Config.GetCertificate.
func (r *CertificateReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		return r.Certificate(), nil
	}
}

// Check fails once the served certificate has expired. It is registered as a
// readiness check.
func (r *CertificateReloader) Check(context.Context) error {
	return ValidateCertificate(r.Certificate(), r.now())
}

func (r *CertificateReloader) logCertificate(msg string) {
	cert := r.Certificate()
	x, err := leaf(cert)
	if err != nil {
		return
	}
	left, _ := TimeUntilExpiry(cert, r.now())

	attrs := []any{
		"subject", x.Subject.CommonName,
		"issuer", x.Issuer.CommonName,
		"expires_at", x.NotAfter.Format(time.RFC3339),
		"expires_in_days", int(left.Hours() / 24),
	}
	if left < ExpiryWarning {
		r.logger.Warn("certificate expiring soon", attrs...)
		return
	}
	r.logger.Info(msg, attrs...)
}
