package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/security/auth"
	tlsutil "mercator-hq/importcheck/pkg/security/tls"
	"mercator-hq/importcheck/pkg/telemetry"
	"mercator-hq/importcheck/pkg/telemetry/health"
)

func TestAuth(t *testing.T) {
	a, err := auth.NewAuthenticator(config.AuthConfig{
		Enabled: true,
		Keys: []config.APIKeyConfig{
			{Name: "ci", Key: "ci-key"},
			{Name: "old", Key: "old-key", Disabled: true},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	handler := newTestServer(t,
		WithAuth(a),
		WithStorage(seedReports(t)),
		WithHealth(health.New(time.Second), telemetry.BuildInfo{Version: "1.0.0"}),
	).Handler()

	tests := []struct {
		name       string
		method     string
		target     string
		headers    map[string]string
		wantStatus int
	}{
		{"validate without key", http.MethodPost, "/api/v1/validate", nil, http.StatusUnauthorized},
		{"validate with key", http.MethodPost, "/api/v1/validate", map[string]string{"X-API-Key": "ci-key"}, http.StatusOK},
		{"bearer key", http.MethodPost, "/api/v1/validate", map[string]string{"Authorization": "Bearer ci-key"}, http.StatusOK},
		{"disabled key", http.MethodPost, "/api/v1/validate", map[string]string{"X-API-Key": "old-key"}, http.StatusUnauthorized},
		{"reports without key", http.MethodGet, "/api/v1/reports", nil, http.StatusUnauthorized},
		{"reports with key", http.MethodGet, "/api/v1/reports", map[string]string{"X-API-Key": "ci-key"}, http.StatusOK},
		{"health stays open", http.MethodGet, "/health", nil, http.StatusOK},
		{"version stays open", http.MethodGet, "/version", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(validYAML))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Code != http.StatusUnauthorized {
				return
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if body.Error.Type != errTypeUnauthorized || body.Error.RequestID == "" {
				t.Errorf("error = %+v", body.Error)
			}
		})
	}
}

func writeTestCert(t *testing.T, dir string) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		DNSNames:     []string{"localhost"},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	certFile := filepath.Join(dir, "tls.crt")
	keyFile := filepath.Join(dir, "tls.key")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile
}

func TestStartTLS(t *testing.T) {
	certFile, keyFile := writeTestCert(t, t.TempDir())
	certs, err := tlsutil.NewCertificateReloader(certFile, keyFile, tlsutil.WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}

	service := imports.NewService(imports.WithLogger(quietLogger))
	srv := New(&config.ServerConfig{
		ListenAddress: "127.0.0.1:0",
		TLS:           config.TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile, MinVersion: "1.3"},
	}, service, WithLogger(quietLogger), WithTLS(certs))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(ctx, 5*time.Second)
	defer addrCancel()
	addr, err := srv.Addr(addrCtx)
	if err != nil {
		t.Fatalf("Addr: %v", err)
	}
	port := addr.String()[strings.LastIndex(addr.String(), ":"):]

	pool := x509.NewCertPool()
	caPEM, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatal(err)
	}
	pool.AppendCertsFromPEM(caPEM)
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}}}

	resp, err := client.Post("https://localhost"+port+"/api/v1/validate", "application/yaml", strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.TLS == nil || resp.TLS.Version != tls.VersionTLS13 {
		t.Errorf("connection state = %+v, want TLS 1.3", resp.TLS)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
