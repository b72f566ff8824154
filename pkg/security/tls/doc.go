// Package tls serves the HTTP API over HTTPS.
//
// A CertificateReloader loads the configured certificate pair and reloads it
// when either file is written or replaced, so certificate renewals take
// effect without restarting the server. A pair that fails to load or has
// expired is rejected and the previous certificate keeps being served.
package tls
