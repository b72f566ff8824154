// Package security groups the transport and access controls of the HTTP API.
//
// Subpackages:
//   - auth: API key authentication for /api/v1 routes
//   - tls: HTTPS with certificate reload on renewal
package security
