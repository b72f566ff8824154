/*
Package auth authenticates API clients by key.

Keys come from server.auth in the configuration:

	server:
	  auth:
	    enabled: true
	    header: X-API-Key
	    keys:
	      - name: ci
	        key_env: IMPORTCHECK_CI_KEY
	      - name: ops-laptop
	        key: 4f0c9b2e7a
	        disabled: true

A request may present its key in the configured header or as
"Authorization: Bearer <key>". The server rejects unauthenticated requests
to /api/v1 with 401; health, readiness, version and metrics stay open.

Key values are never logged. Only the client name is.
*/
package auth
