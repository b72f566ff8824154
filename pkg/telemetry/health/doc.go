// Package health provides the liveness, readiness and version endpoints of
// the importcheck server.
//
//   - /health: the process is running
//   - /ready: every registered check passes (report store reachable, the
//     validator accepts its built-in sample export)
//   - /version: build information
//
// Checks run concurrently, each bounded by the checker's timeout:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("report_store", health.PingCheck(store))
//	checker.Register(mux, version, commit, buildTime)
package health
