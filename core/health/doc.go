// Package health provides liveness and readiness handlers.
//
//	r.Get("/livez", health.Liveness[*router.Context])
//	r.Get("/readyz", health.Readiness[*router.Context](log,
//		health.Check{Name: "sweeper", Fn: store.Healthcheck},
//	))
//
// Readiness answers 503 with the failing checks when any dependency is down.
package health
