// Package server wraps http.Server with graceful shutdown, env-driven
// configuration and errgroup-friendly lifecycle helpers.
//
// # Basic Usage
//
//	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	eg, ctx := errgroup.WithContext(ctx)
//	eg.Go(srv.Run(ctx, router))
//	return eg.Wait()
//
// Run serves until ctx is canceled and then calls Stop, which waits up to
// the shutdown timeout for in-flight requests. Request contexts are canceled
// when shutdown begins, which also ends hijacked connections such as
// WebSocket streams.
//
// # Configuration
//
// Config is loaded from the environment:
//
//	HTTP_HOST                 listen host (default 0.0.0.0)
//	PORT                      listen port (default 8080, 0 picks a free port)
//	SERVER_READ_TIMEOUT       default 15s
//	SERVER_WRITE_TIMEOUT      default 15s
//	SERVER_IDLE_TIMEOUT       default 60s
//	SERVER_SHUTDOWN_TIMEOUT   default 10s
//	SERVER_MAX_HEADER_BYTES   default 1MB
//	SERVER_TLS_CERT_FILE      enables TLS together with the key file
//	SERVER_TLS_KEY_FILE
//
// Addr reports the bound address once Ready is closed, which is how tests
// discover the port when listening on port 0.
package server
