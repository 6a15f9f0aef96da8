// Package onlinestatus is the online presence service: it wires a
// presence.Store to the HTTP routes, CORS, logging and the optional NATS
// change feed, and runs the server and sweeper until shutdown.
//
// Routes:
//
//	POST /presence/ping           heartbeat {uid?, path?, clientId}
//	POST /presence/hit            same as ping
//	POST /presence/leave          close a tab {uid?, path?, clientId}
//	GET  /presence/summary        {ok, active:[{uid,paths}], idle:[...]}
//	GET  /presence/stream         WebSocket pushing the summary
//	GET  /presence/debug/sessions raw store dump, not in production
//	GET  /healthz                 sweeps, then {ok, sessions}
//	GET  /livez, /readyz          probes
//
// Failed requests answer {"ok":false,"error":"<code>"}.
package onlinestatus
