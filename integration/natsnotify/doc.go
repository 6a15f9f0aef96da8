// Package natsnotify publishes presence changes to NATS.
//
// Each join, move, leave and expire emitted by a presence.Store becomes a
// JSON message on "<prefix>.<kind>". Messages are published in seq order:
//
//	presence.event.join   {"seq":1,"kind":"join","clientId":"c-1","uid":"u-1","path":"/home","at":"..."}
//	presence.event.leave  {"seq":2,"kind":"leave","clientId":"c-1","uid":"u-1","path":"/home","at":"..."}
//
// Usage:
//
//	nc, err := natsnotify.Connect(cfg.NATS, log)
//	if err != nil {
//		return err
//	}
//	defer natsnotify.Drain(nc, cfg.NATS.DrainTimeout)
//
//	store := presence.NewStore(
//		presence.WithNotifier(natsnotify.NewNotifier(nc, cfg.NATS.SubjectPrefix, log)),
//	)
//
// Configuration comes from NATS_URL, NATS_USER, NATS_PASS, NATS_CLIENT_NAME,
// NATS_SUBJECT_PREFIX, NATS_RECONNECT_WAIT and NATS_DRAIN_TIMEOUT. Without
// NATS_URL notifications are disabled.
package natsnotify
