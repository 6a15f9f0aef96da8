// Package presence tracks which users are viewing which pages, based on
// short-lived per-tab heartbeats.
//
// Every browser tab owns a client identifier. Each accepted ping stores the
// tab's user identifier and current path (the last ping wins). Users are
// aggregated on demand: a user is active when any of their tabs pinged
// within the active window, idle when the newest ping is older than that but
// still inside the close window. Sessions that stay silent for the close
// window are removed by the sweeper.
//
// An explicit leave deletes the tab's session and installs a tombstone for
// its client identifier. Until the tombstone expires, pings for that client
// are accepted but ignored, so a heartbeat delivered after the leave cannot
// bring the tab back.
//
// # Basic Usage
//
//	store := presence.NewStore(
//		presence.WithActiveWindow(30*time.Second),
//		presence.WithCloseWindow(3*time.Minute),
//		presence.WithLogger(log),
//	)
//
//	eg, ctx := errgroup.WithContext(ctx)
//	eg.Go(store.Run(ctx)) // background sweep
//
//	ev, err := presence.DecodeEvent(r.Body)
//	if err != nil {
//		// presence.ErrInvalidBody
//	}
//	res, err := store.Touch(ctx, ev)
//	if errors.Is(err, presence.ErrInvalidClientID) {
//		// reject
//	}
//	if res.Ignored == presence.IgnoredTombstoned {
//		// client left recently
//	}
//
//	summary := store.Summarize()
//
// # Normalization
//
// User identifiers are trimmed and default to LogoutUser. Client identifiers
// are trimmed; blank ones are invalid. Paths are lower-cased, get a single
// leading slash and no trailing slash, and keep their query string:
//
//	presence.NormalizePath("Test/")     // "/test"
//	presence.NormalizePath(" /tette/ ") // "/tette"
//	presence.NormalizePath("/A/?X=1")   // "/a?x=1"
//
// # Testing
//
// Inject a clock with WithClock to drive the active, close and tombstone
// windows without sleeping. Independent Store values never share state.
package presence
