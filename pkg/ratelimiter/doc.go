// Package ratelimiter implements in-memory token bucket rate limiting keyed
// by an arbitrary string, usually the client IP.
//
// Each key owns a bucket of Capacity tokens. RefillRate tokens are added
// every RefillInterval, up to Capacity. A request consumes one token (or n
// with AllowN) and is rejected, without consuming anything, when the
// bucket holds fewer tokens than requested.
//
//	limiter, err := ratelimiter.New(ratelimiter.Config{
//		Capacity:       20,
//		RefillRate:     20,
//		RefillInterval: time.Minute,
//	})
//
//	res, err := limiter.Allow(ctx, clientip.GetIP(r))
//	if !res.Allowed() {
//		w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter().Seconds())))
//	}
//
// Buckets that have been idle long enough to be full again carry no
// information and are dropped by the background cleanup:
//
//	eg.Go(limiter.Run(ctx))
package ratelimiter
