// Package clientip extracts the originating client IP address from an HTTP
// request served behind proxies, load balancers or CDNs.
//
// Headers are checked in this order, and the first one holding a valid
// address wins:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry)
//  4. X-Real-IP
//  5. RemoteAddr
//
// Addresses are normalized with net.IP.String. The unspecified address
// 0.0.0.0 is rejected. When nothing valid is found GetIP returns the raw
// RemoteAddr.
//
//	ip := clientip.GetIP(r)
//
// Proxy headers are client controlled unless a trusted proxy overwrites
// them; use the value for logging, not for authorization.
package clientip
