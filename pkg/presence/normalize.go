package presence

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LogoutUser is the user identifier assigned to events that carry no uid.
const LogoutUser = "logout user"

// NormalizeUserID trims the raw identifier and falls back to LogoutUser when blank.
func NormalizeUserID(raw string) string {
	if uid := strings.TrimSpace(raw); uid != "" {
		return uid
	}
	return LogoutUser
}

// NormalizeClientID trims the raw identifier. An empty result means the
// identifier is invalid.
func NormalizeClientID(raw string) string {
	return strings.TrimSpace(raw)
}

// NormalizePath canonicalizes a page location into a comparison key.
//
// The value is lower-cased, gets exactly one leading slash and loses all
// trailing slashes. A query string is kept and makes the path a distinct
// identity; a fragment is dropped. Blank input maps to "/".
// NormalizePath is idempotent.
func NormalizePath(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "/"
	}

	// cases.Caser is stateful, so a fresh one is needed per call.
	value = cases.Lower(language.Und).String(value)

	if i := strings.IndexByte(value, '#'); i >= 0 {
		value = value[:i]
	}

	path, query, _ := strings.Cut(value, "?")

	path = strings.TrimRight(path, "/")
	path = "/" + strings.TrimLeft(path, "/")

	if query == "" {
		return path
	}
	return path + "?" + query
}
