package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kawahiro39/online-status-trygreen/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"remote addr", nil, "203.0.113.7:51234", "203.0.113.7"},
		{"remote addr ipv6", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "198.51.100.2"}, "10.0.0.1:80", "198.51.100.1"},
		{"digitalocean", map[string]string{"DO-Connecting-IP": "198.51.100.3"}, "10.0.0.1:80", "198.51.100.3"},
		{"forwarded for leftmost", map[string]string{"X-Forwarded-For": " 198.51.100.4 , 10.0.0.2, 10.0.0.3"}, "10.0.0.1:80", "198.51.100.4"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.5"}, "10.0.0.1:80", "198.51.100.5"},
		{"invalid header skipped", map[string]string{"CF-Connecting-IP": "nope", "X-Real-IP": "198.51.100.6"}, "10.0.0.1:80", "198.51.100.6"},
		{"unspecified rejected", map[string]string{"X-Real-IP": "0.0.0.0"}, "10.0.0.1:80", "10.0.0.1"},
		{"ipv4 mapped normalized", map[string]string{"X-Real-IP": "::ffff:192.0.2.1"}, "10.0.0.1:80", "192.0.2.1"},
		{"unparseable remote addr returned raw", nil, "pipe", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}
