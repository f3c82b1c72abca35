package utils

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr only", remoteAddr: "203.0.113.7:4242", want: "203.0.113.7"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{
			name:       "headers ignored without trust",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:       "10.0.0.1",
		},
		{
			name:       "cloudflare header wins",
			remoteAddr: "10.0.0.1:1",
			headers: map[string]string{
				"CF-Connecting-IP": "198.51.100.9",
				"X-Forwarded-For":  "198.51.100.1",
			},
			trustProxy: true,
			want:       "198.51.100.9",
		},
		{
			name:       "first forwarded hop",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.2"},
			trustProxy: true,
			want:       "198.51.100.1",
		},
		{
			name:       "garbage header falls through",
			remoteAddr: "10.0.0.1:1",
			headers: map[string]string{
				"X-Forwarded-For": "not-an-ip",
				"X-Real-IP":       "198.51.100.3",
			},
			trustProxy: true,
			want:       "198.51.100.3",
		},
		{name: "mapped ipv4 is unmapped", remoteAddr: "[::ffff:192.0.2.1]:80", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.5 ", "bogus", "", "2001:db8::/32"})

	tests := []struct {
		ip   string
		want bool
	}{
		{ip: "10.20.30.40", want: true},
		{ip: "192.168.1.5", want: true},
		{ip: "192.168.1.6", want: false},
		{ip: "::ffff:10.1.1.1", want: true},
		{ip: "2001:db8::42", want: true},
		{ip: "2001:db9::1", want: false},
		{ip: "not-an-ip", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := m.Allow(tt.ip); got != tt.want {
				t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}

	if m.IsEmpty() {
		t.Error("matcher with entries should not be empty")
	}
	if !NewIPMatcher([]string{"bogus"}).IsEmpty() {
		t.Error("matcher with only invalid entries should be empty")
	}
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestDrainClose(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("leftover")}

	DrainClose(body)

	if !body.closed {
		t.Error("body was not closed")
	}
	if n, _ := body.Read(make([]byte, 1)); n != 0 {
		t.Error("body was not drained")
	}
}
