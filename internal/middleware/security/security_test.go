package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	d, err := NewDetector()
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct public", "203.0.113.9:5000", "", "", "203.0.113.9"},
		{"public peer cannot spoof", "203.0.113.9:5000", "1.1.1.1", "", "203.0.113.9"},
		{"trusted proxy xff", "10.0.0.2:80", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "198.51.100.8", "198.51.100.8"},
		{"trusted proxy garbage", "192.168.1.1:80", "nope", "", "192.168.1.1"},
		{"ipv6 loopback", "[::1]:80", "2001:db8::1", "", "2001:db8::1"},
		{"unparseable remote", "pipe", "", "", "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				r.Header.Set("X-Real-IP", tc.xri)
			}
			if got := d.ClientIP(r); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAddTrustedProxyInvalid(t *testing.T) {
	if _, err := NewDetector("not-a-cidr"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDetectorMiddleware(t *testing.T) {
	d, _ := NewDetector()
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("TRACE", "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("TRACE = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/../.env", nil))
	if rec.Code != http.StatusNoContent || d.Suspicious() != 1 {
		t.Errorf("path traversal: code=%d suspicious=%d", rec.Code, d.Suspicious())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/", nil)
	req.Header.Set("User-Agent", "curl/8.0")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if d.Suspicious() != 1 {
		t.Errorf("curl must not be flagged")
	}
}

func TestHeaders(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("missing headers: %v", rec.Header())
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Errorf("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}
