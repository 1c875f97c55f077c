// Package security resolves client addresses and applies response hardening.
package security

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"

	"finwise/internal/log"
)

// Detector resolves client IPs behind trusted proxies and flags requests
// that look like scans.
type Detector struct {
	trustedProxies []netip.Prefix
	suspicious     atomic.Int64
}

var defaultTrusted = []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "::1/128"}

// NewDetector trusts loopback and private networks plus any extra CIDRs.
func NewDetector(extraTrusted ...string) (*Detector, error) {
	d := &Detector{}
	for _, cidr := range append(append([]string(nil), defaultTrusted...), extraTrusted...) {
		if err := d.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, p.Masked())
	return nil
}

func (d *Detector) isTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range d.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address. Forwarding headers are honoured
// only when the direct peer is a trusted proxy.
func (d *Detector) ClientIP(r *http.Request) string {
	direct, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if !d.isTrustedProxy(direct.Addr()) {
		return direct.Addr().String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.String()
		}
	}
	return direct.Addr().String()
}

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"<script", "javascript:", "union select", "etc/passwd", "cmd.exe",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan"}
)

// IsSuspicious reports whether r matches a known probing pattern.
func (d *Detector) IsSuspicious(r *http.Request) bool {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, p := range suspiciousPatterns {
		if strings.Contains(target, p) {
			return true
		}
	}
	ua := strings.ToLower(r.UserAgent())
	for _, a := range scannerAgents {
		if strings.Contains(ua, a) {
			return true
		}
	}
	if len(r.URL.String()) > 2048 {
		return true
	}
	return strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5
}

// Suspicious returns how many suspicious requests were seen.
func (d *Detector) Suspicious() int64 {
	return d.suspicious.Load()
}

// Middleware rejects TRACE/TRACK and logs suspicious requests before passing
// them on.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "TRACE" || r.Method == "TRACK" {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if d.IsSuspicious(r) {
			d.suspicious.Add(1)
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, d.ClientIP(r),
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}
