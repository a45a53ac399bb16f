package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	applog "kaslot/internal/log"
)

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
}

// Detector flags suspicious requests and resolves client addresses behind
// trusted proxies.
type Detector struct {
	metrics        *DetectionMetrics
	trustedProxies []*net.IPNet
	// OnSuspicious, when set, is called for every flagged request.
	OnSuspicious func(r *http.Request)
}

var defaultTrustedProxies = []string{
	"127.0.0.0/8",    // localhost
	"10.0.0.0/8",     // private networks
	"172.16.0.0/12",  // private networks
	"192.168.0.0/16", // private networks
}

// NewDetector trusts the given proxies, or the loopback and private ranges
// when none are given. Entries may be CIDRs or single addresses.
func NewDetector(trusted []string) (*Detector, error) {
	if len(trusted) == 0 {
		trusted = defaultTrustedProxies
	}
	d := &Detector{metrics: &DetectionMetrics{}}
	for _, entry := range trusted {
		if err := d.AddTrustedProxy(entry); err != nil {
			return nil, err
		}
	}
	return d, nil
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var suspiciousAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
}

// DetectSuspiciousRequest analyzes request patterns for potential threats
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	suspicious := false

	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}
	query = strings.ToLower(query)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			suspicious = true
			break
		}
	}

	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, agent := range suspiciousAgents {
		if strings.Contains(userAgent, agent) {
			suspicious = true
			break
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		suspicious = true
	}

	// Possible overflow attempt
	if len(r.URL.String()) > 2048 {
		suspicious = true
	}

	// More than 5 proxy hops
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		suspicious = true
	}

	if suspicious {
		atomic.AddInt64(&d.metrics.SuspiciousRequests, 1)
		if d.OnSuspicious != nil {
			d.OnSuspicious(r)
		}
	}

	return suspicious
}

// Middleware logs suspicious requests and lets them through. Blocking is
// left to the router: suspicious paths do not match any route.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.DetectSuspiciousRequest(r) {
			logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity)
			fields := applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), "").
				WithClientIP(d.ExtractClientIP(r))
			logger.WarnContext(r.Context(), "Suspicious request detected", fields.ToSlice()...)
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractClientIP extracts the real client IP, validating forwarded headers
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		return directIP
	}

	if d.isTrustedProxy(parsedDirectIP) {
		// X-Forwarded-For can contain multiple IPs, the first is the client
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns current security metrics
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.metrics.SuspiciousRequests),
	}
}

// AddTrustedProxy adds a trusted proxy network or address.
func (d *Detector) AddTrustedProxy(entry string) error {
	entry = strings.TrimSpace(entry)
	if !strings.Contains(entry, "/") {
		ip := net.ParseIP(entry)
		if ip == nil {
			return fmt.Errorf("invalid trusted proxy %q", entry)
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		entry = fmt.Sprintf("%s/%d", entry, bits)
	}
	_, network, err := net.ParseCIDR(entry)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", entry, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}
