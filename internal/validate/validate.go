// Package validate checks user-entered values before they reach a
// system command or config file.
package validate

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	domainRe = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
	emailRe  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	schemeRe = regexp.MustCompile(`(?i)^https?://`)
	digitsRe = regexp.MustCompile(`^\d+$`)
)

// Domain accepts a fully qualified host name such as "app.example.com".
func Domain(s string) error {
	switch {
	case s == "":
		return errors.New("domain cannot be empty")
	case len(s) > 253:
		return errors.New("domain name too long")
	case !domainRe.MatchString(s):
		return errors.New("invalid domain format")
	}
	return nil
}

// Port accepts 1-65535.
func Port(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("port must be a number")
	}
	if n < 1 || n > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}

// IP accepts an IPv4 or IPv6 address, or "localhost".
func IP(s string) error {
	if s == "localhost" || net.ParseIP(s) != nil {
		return nil
	}
	return errors.New("invalid IP address format")
}

// Email accepts a plain user@host.tld address.
func Email(s string) error {
	if s == "" {
		return errors.New("email cannot be empty")
	}
	if !emailRe.MatchString(s) {
		return errors.New("invalid email format")
	}
	return nil
}

// URL accepts absolute http and https URLs with a host.
func URL(s string) error {
	if s == "" {
		return errors.New("URL cannot be empty")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("invalid URL format")
	}
	return nil
}

// NormalizeProxyURL turns a bare port into a loopback URL and adds
// http:// to scheme-less targets:
//
//	"5001"             -> "http://127.0.0.1:5001"
//	"localhost:5001"   -> "http://localhost:5001"
//	"https://app.test" -> unchanged
func NormalizeProxyURL(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case schemeRe.MatchString(s):
		return s
	case digitsRe.MatchString(s):
		return "http://127.0.0.1:" + s
	}
	return "http://" + s
}

// ProxyTarget normalizes s and checks the result is a usable URL.
func ProxyTarget(s string) (string, error) {
	target := NormalizeProxyURL(s)
	if err := URL(target); err != nil {
		return "", fmt.Errorf("proxy target %q: %w", s, err)
	}
	return target, nil
}
