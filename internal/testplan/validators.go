package testplan

import (
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Validator checks a candidate value. It returns the normalized value and
// true if the candidate is acceptable.
type Validator func(candidate string) (string, bool)

var hostnamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

// HostnameValidate accepts DNS hostnames and IP addresses, optionally
// followed by a port. IPv6 addresses need brackets and a port.
func HostnameValidate(candidate string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	host := normalized
	if strings.Contains(normalized, ":") {
		h, portStr, err := net.SplitHostPort(normalized)
		if err != nil {
			return "", false
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return "", false
		}
		host = h
	}
	if !validHost(host) {
		return "", false
	}
	return normalized, true
}

func validHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	if !hostnamePattern.MatchString(host) {
		return false
	}
	// An all-numeric top label is an IPv4 address or nothing.
	top := host[strings.LastIndexByte(host, '.')+1:]
	return strings.IndexFunc(top, func(r rune) bool { return r < '0' || r > '9' }) >= 0
}

// EmailValidate accepts bare e-mail addresses such as joe@example.com.
func EmailValidate(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	addr, err := mail.ParseAddress(candidate)
	if err != nil || addr.Address != candidate || addr.Name != "" {
		return "", false
	}
	at := strings.LastIndexByte(candidate, '@')
	if _, ok := HostnameValidate(candidate[at+1:]); !ok {
		return "", false
	}
	return candidate, true
}

// HTTPHTTPSAcctURIValidate accepts absolute http and https URIs with a
// valid host and acct URIs of the form acct:user@host.
func HTTPHTTPSAcctURIValidate(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	u, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "http", "https":
		if _, ok := HostnameValidate(u.Host); !ok {
			return "", false
		}
		return candidate, true
	case "acct":
		at := strings.LastIndexByte(u.Opaque, '@')
		if at <= 0 {
			return "", false
		}
		if _, ok := HostnameValidate(u.Opaque[at+1:]); !ok {
			return "", false
		}
		return candidate, true
	default:
		return "", false
	}
}

// BooleanParseValidate accepts the usual spellings of a boolean and
// normalizes them to "true" or "false".
func BooleanParseValidate(candidate string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(candidate)) {
	case "true", "t", "yes", "y", "on", "1":
		return "true", true
	case "false", "f", "no", "n", "off", "0":
		return "false", true
	default:
		return "", false
	}
}

// RoleTagValid reports whether s can be used as a symbolic role tag: it
// must be non-empty and must not contain whitespace.
func RoleTagValid(s string) bool {
	return s != "" && strings.IndexFunc(s, unicode.IsSpace) < 0
}
