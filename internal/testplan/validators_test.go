package testplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostnameValidate(t *testing.T) {
	tests := []struct {
		candidate string
		want      string
		valid     bool
	}{
		{"example.com", "example.com", true},
		{"Example.COM", "example.com", true},
		{"localhost", "localhost", true},
		{"127.0.0.1:8443", "127.0.0.1:8443", true},
		{"mastodon.example:443", "mastodon.example:443", true},
		{"", "", false},
		{"not a host", "", false},
		{"-leading.example", "", false},
		{"example.com:0", "", false},
		{"example.com:70000", "", false},
		{"example.com:http", "", false},
		{"under_score.example", "", false},
		{"[::1]:8080", "[::1]:8080", true},
		{"a:80:90", "", false},
		{"example.com:1:2:3", "", false},
		{"1.2.3.4.5.6", "", false},
		{"999.1.1.1", "", false},
		{"example.com:", "", false},
		{":443", "", false},
		{"::1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			got, ok := HostnameValidate(tt.candidate)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmailValidate(t *testing.T) {
	_, ok := EmailValidate("joe@example.com")
	assert.True(t, ok)

	for _, candidate := range []string{"joe", "Joe <joe@example.com>", "joe@", "joe@bad host"} {
		_, ok := EmailValidate(candidate)
		assert.False(t, ok, candidate)
	}
}

func TestHTTPHTTPSAcctURIValidate(t *testing.T) {
	for _, candidate := range []string{
		"https://example.com/users/joe",
		"http://localhost:3000/",
		"acct:joe@example.com",
	} {
		got, ok := HTTPHTTPSAcctURIValidate(candidate)
		assert.True(t, ok, candidate)
		assert.Equal(t, candidate, got)
	}

	for _, candidate := range []string{
		"ftp://example.com/",
		"acct:example.com",
		"acct:@example.com",
		"https:///nohost",
		"mailto:joe@example.com",
	} {
		_, ok := HTTPHTTPSAcctURIValidate(candidate)
		assert.False(t, ok, candidate)
	}
}

func TestBooleanParseValidate(t *testing.T) {
	for _, candidate := range []string{"true", "Yes", "1", "on"} {
		got, ok := BooleanParseValidate(candidate)
		assert.True(t, ok)
		assert.Equal(t, "true", got)
	}
	for _, candidate := range []string{"false", "NO", "0", "off"} {
		got, ok := BooleanParseValidate(candidate)
		assert.True(t, ok)
		assert.Equal(t, "false", got)
	}
	_, ok := BooleanParseValidate("maybe")
	assert.False(t, ok)
}

func TestRoleTagValid(t *testing.T) {
	assert.True(t, RoleTagValid("role1"))
	assert.False(t, RoleTagValid(""))
	assert.False(t, RoleTagValid("two words"))
}
