package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
)

// Filter selects tests by name.
type Filter struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

// Accepts reports whether a test with the given name passes the filter.
func (f Filter) Accepts(name string) bool {
	return (!f.MustMatch.IsDefined() || f.MustMatch.AnyMatch(name)) &&
		!f.MustNotMatch.AnyMatch(name)
}

// IsDefined reports whether the filter rejects anything at all.
func (f Filter) IsDefined() bool {
	return f.MustMatch.IsDefined() || f.MustNotMatch.IsDefined()
}

// Describe renders the filter for humans, or "" if it is not defined.
func (f Filter) Describe() string {
	var parts []string
	if f.MustMatch.IsDefined() {
		parts = append(parts, "skip any not matching "+f.MustMatch.String())
	}
	if f.MustNotMatch.IsDefined() {
		parts = append(parts, "skip any matching "+f.MustNotMatch.String())
	}
	return strings.Join(parts, "; ")
}

// RegexList is a list of patterns, usable as a repeatable command line flag.
type RegexList struct {
	patterns []*regexp.Regexp
}

var _ pflag.Value = (*RegexList)(nil)

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

// Type names the flag value type in help output.
func (r *RegexList) Type() string {
	return "regex"
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
