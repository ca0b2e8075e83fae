// Package filter implements keyword and pattern rules applied to feed entries.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is a single filter rule. The set of implementations is closed: Keyword and Pattern.
type Rule interface {
	isRule()
	String() string
}

// Keyword matches when its value is a case-insensitive substring of the text
type Keyword struct {
	Value string
}

// Pattern matches when the regular expression finds a match anywhere in the text
type Pattern struct {
	Value           string
	CaseInsensitive bool
	Multiline       bool
	DotAll          bool

	re *regexp.Regexp
}

func (Keyword) isRule() {}
func (Pattern) isRule() {}

// String returns a short human-readable form, used on the status page
func (k Keyword) String() string { return fmt.Sprintf("keyword:%q", k.Value) }

// String returns a short human-readable form, used on the status page
func (p Pattern) String() string {
	if flags := p.flags(); flags != "" {
		return fmt.Sprintf("regex:/%s/%s", p.Value, flags)
	}
	return fmt.Sprintf("regex:/%s/", p.Value)
}

// NewPattern compiles the pattern with the given flags. Malformed patterns are rejected here,
// so rules built at configuration time never fail while matching.
func NewPattern(value string, caseInsensitive, multiline, dotAll bool) (Pattern, error) {
	p := Pattern{Value: value, CaseInsensitive: caseInsensitive, Multiline: multiline, DotAll: dotAll}
	re, err := p.compile()
	if err != nil {
		return Pattern{}, err
	}
	p.re = re
	return p, nil
}

// Match reports whether the pattern matches text
func (p Pattern) Match(text string) (bool, error) {
	re := p.re
	if re == nil {
		var err error
		if re, err = p.compile(); err != nil {
			return false, err
		}
	}
	return re.MatchString(text), nil
}

func (p Pattern) flags() string {
	var flags string
	if p.CaseInsensitive {
		flags += "i"
	}
	if p.Multiline {
		flags += "m"
	}
	if p.DotAll {
		flags += "s"
	}
	return flags
}

func (p Pattern) compile() (*regexp.Regexp, error) {
	expr := p.Value
	if flags := p.flags(); flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", p.Value, err)
	}
	return re, nil
}

// MatchesAny reports whether any rule matches text.
// An empty rule set passes everything; a non-empty set never matches empty text.
// The error is only possible for a Pattern that was not created by NewPattern and fails to compile.
func MatchesAny(text string, rules []Rule) (bool, error) {
	if len(rules) == 0 {
		return true, nil
	}
	if text == "" {
		return false, nil
	}

	lowered := strings.ToLower(text)
	for _, rule := range rules {
		switch r := rule.(type) {
		case Keyword:
			if strings.Contains(lowered, strings.ToLower(r.Value)) {
				return true, nil
			}
		case Pattern:
			ok, err := r.Match(text)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		default:
			return false, fmt.Errorf("unsupported rule type %T", rule)
		}
	}
	return false, nil
}
