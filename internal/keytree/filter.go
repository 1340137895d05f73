package keytree

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Filter decides whether a raw key takes part in a render pass.
type Filter interface {
	Match(key string) bool
	String() string
}

// SubstringFilter keeps keys containing the query verbatim.
type SubstringFilter string

func (f SubstringFilter) Match(key string) bool { return strings.Contains(key, string(f)) }
func (f SubstringFilter) String() string        { return string(f) }

// RegexpFilter keeps keys matching a regular expression anywhere.
type RegexpFilter struct {
	re *regexp.Regexp
}

func (f RegexpFilter) Match(key string) bool { return f.re.MatchString(key) }
func (f RegexpFilter) String() string        { return "re:" + f.re.String() }

// FuzzyFilter keeps keys that contain the query's characters in order,
// ignoring case and diacritics.
type FuzzyFilter string

func (f FuzzyFilter) Match(key string) bool {
	return fuzzy.MatchNormalizedFold(string(f), key)
}

func (f FuzzyFilter) String() string { return "~" + string(f) }

// ParseFilter builds a filter from a user expression. An empty expression
// yields a nil filter. "re:" selects a regular expression and "~" a fuzzy
// match; anything else is a plain substring.
func ParseFilter(expr string) (Filter, error) {
	switch {
	case expr == "":
		return nil, nil
	case strings.HasPrefix(expr, "re:"):
		re, err := regexp.Compile(strings.TrimPrefix(expr, "re:"))
		if err != nil {
			return nil, fmt.Errorf("invalid key filter %q: %w", expr, err)
		}
		return RegexpFilter{re: re}, nil
	case strings.HasPrefix(expr, "~"):
		query := strings.TrimPrefix(expr, "~")
		if query == "" {
			return nil, nil
		}
		return FuzzyFilter(query), nil
	default:
		return SubstringFilter(expr), nil
	}
}
