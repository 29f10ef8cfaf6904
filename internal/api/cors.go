package api

import (
	"fmt"
	"regexp"
	"strings"
)

// OriginMatcher decides which browser origins may call the API.
type OriginMatcher struct {
	exact    string
	patterns []*regexp.Regexp
}

// NewOriginMatcher allows frontendURL exactly plus any origin matching one of patterns.
func NewOriginMatcher(frontendURL string, patterns []string) (*OriginMatcher, error) {
	m := &OriginMatcher{exact: strings.TrimRight(frontendURL, "/")}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid CORS origin pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Allow implements middleware.CORSConfig.AllowOriginFunc.
func (m *OriginMatcher) Allow(origin string) (bool, error) {
	if origin == "" {
		return false, nil
	}
	if m.exact != "" && origin == m.exact {
		return true, nil
	}
	for _, re := range m.patterns {
		if re.MatchString(origin) {
			return true, nil
		}
	}
	return false, nil
}
