package scan

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"solana-token-radar/internal/cache"
	"solana-token-radar/internal/domain"
)

// addressCandidate matches base58 runs of plausible Solana address length.
// Candidates still go through full validation before they count.
var addressCandidate = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

// Filter decides whether a mention passes a source's keyword and pattern
// configuration. Compiled regexes are cached so hot sources do not
// recompile on every scan.
type Filter struct {
	patterns *cache.Cache[*regexp.Regexp]
}

func NewFilter() *Filter {
	return &Filter{patterns: cache.New[*regexp.Regexp](time.Hour, 512)}
}

// Matches reports whether text passes the source's filters. A source with
// no keywords and no patterns matches everything. Keywords are
// case-insensitive substrings; patterns are regexes. Either kind matching
// is enough.
func (f *Filter) Matches(src *domain.MonitoredSource, text string) (bool, error) {
	if len(src.Keywords) == 0 && len(src.Patterns) == 0 {
		return true, nil
	}

	lower := strings.ToLower(text)
	for _, kw := range src.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true, nil
		}
	}

	for _, pat := range src.Patterns {
		re, err := f.compile(pat)
		if err != nil {
			return false, fmt.Errorf("pattern %q: %w", pat, err)
		}
		if re.MatchString(text) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Filter) compile(pattern string) (*regexp.Regexp, error) {
	return f.patterns.GetOrCompute(pattern, func() (*regexp.Regexp, error) {
		return regexp.Compile(pattern)
	})
}

// ExtractAddresses returns the valid Solana addresses found in text,
// deduplicated, in order of first appearance.
func ExtractAddresses(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, candidate := range addressCandidate.FindAllString(text, -1) {
		if err := domain.ValidateAddress(candidate); err != nil {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
