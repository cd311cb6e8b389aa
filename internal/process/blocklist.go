package process

import (
	"regexp"
	"strings"

	"github.com/dmaher/scrapewire/internal/scrape"
)

// Blocklist drops sponsored and promotional items before they reach the
// feed. Keywords are matched case-insensitively against title and
// description; patterns run against the article URL.
type Blocklist struct {
	Keywords    []string
	URLPatterns []*regexp.Regexp
}

// DefaultBlocklist blocks the common sponsored-content markers seen across
// news sites.
func DefaultBlocklist() *Blocklist {
	return &Blocklist{
		Keywords: []string{
			"sponsored",
			"advertisement",
			"paid content",
			"paid post",
			"partner content",
			"branded content",
			"promoted",
			"presented by",
			"brought to you by",
			"[ad]",
			"press release",
		},
		URLPatterns: compilePatterns([]string{
			`/sponsored/`,
			`/native/`,
			`/branded-content/`,
			`/partner/`,
			`/brandstudio/`,
			`/paid-post/`,
			`/promo/`,
			`utm_source=paid`,
			`doubleclick\.net`,
			`googlesyndication\.com`,
		}),
	}
}

// Blocked reports whether the article matches any block rule.
func (b *Blocklist) Blocked(a scrape.Article) bool {
	text := strings.ToLower(a.Title + " " + a.Description)
	for _, kw := range b.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, re := range b.URLPatterns {
		if re.MatchString(a.URL) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}
