package crawl

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks pulls outbound anchor targets from raw HTML. Absolute http(s)
// links are kept as-is; links beginning with "/" are resolved against the
// base URL's origin. Anything else (fragments, mailto:, javascript:,
// protocol-relative) is dropped. The result is deduplicated in first-seen
// order.
func ExtractLinks(content string, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})
	keep := func(link string) {
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(content))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if len(name) != 1 || name[0] != 'a' || !hasAttr {
				continue
			}
			href, ok := anchorHref(tokenizer)
			if !ok {
				continue
			}
			if strings.HasPrefix(href, "/") {
				resolved, err := url.Parse(href)
				if err != nil {
					continue
				}
				href = base.ResolveReference(resolved).String()
			}
			if strings.HasPrefix(href, "http") {
				keep(href)
			}
		}
	}
}

func anchorHref(tokenizer *html.Tokenizer) (string, bool) {
	for {
		key, value, more := tokenizer.TagAttr()
		if string(key) == "href" {
			return string(value), true
		}
		if !more {
			return "", false
		}
	}
}
