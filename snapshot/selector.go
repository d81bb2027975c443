package snapshot

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// applySelector narrows rawHTML to the elements matching a CSS selector,
// concatenating their rendered outer HTML. A selector that matches nothing
// leaves the input untouched so the caller still has a page to convert.
func applySelector(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", err
	}
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, node := range cascadia.QueryAll(root, sel) {
		if err := html.Render(&out, node); err != nil {
			return "", err
		}
	}
	if out.Len() == 0 {
		return rawHTML, nil
	}
	return out.String(), nil
}
