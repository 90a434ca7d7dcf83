package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PaesslerAG/jsonpath"
)

// Candidate is one symbol returned by the provider's search endpoint.
type Candidate struct {
	Symbol   string
	Exchange string
	Currency string
	Name     string
}

// Search queries the provider's symbol search and returns up to max candidates.
func (c *Client) Search(ctx context.Context, query string, max int) ([]Candidate, error) {
	addr := fmt.Sprintf("%s?q=%s&quotesCount=%d&newsCount=0", c.searchBase, url.QueryEscape(query), max)

	var jobj any
	if err := c.jwget(ctx, addr, &jobj); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	jval, err := jsonpath.Get("$.quotes[*]", jobj)
	if err != nil {
		// No quotes array means no results, not a failure.
		return nil, nil
	}
	jlist, ok := jval.([]any)
	if !ok {
		// jsonpath is never clear about whether it returns a list or a single
		// answer: normalize to a list.
		jlist = []any{jval}
	}

	var candidates []Candidate
	for _, jq := range jlist {
		quote, ok := jq.(map[string]any)
		if !ok {
			continue
		}
		cand := Candidate{
			Symbol:   jstring(quote, "symbol"),
			Exchange: jstring(quote, "exchange"),
			Currency: jstring(quote, "currency"),
			Name:     jstring(quote, "shortname"),
		}
		if cand.Name == "" {
			cand.Name = jstring(quote, "longname")
		}
		if cand.Symbol == "" {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

func jstring(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
