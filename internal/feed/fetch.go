// Package feed fetches articles from the feed API and from optional
// RSS/Atom sources.
package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheuskafuri/devfeed/internal/article"
	"github.com/matheuskafuri/devfeed/internal/config"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentSources = 4

type FetchResult struct {
	Articles []article.Article
	// APIErr is set when the feed API itself could not be read.
	APIErr error
	Errors []error
}

// FetchAll lists the feed API and every source concurrently. Results keep
// API order first, then sources in config order. A failing source is
// reported in Errors and does not stop the others.
//
// The API filters server-side; source items are filtered here the same
// way. Trending is a server ranking, so sources are skipped for it.
func FetchAll(ctx context.Context, api *Client, rss Fetcher, sources []config.Source, q Query) FetchResult {
	if q.Trending {
		sources = nil
	}

	batches := make([][]article.Article, len(sources)+1)
	errs := make([]error, len(sources)+1)

	var g errgroup.Group
	g.SetLimit(maxConcurrentSources)

	if api != nil {
		g.Go(func() error {
			batches[0], errs[0] = api.Articles(ctx, q)
			return nil
		})
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			items, err := rss.Fetch(ctx, src)
			if err != nil {
				errs[i+1] = err
				return nil
			}
			batches[i+1] = filterLocal(items, q)
			return nil
		})
	}
	g.Wait()

	var result FetchResult
	if errs[0] != nil {
		result.APIErr = fmt.Errorf("feed api: %w", errs[0])
		result.Errors = append(result.Errors, result.APIErr)
	}
	for _, err := range errs[1:] {
		if err != nil {
			result.Errors = append(result.Errors, err)
		}
	}
	for _, b := range batches {
		result.Articles = append(result.Articles, b...)
	}
	return result
}

func filterLocal(items []article.Article, q Query) []article.Article {
	search := strings.TrimSpace(q.Search)
	var out []article.Article
	for _, a := range items {
		if q.Tag != "" && !a.HasTag(q.Tag) {
			continue
		}
		if !a.Matches(search) {
			continue
		}
		out = append(out, a)
	}
	return out
}
