package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/matheuskafuri/devfeed/internal/article"
	"github.com/matheuskafuri/devfeed/internal/config"
	"github.com/mmcdole/gofeed"
)

const (
	maxItemAge        = 7 * 24 * time.Hour
	maxDescriptionLen = 300
	sourceTimeout     = 30 * time.Second
)

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]article.Article, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
}

func NewRSSFetcher() *RSSFetcher {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: sourceTimeout}
	return &RSSFetcher{parser: p}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]article.Article, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := time.Now()
	maxAge := now.Add(-maxItemAge)
	articles := make([]article.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}
		if pub.Before(maxAge) {
			continue
		}

		key := item.Link
		if key == "" {
			key = item.GUID
		}
		if key == "" {
			continue
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}

		tags := make([]string, 0, len(item.Categories))
		tags = append(tags, item.Categories...)

		articles = append(articles, article.Article{
			ID:          articleID(key),
			Source:      source.Name,
			Title:       cleanText(item.Title),
			Link:        item.Link,
			Description: truncate(cleanText(desc), maxDescriptionLen),
			Tags:        tags,
			FetchedAt:   now,
		})
	}
	return articles, nil
}

func articleID(link string) article.ID {
	h := sha256.Sum256([]byte(link))
	return article.ID(fmt.Sprintf("%x", h[:16]))
}
