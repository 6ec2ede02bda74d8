package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/devfeed/internal/article"
	"github.com/matheuskafuri/devfeed/internal/cache"
	"github.com/matheuskafuri/devfeed/internal/feed"
)

// catalogLimit bounds how much of the cache "saved" looks through.
const catalogLimit = 5000

var errTrendingOffline = errors.New("trending order comes from the feed API and is not available offline")

var (
	flagSavedRefresh bool
	flagSavedOffline bool
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List bookmarked articles",
	Long: `List bookmarked articles from the local catalog, in feed order.

The catalog is refreshed first when it is older than refresh_interval.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := s.fetchContext(cmd)
		defer cancel()
		return s.saved(ctx, flagSavedRefresh, flagSavedOffline)
	},
}

func init() {
	savedCmd.Flags().BoolVar(&flagSavedRefresh, "refresh", false, "refresh the catalog even if it is recent")
	savedCmd.Flags().BoolVar(&flagSavedOffline, "offline", false, "use the cached catalog only")
}

func (s *session) list(ctx context.Context, q feed.Query, offline bool) error {
	articles, err := s.fetch(ctx, q, offline)
	if err != nil {
		return err
	}
	if err := renderArticles(s.out, articles, s.store); err != nil {
		return err
	}
	s.notices()
	return nil
}

// fetch returns the listing for q. Whatever was fetched goes into the
// cache; when the feed API fails the cached catalog is listed instead.
func (s *session) fetch(ctx context.Context, q feed.Query, offline bool) ([]article.Article, error) {
	if offline {
		if q.Trending {
			return nil, errTrendingOffline
		}
		return s.fromCache(q)
	}

	res := feed.FetchAll(ctx, s.api, s.rss, s.cfg.EnabledSources(), q)
	for _, err := range res.Errors {
		if err != res.APIErr {
			s.warn("%v", err)
		}
	}

	if len(res.Articles) > 0 {
		if err := s.db.UpsertArticles(res.Articles); err != nil {
			s.logger.Warn("caching articles", "err", err)
		}
	}

	if res.APIErr != nil {
		if q.Trending {
			return nil, res.APIErr
		}
		s.warn("feed unavailable, showing cached articles: %v", res.APIErr)
		return s.fromCache(q)
	}

	if q.IsZero() {
		if err := s.db.SetLastRefresh(); err != nil {
			s.logger.Warn("recording refresh time", "err", err)
		}
	}
	return res.Articles, nil
}

func (s *session) fromCache(q feed.Query) ([]article.Article, error) {
	articles, err := s.db.GetArticles(cache.QueryOpts{
		Search: strings.TrimSpace(q.Search),
		Tag:    q.Tag,
	})
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	return articles, nil
}

// refreshCatalog pulls the unfiltered feed into the cache.
func (s *session) refreshCatalog(ctx context.Context) error {
	_, err := s.fetch(ctx, feed.Query{}, false)
	return err
}

func (s *session) saved(ctx context.Context, refresh, offline bool) error {
	if !offline && (refresh || s.db.NeedsRefresh(s.cfg.RefreshDuration())) {
		if err := s.refreshCatalog(ctx); err != nil {
			s.warn("could not refresh articles: %v", err)
		}
	}

	catalog, err := s.db.GetArticles(cache.QueryOpts{Limit: catalogLimit})
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}

	saved := s.store.BookmarkedSubset(catalog)
	missing := s.store.Summary().BookmarkCount - len(saved)

	if len(saved) == 0 && missing == 0 {
		fmt.Fprintln(s.out, dimStyle.Render("No saved articles."))
		s.notices()
		return nil
	}
	if len(saved) > 0 {
		if err := renderArticles(s.out, saved, s.store); err != nil {
			return err
		}
	}
	if missing > 0 {
		fmt.Fprintln(s.out, dimStyle.Render(fmt.Sprintf("%d saved article(s) are not in the local catalog.", missing)))
	}
	s.notices()
	return nil
}
