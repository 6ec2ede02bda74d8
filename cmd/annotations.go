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

var saveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Bookmark an article, or remove the bookmark if it is already saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseArticleArg(args[0])
		if err != nil {
			return err
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.toggleSave(id)
	},
}

var upvoteCmd = newVoteCmd(article.Upvote)
var downvoteCmd = newVoteCmd(article.Downvote)

func newVoteCmd(kind article.VoteKind) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " <id>",
		Short: fmt.Sprintf("Submit a %s for an article", kind),
		Long: fmt.Sprintf(`Submit a %s to the feed API. The vote is remembered locally once the
API accepts it; a later vote on the same article replaces it.`, kind),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseArticleArg(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := s.fetchContext(cmd)
			defer cancel()
			return s.vote(ctx, id, kind)
		},
	}
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show how many articles you saved and voted on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.profile()
	},
}

func parseArticleArg(raw string) (article.ID, error) {
	id, err := article.ParseID(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid article id: %w", err)
	}
	return id, nil
}

// describe names an article by id, with its title when the cache knows it.
func (s *session) describe(id article.ID) string {
	a, err := s.db.GetArticle(id)
	if err != nil {
		return id.String()
	}
	return fmt.Sprintf("%s %q", id, truncateStr(a.Title, maxTitleLen))
}

func (s *session) toggleSave(id article.ID) error {
	ids, err := s.store.ToggleBookmark(id)
	if err != nil {
		s.logger.Debug("bookmark not persisted", "id", id, "err", err)
	}

	if s.store.IsBookmarked(id) {
		fmt.Fprintf(s.out, "%s Saved %s\n", savedStyle.Render(savedMark), s.describe(id))
	} else {
		fmt.Fprintf(s.out, "Removed %s from saved\n", s.describe(id))
	}
	fmt.Fprintln(s.out, dimStyle.Render(fmt.Sprintf("%d saved", len(ids))))
	s.notices()
	return nil
}

// vote submits to the feed API first and only records the vote locally
// once the API has accepted it. The catalog is then refreshed so the new
// counts show up.
func (s *session) vote(ctx context.Context, id article.ID, kind article.VoteKind) error {
	a, err := s.db.GetArticle(id)
	switch {
	case err == nil && !a.Votable():
		return fmt.Errorf("article %s comes from %s; only feed API articles can be voted on", id, a.Source)
	case err != nil && !errors.Is(err, cache.ErrNotFound):
		return fmt.Errorf("reading cache: %w", err)
	}

	if err := s.api.Vote(ctx, id, kind); err != nil {
		return fmt.Errorf("vote not recorded: %w", err)
	}
	if err := s.store.RecordVote(id, kind); err != nil {
		s.logger.Debug("vote not persisted", "id", id, "err", err)
	}
	fmt.Fprintf(s.out, "%s %s %s\n", voteMark(kind), voteVerb(kind), s.describe(id))

	fresh, err := s.api.Articles(ctx, feed.Query{})
	if err != nil {
		s.warn("vote recorded, but the feed could not be refreshed: %v", err)
		s.notices()
		return nil
	}
	if err := s.db.UpsertArticles(fresh); err != nil {
		s.logger.Warn("caching articles", "err", err)
	}
	for _, a := range fresh {
		if a.ID == id {
			fmt.Fprintln(s.out, dimStyle.Render("now "+score(a)))
			break
		}
	}
	s.notices()
	return nil
}

func voteVerb(kind article.VoteKind) string {
	if kind == article.Downvote {
		return "Downvoted"
	}
	return "Upvoted"
}

func (s *session) profile() error {
	sum := s.store.Summary()
	var up, down int
	for _, kind := range s.store.Votes() {
		if kind == article.Upvote {
			up++
		} else {
			down++
		}
	}

	err := renderPairs(s.out, "Profile", [][]string{
		{"Saved articles", fmt.Sprint(sum.BookmarkCount)},
		{"Voted articles", fmt.Sprintf("%d (%s%d %s%d)", sum.VotedCount, upvoteMark, up, downvoteMark, down)},
		{"Storage", s.cfg.StorageBackend()},
	})
	s.notices()
	return err
}
