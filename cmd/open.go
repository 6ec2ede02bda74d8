package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/devfeed/internal/article"
	"github.com/matheuskafuri/devfeed/internal/cache"
)

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open an article's link in the browser",
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
		return s.open(id)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func (s *session) open(id article.ID) error {
	a, err := s.db.GetArticle(id)
	if errors.Is(err, cache.ErrNotFound) {
		return fmt.Errorf("article %s is not in the local catalog; list the feed first", id)
	}
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}
	if a.Link == "" {
		return fmt.Errorf("article %s has no link", id)
	}

	fmt.Fprintf(s.out, "Opening %s\n", a.Link)
	return s.openURL(a.Link)
}
